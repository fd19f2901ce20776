package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/auth"
	"openjournal.app/backend/internal/entity"
	"openjournal.app/backend/internal/modules/user/dto"
	"openjournal.app/backend/internal/modules/user/repository"
	"openjournal.app/backend/pkg/apperror"
)

type AuthService interface {
	Signup(ctx context.Context, input dto.SignupInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
}

type ProfileService interface {
	GetCurrent(ctx context.Context, actor *auth.Context) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, actor *auth.Context, input dto.UpdateProfileInput) (*dto.UserResponse, error)
	ListReviewers(ctx context.Context, actor *auth.Context) ([]dto.ReviewerResponse, error)
}

type userService struct {
	repo     repository.UserRepository
	secret   string
	tokenTTL time.Duration
}

func NewAuthService(repo repository.UserRepository) AuthService {
	return newUserService(repo)
}

func NewProfileService(repo repository.UserRepository) ProfileService {
	return newUserService(repo)
}

func newUserService(repo repository.UserRepository) *userService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}

	ttl := 24 * time.Hour
	if ttlStr := os.Getenv("JWT_TTL_MINUTES"); ttlStr != "" {
		if minutes, err := strconv.Atoi(ttlStr); err == nil {
			ttl = time.Duration(minutes) * time.Minute
		}
	}

	return &userService{repo: repo, secret: secret, tokenTTL: ttl}
}

func (s *userService) Signup(ctx context.Context, input dto.SignupInput) (*dto.AuthResponse, error) {
	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, fmt.Errorf("%w: an account with this email already exists", apperror.ErrInvalidState)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: string(hashed),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	profile, err := s.repo.GetOrCreateProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Profile = profile

	return s.buildAuthResponse(user)
}

func (s *userService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthenticated)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperror.ErrUnauthenticated)
	}

	return s.buildAuthResponse(user)
}

func (s *userService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      buildUserResponse(user),
	}, nil
}

func buildUserResponse(user *entity.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Roles: []string{string(entity.RoleAuthor)},
	}

	if user.Profile != nil {
		if user.Profile.Name != "" {
			resp.Name = user.Profile.Name
		}
		resp.Orcid = user.Profile.Orcid
		resp.Roles = rolesToStrings(user.Profile.RoleSet())
	}

	return resp
}

func rolesToStrings(roles []entity.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func (s *userService) GetCurrent(ctx context.Context, actor *auth.Context) (*dto.UserResponse, error) {
	if err := auth.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", apperror.ErrNotFound)
		}
		return nil, err
	}

	resp := buildUserResponse(user)
	return &resp, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor *auth.Context, input dto.UpdateProfileInput) (*dto.UserResponse, error) {
	if err := auth.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	profile, err := s.repo.GetOrCreateProfile(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	profile.Name = input.Name
	profile.Orcid = input.Orcid
	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}

	return s.GetCurrent(ctx, actor)
}

// ListReviewers returns every user holding the reviewer role, for the
// editor's assignment picker.
func (s *userService) ListReviewers(ctx context.Context, actor *auth.Context) ([]dto.ReviewerResponse, error) {
	if err := auth.RequireRole(actor, entity.RoleEditor); err != nil {
		return nil, err
	}

	profiles, err := s.repo.FindAllProfiles(ctx)
	if err != nil {
		return nil, err
	}

	var reviewers []dto.ReviewerResponse
	for i := range profiles {
		profile := &profiles[i]
		if !profile.HasRole(entity.RoleReviewer) {
			continue
		}

		user, err := s.repo.FindByID(ctx, profile.UserID)
		if err != nil {
			continue
		}

		name := profile.Name
		if name == "" {
			name = user.Name
		}
		reviewers = append(reviewers, dto.ReviewerResponse{
			UserID: profile.UserID,
			Name:   name,
			Email:  user.Email,
		})
	}

	return reviewers, nil
}
