package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/auth"
	"openjournal.app/backend/internal/entity"
	"openjournal.app/backend/internal/modules/admin/dto"
	manuscriptRepo "openjournal.app/backend/internal/modules/manuscript/repository"
	reviewRepo "openjournal.app/backend/internal/modules/review/repository"
	userRepo "openjournal.app/backend/internal/modules/user/repository"
	"openjournal.app/backend/pkg/apperror"
)

type AdminService interface {
	GetStats(ctx context.Context, actor *auth.Context) (*dto.AdminStatsResponse, error)
	GetAllUsers(ctx context.Context, actor *auth.Context) ([]dto.AdminUserResponse, error)
	UpdateUserRoles(ctx context.Context, actor *auth.Context, targetUserID uuid.UUID, input dto.UpdateUserRolesInput) (*dto.AdminUserResponse, error)
	DeleteUser(ctx context.Context, actor *auth.Context, targetUserID uuid.UUID) error
}

type adminService struct {
	userRepo       userRepo.UserRepository
	manuscriptRepo manuscriptRepo.ManuscriptRepository
	reviewRepo     reviewRepo.ReviewRepository
}

func NewAdminService(
	uRepo userRepo.UserRepository,
	mRepo manuscriptRepo.ManuscriptRepository,
	rRepo reviewRepo.ReviewRepository,
) AdminService {
	return &adminService{
		userRepo:       uRepo,
		manuscriptRepo: mRepo,
		reviewRepo:     rRepo,
	}
}

func (s *adminService) GetStats(ctx context.Context, actor *auth.Context) (*dto.AdminStatsResponse, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	manuscripts, err := s.manuscriptRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	manuscriptStats := dto.CountByGroup{Total: int64(len(manuscripts)), ByGroup: map[string]int64{}}
	for i := range manuscripts {
		manuscriptStats.ByGroup[string(manuscripts[i].Status)]++
	}

	reviews, err := s.reviewRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	reviewStats := dto.CountByGroup{Total: int64(len(reviews)), ByGroup: map[string]int64{}}
	for i := range reviews {
		reviewStats.ByGroup[string(reviews[i].Status)]++
	}

	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	userStats := dto.CountByGroup{Total: int64(len(users)), ByGroup: map[string]int64{}}
	for i := range users {
		if users[i].Profile == nil {
			continue
		}
		for _, role := range users[i].Profile.RoleSet() {
			userStats.ByGroup[string(role)]++
		}
	}

	return &dto.AdminStatsResponse{
		Manuscripts: manuscriptStats,
		Reviews:     reviewStats,
		Users:       userStats,
	}, nil
}

func (s *adminService) GetAllUsers(ctx context.Context, actor *auth.Context) ([]dto.AdminUserResponse, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AdminUserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, buildAdminUserResponse(&users[i]))
	}
	return responses, nil
}

func (s *adminService) UpdateUserRoles(ctx context.Context, actor *auth.Context, targetUserID uuid.UUID, input dto.UpdateUserRolesInput) (*dto.AdminUserResponse, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	profile, err := s.userRepo.GetOrCreateProfile(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", apperror.ErrNotFound)
		}
		return nil, err
	}

	// Admin is seeded from config, never granted through this endpoint, so
	// an existing admin grant survives the overwrite.
	roles := append([]string{}, input.Roles...)
	if profile.HasRole(entity.RoleAdmin) {
		roles = appendUnique(roles, string(entity.RoleAdmin))
	}

	profile.Roles = roles
	profile.LegacyRole = nil
	if err := s.userRepo.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	resp := buildAdminUserResponse(user)
	return &resp, nil
}

func (s *adminService) DeleteUser(ctx context.Context, actor *auth.Context, targetUserID uuid.UUID) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}

	if actor.UserID == targetUserID {
		return fmt.Errorf("%w: you cannot delete your own account", apperror.ErrInvalidState)
	}

	if _, err := s.userRepo.FindByID(ctx, targetUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user", apperror.ErrNotFound)
		}
		return err
	}

	return s.userRepo.Delete(ctx, targetUserID)
}

func buildAdminUserResponse(user *entity.User) dto.AdminUserResponse {
	resp := dto.AdminUserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Roles:     []string{string(entity.RoleAuthor)},
		CreatedAt: user.CreatedAt,
	}
	if user.Profile != nil {
		if user.Profile.Name != "" {
			resp.Name = user.Profile.Name
		}
		resp.Orcid = user.Profile.Orcid
		roles := make([]string, 0)
		for _, r := range user.Profile.RoleSet() {
			roles = append(roles, string(r))
		}
		resp.Roles = roles
	}
	return resp
}

func appendUnique(items []string, item string) []string {
	for _, existing := range items {
		if existing == item {
			return items
		}
	}
	return append(items, item)
}
