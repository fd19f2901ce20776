package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/auth"
	"openjournal.app/backend/internal/entity"
	"openjournal.app/backend/internal/modules/rolerequest/dto"
	"openjournal.app/backend/internal/modules/rolerequest/repository"
	userRepo "openjournal.app/backend/internal/modules/user/repository"
	"openjournal.app/backend/pkg/apperror"
)

type RoleRequestService interface {
	RequestRole(ctx context.Context, actor *auth.Context, input dto.RequestRoleInput) (*dto.RoleRequestResponse, error)
	ReviewRoleRequest(ctx context.Context, actor *auth.Context, requestID uuid.UUID, input dto.ReviewRoleRequestInput) (*dto.RoleRequestResponse, error)
	GetMyRequests(ctx context.Context, actor *auth.Context) ([]dto.RoleRequestResponse, error)
	GetAllRequests(ctx context.Context, actor *auth.Context) ([]dto.AdminRoleRequestResponse, error)
	CountPending(ctx context.Context, actor *auth.Context) (int64, error)
}

type roleRequestService struct {
	repo     repository.RoleRequestRepository
	userRepo userRepo.UserRepository
}

func NewRoleRequestService(repo repository.RoleRequestRepository, uRepo userRepo.UserRepository) RoleRequestService {
	return &roleRequestService{repo: repo, userRepo: uRepo}
}

func (s *roleRequestService) RequestRole(ctx context.Context, actor *auth.Context, input dto.RequestRoleInput) (*dto.RoleRequestResponse, error) {
	if err := auth.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	requestedRole := entity.Role(input.RequestedRole)

	profile, err := s.userRepo.GetOrCreateProfile(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if profile.HasRole(requestedRole) {
		return nil, fmt.Errorf("%w: you already have the %s role", apperror.ErrInvalidState, requestedRole)
	}

	pending, err := s.repo.HasPendingForRole(ctx, actor.UserID, requestedRole)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("%w: you already have a pending request for the %s role", apperror.ErrInvalidState, requestedRole)
	}

	currentRoles := make([]string, 0)
	for _, r := range profile.RoleSet() {
		currentRoles = append(currentRoles, string(r))
	}

	request := &entity.RoleRequest{
		UserID:        actor.UserID,
		RequestedRole: requestedRole,
		CurrentRoles:  currentRoles,
		Reason:        input.Reason,
		Status:        entity.RoleRequestPending,
		RequestedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, err
	}

	resp := buildRoleRequestResponse(request)
	return &resp, nil
}

func (s *roleRequestService) ReviewRoleRequest(ctx context.Context, actor *auth.Context, requestID uuid.UUID, input dto.ReviewRoleRequestInput) (*dto.RoleRequestResponse, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: role request", apperror.ErrNotFound)
		}
		return nil, err
	}

	if request.Status != entity.RoleRequestPending {
		return nil, fmt.Errorf("%w: this request has already been reviewed", apperror.ErrInvalidState)
	}

	now := time.Now()
	if input.Action == "approve" {
		request.Status = entity.RoleRequestApproved
	} else {
		request.Status = entity.RoleRequestRejected
	}
	request.ReviewedAt = &now
	request.ReviewedBy = &actor.UserID
	request.AdminNotes = input.AdminNotes
	if err := s.repo.Save(ctx, request); err != nil {
		return nil, err
	}

	if request.Status == entity.RoleRequestApproved {
		profile, err := s.userRepo.GetOrCreateProfile(ctx, request.UserID)
		if err != nil {
			return nil, err
		}

		roles := make([]string, 0)
		found := false
		for _, r := range profile.RoleSet() {
			if r == request.RequestedRole {
				found = true
			}
			roles = append(roles, string(r))
		}
		if !found {
			roles = append(roles, string(request.RequestedRole))
		}

		profile.Roles = roles
		profile.LegacyRole = nil
		if err := s.userRepo.SaveProfile(ctx, profile); err != nil {
			return nil, err
		}
	}

	resp := buildRoleRequestResponse(request)
	return &resp, nil
}

func (s *roleRequestService) GetMyRequests(ctx context.Context, actor *auth.Context) ([]dto.RoleRequestResponse, error) {
	if err := auth.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	requests, err := s.repo.FindByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.RoleRequestResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, buildRoleRequestResponse(&requests[i]))
	}
	return responses, nil
}

func (s *roleRequestService) GetAllRequests(ctx context.Context, actor *auth.Context) ([]dto.AdminRoleRequestResponse, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	requests, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AdminRoleRequestResponse, 0, len(requests))
	for i := range requests {
		request := &requests[i]

		resp := dto.AdminRoleRequestResponse{
			RoleRequestResponse: buildRoleRequestResponse(request),
			UserName:            "Unknown User",
		}
		if user, err := s.userRepo.FindByID(ctx, request.UserID); err == nil {
			resp.UserEmail = user.Email
			resp.UserName = user.Name
			if user.Profile != nil && user.Profile.Name != "" {
				resp.UserName = user.Profile.Name
			}
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *roleRequestService) CountPending(ctx context.Context, actor *auth.Context) (int64, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return 0, err
	}
	return s.repo.CountPending(ctx)
}

func buildRoleRequestResponse(request *entity.RoleRequest) dto.RoleRequestResponse {
	return dto.RoleRequestResponse{
		ID:            request.ID,
		UserID:        request.UserID,
		RequestedRole: string(request.RequestedRole),
		CurrentRoles:  request.CurrentRoles,
		Reason:        request.Reason,
		Status:        string(request.Status),
		RequestedAt:   request.RequestedAt,
		ReviewedAt:    request.ReviewedAt,
		ReviewedBy:    request.ReviewedBy,
		AdminNotes:    request.AdminNotes,
	}
}
