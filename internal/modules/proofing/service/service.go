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
	manuscriptRepo "openjournal.app/backend/internal/modules/manuscript/repository"
	"openjournal.app/backend/internal/modules/proofing/dto"
	"openjournal.app/backend/internal/modules/proofing/repository"
	userRepo "openjournal.app/backend/internal/modules/user/repository"
	"openjournal.app/backend/pkg/apperror"
	"openjournal.app/backend/pkg/storage"
)

type ProofingService interface {
	// CreateTask is invoked by the editorial decision flow when a manuscript
	// enters proofing. It is idempotent: an existing task is returned as-is.
	CreateTask(ctx context.Context, manuscriptID uuid.UUID) (*entity.ProofingTask, error)

	UploadProofedFile(ctx context.Context, actor *auth.Context, taskID uuid.UUID, input dto.UploadProofedFileInput) (*dto.ProofingTaskResponse, error)
	GetTasks(ctx context.Context, actor *auth.Context) ([]dto.ProofingTaskResponse, error)
	GetTask(ctx context.Context, actor *auth.Context, taskID uuid.UUID) (*dto.ProofingTaskResponse, error)
}

type proofingService struct {
	repo           repository.ProofingRepository
	manuscriptRepo manuscriptRepo.ManuscriptRepository
	userRepo       userRepo.UserRepository
	storage        storage.FileStorage
}

func NewProofingService(
	repo repository.ProofingRepository,
	mRepo manuscriptRepo.ManuscriptRepository,
	uRepo userRepo.UserRepository,
	fileStorage storage.FileStorage,
) ProofingService {
	return &proofingService{
		repo:           repo,
		manuscriptRepo: mRepo,
		userRepo:       uRepo,
		storage:        fileStorage,
	}
}

func (s *proofingService) CreateTask(ctx context.Context, manuscriptID uuid.UUID) (*entity.ProofingTask, error) {
	existing, err := s.repo.FindByManuscriptID(ctx, manuscriptID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	manuscript, err := s.manuscriptRepo.FindByID(ctx, manuscriptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: manuscript", apperror.ErrNotFound)
		}
		return nil, err
	}
	if manuscript.Status != entity.StatusProofing {
		return nil, fmt.Errorf("%w: manuscript must be in proofing status", apperror.ErrInvalidState)
	}

	editorID, err := s.findAvailableEditor(ctx)
	if err != nil {
		return nil, err
	}

	task := &entity.ProofingTask{
		ManuscriptID: manuscriptID,
		EditorID:     editorID,
		Status:       entity.ProofingPending,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// findAvailableEditor picks the first user holding the editor role.
// TODO: balance assignment by open task count once there is more than a
// handful of editors.
func (s *proofingService) findAvailableEditor(ctx context.Context) (uuid.UUID, error) {
	profiles, err := s.userRepo.FindAllProfiles(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	for i := range profiles {
		if profiles[i].HasRole(entity.RoleEditor) {
			return profiles[i].UserID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("%w: no editors available to assign proofing task", apperror.ErrInvalidState)
}

func (s *proofingService) UploadProofedFile(ctx context.Context, actor *auth.Context, taskID uuid.UUID, input dto.UploadProofedFileInput) (*dto.ProofingTaskResponse, error) {
	if err := auth.RequireRole(actor, entity.RoleEditor); err != nil {
		return nil, err
	}

	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: proofing task", apperror.ErrNotFound)
		}
		return nil, err
	}

	if task.Status != entity.ProofingPending {
		return nil, fmt.Errorf("%w: proofing task is not in pending status", apperror.ErrInvalidState)
	}

	now := time.Now()
	task.ProofedRef = &input.FileRef
	task.ProofingNotes = input.ProofingNotes
	task.Status = entity.ProofingCompleted
	task.CompletedAt = &now
	if err := s.repo.Save(ctx, task); err != nil {
		return nil, err
	}

	return s.buildTaskResponse(ctx, task)
}

func (s *proofingService) GetTasks(ctx context.Context, actor *auth.Context) ([]dto.ProofingTaskResponse, error) {
	if err := auth.RequireRole(actor, entity.RoleEditor); err != nil {
		return nil, err
	}

	tasks, err := s.repo.FindOpenTasks(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ProofingTaskResponse, 0, len(tasks))
	for i := range tasks {
		resp, err := s.buildTaskResponse(ctx, &tasks[i])
		if err != nil {
			// Task pointing at a deleted manuscript; skip it.
			continue
		}
		responses = append(responses, *resp)
	}
	return responses, nil
}

func (s *proofingService) GetTask(ctx context.Context, actor *auth.Context, taskID uuid.UUID) (*dto.ProofingTaskResponse, error) {
	if err := auth.RequireRole(actor, entity.RoleEditor); err != nil {
		return nil, err
	}

	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: proofing task", apperror.ErrNotFound)
		}
		return nil, err
	}

	return s.buildTaskResponse(ctx, task)
}

func (s *proofingService) buildTaskResponse(ctx context.Context, task *entity.ProofingTask) (*dto.ProofingTaskResponse, error) {
	manuscript, err := s.manuscriptRepo.FindByID(ctx, task.ManuscriptID)
	if err != nil {
		return nil, err
	}

	authorNames, err := s.resolveAuthorNames(ctx, manuscript.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProofingTaskResponse{
		ID:            task.ID,
		Status:        string(task.Status),
		EditorID:      task.EditorID,
		ProofingNotes: task.ProofingNotes,
		CreatedAt:     task.CreatedAt,
		CompletedAt:   task.CompletedAt,
		PublishedAt:   task.PublishedAt,
		Manuscript: dto.TaskManuscript{
			ID:              manuscript.ID,
			Title:           manuscript.Title,
			Abstract:        manuscript.Abstract,
			Language:        manuscript.Language,
			Status:          string(manuscript.Status),
			Authors:         authorNames,
			OriginalFileURL: s.storage.ResolveURL(manuscript.FileRef),
		},
	}

	if task.ProofedRef != nil {
		url := s.storage.ResolveURL(*task.ProofedRef)
		resp.ProofedFileURL = &url
	}

	return resp, nil
}

func (s *proofingService) resolveAuthorNames(ctx context.Context, manuscriptID uuid.UUID) ([]string, error) {
	authorIDs, err := s.manuscriptRepo.FindAuthorIDs(ctx, manuscriptID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(authorIDs))
	for _, authorID := range authorIDs {
		user, err := s.userRepo.FindByID(ctx, authorID)
		if err != nil {
			names = append(names, "Unknown Author")
			continue
		}
		name := user.Name
		if user.Profile != nil && user.Profile.Name != "" {
			name = user.Profile.Name
		}
		names = append(names, name)
	}
	return names, nil
}
