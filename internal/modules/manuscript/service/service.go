package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/auth"
	"openjournal.app/backend/internal/entity"
	"openjournal.app/backend/internal/modules/manuscript/dto"
	"openjournal.app/backend/internal/modules/manuscript/repository"
	notifService "openjournal.app/backend/internal/modules/notification/service"
	proofingService "openjournal.app/backend/internal/modules/proofing/service"
	searchService "openjournal.app/backend/internal/modules/search/service"
	userRepo "openjournal.app/backend/internal/modules/user/repository"
	"openjournal.app/backend/pkg/apperror"
	"openjournal.app/backend/pkg/slug"
	"openjournal.app/backend/pkg/storage"
)

type ManuscriptService interface {
	Submit(ctx context.Context, actor *auth.Context, input dto.SubmitManuscriptInput) (*dto.ManuscriptResponse, error)
	MakeDecision(ctx context.Context, actor *auth.Context, manuscriptID uuid.UUID, input dto.DecisionInput) (*dto.DecisionResponse, error)
	GetMine(ctx context.Context, actor *auth.Context) ([]dto.ManuscriptResponse, error)
	GetEditorQueue(ctx context.Context, actor *auth.Context) ([]dto.ManuscriptResponse, error)
	GetAll(ctx context.Context, actor *auth.Context) ([]dto.ManuscriptResponse, error)
	GetPublished(ctx context.Context, limit int) ([]dto.ManuscriptResponse, error)
	GetBySlug(ctx context.Context, slugStr string) (*dto.ManuscriptResponse, error)
}

type manuscriptService struct {
	repo     repository.ManuscriptRepository
	userRepo userRepo.UserRepository
	proofing proofingService.ProofingService
	notifier notifService.NotificationService
	search   searchService.SearchService
	storage  storage.FileStorage
}

func NewManuscriptService(
	repo repository.ManuscriptRepository,
	uRepo userRepo.UserRepository,
	proofing proofingService.ProofingService,
	notifier notifService.NotificationService,
	search searchService.SearchService,
	fileStorage storage.FileStorage,
) ManuscriptService {
	return &manuscriptService{
		repo:     repo,
		userRepo: uRepo,
		proofing: proofing,
		notifier: notifier,
		search:   search,
		storage:  fileStorage,
	}
}

func (s *manuscriptService) Submit(ctx context.Context, actor *auth.Context, input dto.SubmitManuscriptInput) (*dto.ManuscriptResponse, error) {
	if err := auth.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	// First authenticated action may run before any profile exists.
	if _, err := s.userRepo.GetOrCreateProfile(ctx, actor.UserID); err != nil {
		return nil, err
	}

	uniqueSlug, err := slug.MakeUnique(input.Title, func(candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, candidate)
	})
	if err != nil {
		return nil, err
	}

	manuscript := &entity.Manuscript{
		Title:    input.Title,
		Abstract: input.Abstract,
		Keywords: input.Keywords,
		Language: input.Language,
		FileRef:  input.FileRef,
		Status:   entity.StatusSubmitted,
		Slug:     &uniqueSlug,
	}
	if err := s.repo.Create(ctx, manuscript); err != nil {
		return nil, err
	}

	link := &entity.ManuscriptAuthor{
		ManuscriptID: manuscript.ID,
		AuthorID:     actor.UserID,
	}
	if err := s.repo.CreateAuthorLink(ctx, link); err != nil {
		return nil, err
	}

	if err := s.search.IndexManuscript(manuscript); err != nil {
		log.Printf("Failed to index manuscript %s: %v", manuscript.ID, err)
	}

	return s.buildResponse(ctx, manuscript, true)
}

func (s *manuscriptService) MakeDecision(ctx context.Context, actor *auth.Context, manuscriptID uuid.UUID, input dto.DecisionInput) (*dto.DecisionResponse, error) {
	if err := auth.RequireRole(actor, entity.RoleEditor); err != nil {
		return nil, err
	}

	manuscript, err := s.repo.FindByID(ctx, manuscriptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: manuscript", apperror.ErrNotFound)
		}
		return nil, err
	}

	decision := entity.DecisionKind(input.Decision)

	var newStatus entity.ManuscriptStatus
	switch decision {
	case entity.DecisionProofing:
		newStatus = entity.StatusProofing
	case entity.DecisionReject:
		newStatus = entity.StatusRejected
	case entity.DecisionMinorRevisions:
		newStatus = entity.StatusMinorRevisions
	case entity.DecisionMajorRevisions:
		newStatus = entity.StatusMajorRevisions
	default:
		return nil, fmt.Errorf("%w: unknown decision %q", apperror.ErrValidation, input.Decision)
	}

	if err := s.repo.UpdateStatus(ctx, manuscript.ID, newStatus); err != nil {
		return nil, err
	}
	manuscript.Status = newStatus

	record := &entity.EditorialDecision{
		ManuscriptID: manuscript.ID,
		EditorID:     actor.UserID,
		Decision:     decision,
		Comments:     input.Comments,
		DecidedAt:    time.Now(),
	}
	if err := s.repo.CreateDecision(ctx, record); err != nil {
		return nil, err
	}

	if decision == entity.DecisionProofing {
		if _, err := s.proofing.CreateTask(ctx, manuscript.ID); err != nil {
			return nil, err
		}
	}

	s.notifyAuthors(ctx, manuscript, fmt.Sprintf("An editorial decision (%s) was recorded on %q", decision, manuscript.Title))

	if err := s.search.IndexManuscript(manuscript); err != nil {
		log.Printf("Failed to re-index manuscript %s: %v", manuscript.ID, err)
	}

	return &dto.DecisionResponse{
		ID:           record.ID,
		ManuscriptID: record.ManuscriptID,
		Decision:     string(record.Decision),
		Comments:     record.Comments,
		DecidedAt:    record.DecidedAt,
	}, nil
}

func (s *manuscriptService) notifyAuthors(ctx context.Context, manuscript *entity.Manuscript, message string) {
	authorIDs, err := s.repo.FindAuthorIDs(ctx, manuscript.ID)
	if err != nil {
		log.Printf("Failed to resolve authors for manuscript %s: %v", manuscript.ID, err)
		return
	}

	slugStr := ""
	if manuscript.Slug != nil {
		slugStr = *manuscript.Slug
	}

	for _, authorID := range authorIDs {
		notification := &entity.Notification{
			UserID:     authorID,
			EntityID:   manuscript.ID,
			EntitySlug: slugStr,
			EntityType: "manuscript",
			Type:       "decision",
			Message:    message,
		}
		if err := s.notifier.Notify(ctx, notification); err != nil {
			log.Printf("Failed to notify author %s: %v", authorID, err)
		}
	}
}

func (s *manuscriptService) GetMine(ctx context.Context, actor *auth.Context) ([]dto.ManuscriptResponse, error) {
	if err := auth.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	manuscripts, err := s.repo.FindByAuthor(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.buildResponses(ctx, manuscripts, true)
}

func (s *manuscriptService) GetEditorQueue(ctx context.Context, actor *auth.Context) ([]dto.ManuscriptResponse, error) {
	if err := auth.RequireRole(actor, entity.RoleEditor); err != nil {
		return nil, err
	}

	manuscripts, err := s.repo.FindByStatuses(ctx, []entity.ManuscriptStatus{
		entity.StatusSubmitted,
		entity.StatusInReview,
	})
	if err != nil {
		return nil, err
	}
	return s.buildResponses(ctx, manuscripts, true)
}

func (s *manuscriptService) GetAll(ctx context.Context, actor *auth.Context) ([]dto.ManuscriptResponse, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	manuscripts, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildResponses(ctx, manuscripts, true)
}

func (s *manuscriptService) GetPublished(ctx context.Context, limit int) ([]dto.ManuscriptResponse, error) {
	if limit <= 0 {
		limit = 20
	}

	manuscripts, err := s.repo.FindByStatusLimit(ctx, entity.StatusPublished, limit)
	if err != nil {
		return nil, err
	}
	return s.buildResponses(ctx, manuscripts, true)
}

// GetBySlug serves the public manuscript page. Unknown or unpublished slugs
// yield a nil response rather than an error.
func (s *manuscriptService) GetBySlug(ctx context.Context, slugStr string) (*dto.ManuscriptResponse, error) {
	manuscript, err := s.repo.FindBySlug(ctx, slugStr)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if manuscript.Status != entity.StatusPublished {
		return nil, nil
	}

	return s.buildResponse(ctx, manuscript, true)
}

func (s *manuscriptService) buildResponses(ctx context.Context, manuscripts []entity.Manuscript, withAuthors bool) ([]dto.ManuscriptResponse, error) {
	responses := make([]dto.ManuscriptResponse, 0, len(manuscripts))
	for i := range manuscripts {
		resp, err := s.buildResponse(ctx, &manuscripts[i], withAuthors)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}
	return responses, nil
}

func (s *manuscriptService) buildResponse(ctx context.Context, manuscript *entity.Manuscript, withAuthors bool) (*dto.ManuscriptResponse, error) {
	resp := &dto.ManuscriptResponse{
		ID:        manuscript.ID,
		Title:     manuscript.Title,
		Abstract:  manuscript.Abstract,
		Keywords:  manuscript.Keywords,
		Language:  manuscript.Language,
		Status:    string(manuscript.Status),
		Slug:      manuscript.Slug,
		FileURL:   s.storage.ResolveURL(manuscript.FileRef),
		CreatedAt: manuscript.CreatedAt,
	}

	if withAuthors {
		authorIDs, err := s.repo.FindAuthorIDs(ctx, manuscript.ID)
		if err != nil {
			return nil, err
		}
		for _, authorID := range authorIDs {
			info := dto.AuthorInfo{ID: authorID, Name: "Unknown Author"}
			if user, err := s.userRepo.FindByID(ctx, authorID); err == nil {
				info.Name = user.Name
				if user.Profile != nil {
					if user.Profile.Name != "" {
						info.Name = user.Profile.Name
					}
					info.Orcid = user.Profile.Orcid
				}
			}
			resp.Authors = append(resp.Authors, info)
		}
	}

	return resp, nil
}
