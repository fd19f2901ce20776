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
	manuscriptRepo "openjournal.app/backend/internal/modules/manuscript/repository"
	notifService "openjournal.app/backend/internal/modules/notification/service"
	"openjournal.app/backend/internal/modules/review/dto"
	"openjournal.app/backend/internal/modules/review/repository"
	userRepo "openjournal.app/backend/internal/modules/user/repository"
	"openjournal.app/backend/pkg/apperror"
	"openjournal.app/backend/pkg/storage"
)

// reviewThreshold is the assignment count at which a manuscript moves from
// submitted to inReview.
const reviewThreshold = 3

// sweepBatchLimit bounds how many overdue reviews a single sweep run
// processes. The sweep is re-entrant, so the remainder is picked up next run.
const sweepBatchLimit = 200

type ReviewService interface {
	AssignReviewer(ctx context.Context, actor *auth.Context, input dto.AssignReviewerInput) (*dto.ReviewResponse, error)
	RemoveReviewer(ctx context.Context, actor *auth.Context, reviewID uuid.UUID) error
	SubmitReview(ctx context.Context, actor *auth.Context, reviewID uuid.UUID, input dto.SubmitReviewInput) (*dto.ReviewResponse, error)
	GetAssignedReviews(ctx context.Context, actor *auth.Context) ([]dto.AssignedReviewResponse, error)
	GetReview(ctx context.Context, actor *auth.Context, reviewID uuid.UUID) (*dto.AssignedReviewResponse, error)
	GetReviewsForEditor(ctx context.Context, actor *auth.Context) ([]dto.EditorReviewResponse, error)

	// CheckForOverdueReviews is the hourly sweep entry point.
	CheckForOverdueReviews(ctx context.Context) error
}

type reviewService struct {
	repo           repository.ReviewRepository
	manuscriptRepo manuscriptRepo.ManuscriptRepository
	userRepo       userRepo.UserRepository
	notifier       notifService.NotificationService
	outbox         notifService.OutboxService
	storage        storage.FileStorage
}

func NewReviewService(
	repo repository.ReviewRepository,
	mRepo manuscriptRepo.ManuscriptRepository,
	uRepo userRepo.UserRepository,
	notifier notifService.NotificationService,
	outbox notifService.OutboxService,
	fileStorage storage.FileStorage,
) ReviewService {
	return &reviewService{
		repo:           repo,
		manuscriptRepo: mRepo,
		userRepo:       uRepo,
		notifier:       notifier,
		outbox:         outbox,
		storage:        fileStorage,
	}
}

func (s *reviewService) AssignReviewer(ctx context.Context, actor *auth.Context, input dto.AssignReviewerInput) (*dto.ReviewResponse, error) {
	if err := auth.RequireRole(actor, entity.RoleEditor); err != nil {
		return nil, err
	}

	manuscript, err := s.manuscriptRepo.FindByID(ctx, input.ManuscriptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: manuscript", apperror.ErrNotFound)
		}
		return nil, err
	}

	if _, err := s.repo.FindByManuscriptAndReviewer(ctx, input.ManuscriptID, input.ReviewerID); err == nil {
		return nil, fmt.Errorf("%w: this reviewer is already assigned to this manuscript", apperror.ErrInvalidState)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	review := &entity.Review{
		ManuscriptID: input.ManuscriptID,
		ReviewerID:   input.ReviewerID,
		Deadline:     input.Deadline,
		Status:       entity.ReviewPending,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	count, err := s.repo.CountByManuscript(ctx, input.ManuscriptID)
	if err != nil {
		return nil, err
	}
	// Setting the same status twice is harmless, so the count check needs no
	// stronger guard against concurrent assignments.
	if count >= reviewThreshold {
		if err := s.manuscriptRepo.UpdateStatus(ctx, manuscript.ID, entity.StatusInReview); err != nil {
			return nil, err
		}
	}

	notification := &entity.Notification{
		UserID:     input.ReviewerID,
		EntityID:   review.ID,
		EntityType: "review",
		Type:       "review_assigned",
		Message:    fmt.Sprintf("You have been assigned a review due %s", input.Deadline.Format("2006-01-02")),
	}
	if err := s.notifier.Notify(ctx, notification); err != nil {
		log.Printf("Failed to notify reviewer %s: %v", input.ReviewerID, err)
	}

	resp := buildReviewResponse(review)
	return &resp, nil
}

func (s *reviewService) RemoveReviewer(ctx context.Context, actor *auth.Context, reviewID uuid.UUID) error {
	if err := auth.RequireRole(actor, entity.RoleEditor); err != nil {
		return err
	}

	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: review", apperror.ErrNotFound)
		}
		return err
	}

	if err := s.repo.Delete(ctx, reviewID); err != nil {
		return err
	}

	remaining, err := s.repo.CountByManuscript(ctx, review.ManuscriptID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		if err := s.manuscriptRepo.UpdateStatus(ctx, review.ManuscriptID, entity.StatusSubmitted); err != nil {
			return err
		}
	}

	return nil
}

func (s *reviewService) SubmitReview(ctx context.Context, actor *auth.Context, reviewID uuid.UUID, input dto.SubmitReviewInput) (*dto.ReviewResponse, error) {
	if err := auth.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	if input.Score < 1 || input.Score > 10 {
		return nil, fmt.Errorf("%w: score must be between 1 and 10", apperror.ErrValidation)
	}

	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: review", apperror.ErrNotFound)
		}
		return nil, err
	}

	if review.ReviewerID != actor.UserID {
		return nil, fmt.Errorf("%w: you are not authorized to submit this review", apperror.ErrForbidden)
	}

	// Resubmission overwrites, but the prior values are kept in the audit
	// trail.
	if review.Status == entity.ReviewSubmitted {
		audit := &entity.ReviewAudit{
			ReviewID:       review.ID,
			Score:          review.Score,
			CommentsMd:     review.CommentsMd,
			Recommendation: review.Recommendation,
		}
		if err := s.repo.CreateAudit(ctx, audit); err != nil {
			return nil, err
		}
	}

	recommendation := entity.Recommendation(input.Recommendation)
	review.Score = &input.Score
	review.CommentsMd = &input.CommentsMd
	review.Recommendation = &recommendation
	review.Status = entity.ReviewSubmitted
	if err := s.repo.Save(ctx, review); err != nil {
		return nil, err
	}

	resp := buildReviewResponse(review)
	return &resp, nil
}

func (s *reviewService) GetAssignedReviews(ctx context.Context, actor *auth.Context) ([]dto.AssignedReviewResponse, error) {
	if err := auth.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	if !actor.HasRole(entity.RoleReviewer) {
		return []dto.AssignedReviewResponse{}, nil
	}

	reviews, err := s.repo.FindByReviewer(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AssignedReviewResponse, 0, len(reviews))
	for i := range reviews {
		resp, err := s.buildAssignedResponse(ctx, &reviews[i])
		if err != nil {
			// Manuscript deleted out from under the review; skip.
			continue
		}
		responses = append(responses, *resp)
	}
	return responses, nil
}

func (s *reviewService) GetReview(ctx context.Context, actor *auth.Context, reviewID uuid.UUID) (*dto.AssignedReviewResponse, error) {
	if err := auth.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: review", apperror.ErrNotFound)
		}
		return nil, err
	}

	if review.ReviewerID != actor.UserID {
		return nil, fmt.Errorf("%w: you are not authorized to view this review", apperror.ErrForbidden)
	}

	return s.buildAssignedResponse(ctx, review)
}

func (s *reviewService) GetReviewsForEditor(ctx context.Context, actor *auth.Context) ([]dto.EditorReviewResponse, error) {
	if err := auth.RequireRole(actor, entity.RoleEditor); err != nil {
		return nil, err
	}

	reviews, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EditorReviewResponse, 0, len(reviews))
	for i := range reviews {
		review := &reviews[i]

		manuscript, err := s.manuscriptRepo.FindByID(ctx, review.ManuscriptID)
		if err != nil {
			continue
		}

		reviewerName := "Unknown Reviewer"
		if user, err := s.userRepo.FindByID(ctx, review.ReviewerID); err == nil {
			reviewerName = user.Name
			if user.Profile != nil && user.Profile.Name != "" {
				reviewerName = user.Profile.Name
			}
		}

		responses = append(responses, dto.EditorReviewResponse{
			ReviewResponse:  buildReviewResponse(review),
			ReviewerID:      review.ReviewerID,
			ReviewerName:    reviewerName,
			ManuscriptTitle: manuscript.Title,
		})
	}
	return responses, nil
}

// CheckForOverdueReviews enqueues one reminder email per overdue pending
// review per day. The dedup key makes repeated sweeps over the same overdue
// set no-ops.
func (s *reviewService) CheckForOverdueReviews(ctx context.Context) error {
	now := time.Now()
	overdue, err := s.repo.FindOverduePending(ctx, now, sweepBatchLimit)
	if err != nil {
		return err
	}

	for i := range overdue {
		review := &overdue[i]

		reviewer, err := s.userRepo.FindByID(ctx, review.ReviewerID)
		if err != nil {
			log.Printf("Overdue sweep: reviewer %s not found: %v", review.ReviewerID, err)
			continue
		}

		manuscript, err := s.manuscriptRepo.FindByID(ctx, review.ManuscriptID)
		if err != nil {
			log.Printf("Overdue sweep: manuscript %s not found: %v", review.ManuscriptID, err)
			continue
		}

		dedupKey := fmt.Sprintf("overdue-review:%s:%s", review.ID, now.Format("2006-01-02"))
		subject := fmt.Sprintf("Overdue review reminder: %q", manuscript.Title)
		body := fmt.Sprintf(
			"<p>Your review of <strong>%s</strong> was due on %s. Please submit it as soon as possible.</p>",
			manuscript.Title, review.Deadline.Format("2006-01-02"),
		)
		if err := s.outbox.Enqueue(ctx, reviewer.Email, subject, body, &dedupKey); err != nil {
			log.Printf("Overdue sweep: failed to enqueue reminder for review %s: %v", review.ID, err)
		}
	}

	log.Printf("Overdue review sweep processed %d reviews", len(overdue))
	return nil
}

func buildReviewResponse(review *entity.Review) dto.ReviewResponse {
	resp := dto.ReviewResponse{
		ID:           review.ID,
		ManuscriptID: review.ManuscriptID,
		Deadline:     review.Deadline,
		Status:       string(review.Status),
		Score:        review.Score,
		CommentsMd:   review.CommentsMd,
		CreatedAt:    review.CreatedAt,
	}
	if review.Recommendation != nil {
		rec := string(*review.Recommendation)
		resp.Recommendation = &rec
	}
	return resp
}

func (s *reviewService) buildAssignedResponse(ctx context.Context, review *entity.Review) (*dto.AssignedReviewResponse, error) {
	manuscript, err := s.manuscriptRepo.FindByID(ctx, review.ManuscriptID)
	if err != nil {
		return nil, err
	}

	return &dto.AssignedReviewResponse{
		ReviewResponse: buildReviewResponse(review),
		Manuscript: dto.BlindManuscript{
			ID:       manuscript.ID,
			Title:    manuscript.Title,
			Abstract: manuscript.Abstract,
			Keywords: manuscript.Keywords,
			Language: manuscript.Language,
			Status:   string(manuscript.Status),
			FileURL:  s.storage.ResolveURL(manuscript.FileRef),
		},
	}, nil
}
