package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/auth"
	articledto "openjournal.app/backend/internal/modules/article/dto"
	articleservice "openjournal.app/backend/internal/modules/article/service"
	"openjournal.app/backend/internal/modules/gateway/dto"
	manuscriptdto "openjournal.app/backend/internal/modules/manuscript/dto"
	manuscriptrepo "openjournal.app/backend/internal/modules/manuscript/repository"
	manuscriptservice "openjournal.app/backend/internal/modules/manuscript/service"
	notifservice "openjournal.app/backend/internal/modules/notification/service"
	proofingrepo "openjournal.app/backend/internal/modules/proofing/repository"
	reviewdto "openjournal.app/backend/internal/modules/review/dto"
	reviewservice "openjournal.app/backend/internal/modules/review/service"
	searchservice "openjournal.app/backend/internal/modules/search/service"
	userrepo "openjournal.app/backend/internal/modules/user/repository"
	"openjournal.app/backend/internal/entity"
	"openjournal.app/backend/pkg/apperror"
)

const (
	defaultPageSize        = 10
	maxPageSize            = 50
	defaultReviewDeadline  = 14 * 24 * time.Hour
	indexedSearchWindowCap = 200
)

// GatewayService adapts the editorial workflow for the machine-facing API.
// Every call runs as the resolved service account, so the underlying
// services apply the same role checks as the human-facing routes.
type GatewayService interface {
	SubmitManuscript(ctx context.Context, actor *auth.Context, input dto.GatewaySubmitInput) (*manuscriptdto.ManuscriptResponse, error)
	SearchManuscripts(ctx context.Context, actor *auth.Context, query string, cursor *int, limit int) (*dto.ManuscriptPage, error)
	GetManuscript(ctx context.Context, actor *auth.Context, id uuid.UUID) (*dto.ManuscriptSummary, error)
	AssignReviewers(ctx context.Context, actor *auth.Context, manuscriptID uuid.UUID, input dto.GatewayAssignReviewersInput) ([]dto.AssignReviewerResult, error)
	SubmitReview(ctx context.Context, actor *auth.Context, reviewID uuid.UUID, input reviewdto.SubmitReviewInput) (*reviewdto.ReviewResponse, error)
	MakeDecision(ctx context.Context, actor *auth.Context, manuscriptID uuid.UUID, input dto.GatewayDecisionInput) (*manuscriptdto.DecisionResponse, error)
	PublishManuscript(ctx context.Context, actor *auth.Context, manuscriptID uuid.UUID, input dto.GatewayPublishInput) (*articledto.ArticleResponse, error)
	SearchArticles(ctx context.Context, query string, limit int) ([]articledto.ArticleResponse, error)
	NotifyUser(ctx context.Context, actor *auth.Context, input dto.GatewayNotifyInput) error
}

type gatewayService struct {
	manuscripts    manuscriptservice.ManuscriptService
	manuscriptRepo manuscriptrepo.ManuscriptRepository
	reviews        reviewservice.ReviewService
	articles       articleservice.ArticleService
	proofingRepo   proofingrepo.ProofingRepository
	userRepo       userrepo.UserRepository
	outbox         notifservice.OutboxService
	search         searchservice.SearchService
}

func NewGatewayService(
	manuscripts manuscriptservice.ManuscriptService,
	manuscriptRepo manuscriptrepo.ManuscriptRepository,
	reviews reviewservice.ReviewService,
	articles articleservice.ArticleService,
	proofingRepo proofingrepo.ProofingRepository,
	userRepo userrepo.UserRepository,
	outbox notifservice.OutboxService,
	search searchservice.SearchService,
) GatewayService {
	return &gatewayService{
		manuscripts:    manuscripts,
		manuscriptRepo: manuscriptRepo,
		reviews:        reviews,
		articles:       articles,
		proofingRepo:   proofingRepo,
		userRepo:       userRepo,
		outbox:         outbox,
		search:         search,
	}
}

func (s *gatewayService) SubmitManuscript(ctx context.Context, actor *auth.Context, input dto.GatewaySubmitInput) (*manuscriptdto.ManuscriptResponse, error) {
	return s.manuscripts.Submit(ctx, actor, manuscriptdto.SubmitManuscriptInput{
		Title:    input.Title,
		Abstract: input.Abstract,
		Keywords: input.Keywords,
		Language: input.Language,
		FileRef:  input.FileRef,
	})
}

func (s *gatewayService) SearchManuscripts(ctx context.Context, actor *auth.Context, query string, cursor *int, limit int) (*dto.ManuscriptPage, error) {
	if err := auth.RequireRole(actor, entity.RoleEditor); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := 0
	if cursor != nil {
		if *cursor < 0 {
			return nil, fmt.Errorf("%w: invalid cursor", apperror.ErrBadRequest)
		}
		offset = *cursor
	}

	if query != "" {
		window := offset + limit
		if window > indexedSearchWindowCap {
			window = indexedSearchWindowCap
		}
		ids, indexed, err := s.search.SearchManuscripts(query, window+1)
		if err == nil && indexed {
			return s.pageFromIndexedIDs(ctx, ids, offset, limit)
		}
	}

	manuscripts, total, err := s.manuscriptRepo.SearchByText(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.buildPage(manuscripts, total, offset, limit), nil
}

// pageFromIndexedIDs pages over the id list the search index returned. The
// index is queried one past the window, so totals beyond the window cap are
// reported as the cap.
func (s *gatewayService) pageFromIndexedIDs(ctx context.Context, idStrs []string, offset, limit int) (*dto.ManuscriptPage, error) {
	ids := make([]uuid.UUID, 0, len(idStrs))
	for _, idStr := range idStrs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	total := int64(len(ids))
	if offset >= len(ids) {
		return &dto.ManuscriptPage{
			Results:    []dto.ManuscriptSummary{},
			Pagination: dto.Pagination{HasMore: false, Total: total},
		}, nil
	}

	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	pageIDs := ids[offset:end]

	manuscripts, err := s.manuscriptRepo.FindByIDs(ctx, pageIDs)
	if err != nil {
		return nil, err
	}

	// FindByIDs does not preserve order, so restore the index ranking.
	byID := make(map[uuid.UUID]entity.Manuscript, len(manuscripts))
	for _, m := range manuscripts {
		byID[m.ID] = m
	}
	ordered := make([]entity.Manuscript, 0, len(pageIDs))
	for _, id := range pageIDs {
		if m, ok := byID[id]; ok {
			ordered = append(ordered, m)
		}
	}

	return s.buildPage(ordered, total, offset, limit), nil
}

func (s *gatewayService) buildPage(manuscripts []entity.Manuscript, total int64, offset, limit int) *dto.ManuscriptPage {
	results := make([]dto.ManuscriptSummary, 0, len(manuscripts))
	for i := range manuscripts {
		results = append(results, summarize(&manuscripts[i]))
	}

	page := &dto.ManuscriptPage{
		Results: results,
		Pagination: dto.Pagination{
			HasMore: int64(offset+len(results)) < total,
			Total:   total,
		},
	}
	if page.Pagination.HasMore {
		next := fmt.Sprintf("%d", offset+limit)
		page.Pagination.Cursor = &next
	}
	return page
}

func summarize(m *entity.Manuscript) dto.ManuscriptSummary {
	return dto.ManuscriptSummary{
		ID:        m.ID,
		Title:     m.Title,
		Abstract:  m.Abstract,
		Keywords:  m.Keywords,
		Language:  m.Language,
		Status:    string(m.Status),
		Slug:      m.Slug,
		CreatedAt: m.CreatedAt,
	}
}

func (s *gatewayService) GetManuscript(ctx context.Context, actor *auth.Context, id uuid.UUID) (*dto.ManuscriptSummary, error) {
	if err := auth.RequireRole(actor, entity.RoleEditor); err != nil {
		return nil, err
	}

	manuscript, err := s.manuscriptRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: manuscript not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	summary := summarize(manuscript)
	return &summary, nil
}

func (s *gatewayService) AssignReviewers(ctx context.Context, actor *auth.Context, manuscriptID uuid.UUID, input dto.GatewayAssignReviewersInput) ([]dto.AssignReviewerResult, error) {
	deadline := time.Now().Add(defaultReviewDeadline)
	if input.Deadline != nil {
		deadline = *input.Deadline
	}

	results := make([]dto.AssignReviewerResult, 0, len(input.ReviewerEmails))
	for _, email := range input.ReviewerEmails {
		result := dto.AssignReviewerResult{Email: email}

		user, err := s.userRepo.FindByEmail(ctx, email)
		if err != nil {
			msg := "no account with this email"
			result.Error = &msg
			results = append(results, result)
			continue
		}

		review, err := s.reviews.AssignReviewer(ctx, actor, reviewdto.AssignReviewerInput{
			ManuscriptID: manuscriptID,
			ReviewerID:   user.ID,
			Deadline:     deadline,
		})
		if err != nil {
			msg := err.Error()
			result.Error = &msg
			results = append(results, result)
			continue
		}

		result.ReviewID = &review.ID
		results = append(results, result)
	}
	return results, nil
}

func (s *gatewayService) SubmitReview(ctx context.Context, actor *auth.Context, reviewID uuid.UUID, input reviewdto.SubmitReviewInput) (*reviewdto.ReviewResponse, error) {
	return s.reviews.SubmitReview(ctx, actor, reviewID, input)
}

// MakeDecision translates the gateway's coarse decision vocabulary into the
// editorial decision kinds. A bare "revise" always means major revisions.
func (s *gatewayService) MakeDecision(ctx context.Context, actor *auth.Context, manuscriptID uuid.UUID, input dto.GatewayDecisionInput) (*manuscriptdto.DecisionResponse, error) {
	var decision string
	switch input.Decision {
	case "accept":
		decision = string(entity.DecisionProofing)
	case "reject":
		decision = string(entity.DecisionReject)
	case "revise":
		decision = string(entity.DecisionMajorRevisions)
	default:
		return nil, fmt.Errorf("%w: unknown decision %q", apperror.ErrBadRequest, input.Decision)
	}

	return s.manuscripts.MakeDecision(ctx, actor, manuscriptID, manuscriptdto.DecisionInput{
		Decision: decision,
		Comments: input.Comments,
	})
}

func (s *gatewayService) PublishManuscript(ctx context.Context, actor *auth.Context, manuscriptID uuid.UUID, input dto.GatewayPublishInput) (*articledto.ArticleResponse, error) {
	task, err := s.proofingRepo.FindByManuscriptID(ctx, manuscriptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no proofing task for this manuscript", apperror.ErrNotFound)
		}
		return nil, err
	}

	return s.articles.PublishArticle(ctx, actor, articledto.PublishArticleInput{
		ProofingTaskID: task.ID,
		Doi:            input.Doi,
		Volume:         input.Volume,
		Issue:          input.Issue,
		PageNumbers:    input.PageNumbers,
	})
}

func (s *gatewayService) SearchArticles(ctx context.Context, query string, limit int) ([]articledto.ArticleResponse, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return s.articles.SearchArticles(ctx, query, limit)
}

func (s *gatewayService) NotifyUser(ctx context.Context, actor *auth.Context, input dto.GatewayNotifyInput) error {
	if err := auth.RequireRole(actor, entity.RoleEditor); err != nil {
		return err
	}

	user, err := s.userRepo.FindByEmail(ctx, input.UserEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no account with this email", apperror.ErrNotFound)
		}
		return err
	}

	return s.outbox.Enqueue(ctx, user.Email, input.Subject, input.Body, nil)
}
