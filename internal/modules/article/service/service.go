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
	"openjournal.app/backend/internal/modules/article/dto"
	"openjournal.app/backend/internal/modules/article/repository"
	manuscriptRepo "openjournal.app/backend/internal/modules/manuscript/repository"
	proofingRepo "openjournal.app/backend/internal/modules/proofing/repository"
	searchService "openjournal.app/backend/internal/modules/search/service"
	userRepo "openjournal.app/backend/internal/modules/user/repository"
	"openjournal.app/backend/pkg/apperror"
	"openjournal.app/backend/pkg/slug"
	"openjournal.app/backend/pkg/storage"
)

type ArticleService interface {
	PublishArticle(ctx context.Context, actor *auth.Context, input dto.PublishArticleInput) (*dto.ArticleResponse, error)
	GetPublishedArticles(ctx context.Context, limit int) ([]dto.ArticleResponse, error)
	// GetArticleBySlug returns nil for an unknown slug.
	GetArticleBySlug(ctx context.Context, slugStr string) (*dto.ArticleResponse, error)
	SearchArticles(ctx context.Context, query string, limit int) ([]dto.ArticleResponse, error)
}

type articleService struct {
	repo           repository.ArticleRepository
	proofingRepo   proofingRepo.ProofingRepository
	manuscriptRepo manuscriptRepo.ManuscriptRepository
	userRepo       userRepo.UserRepository
	search         searchService.SearchService
	storage        storage.FileStorage
}

func NewArticleService(
	repo repository.ArticleRepository,
	pRepo proofingRepo.ProofingRepository,
	mRepo manuscriptRepo.ManuscriptRepository,
	uRepo userRepo.UserRepository,
	search searchService.SearchService,
	fileStorage storage.FileStorage,
) ArticleService {
	return &articleService{
		repo:           repo,
		proofingRepo:   pRepo,
		manuscriptRepo: mRepo,
		userRepo:       uRepo,
		search:         search,
		storage:        fileStorage,
	}
}

func (s *articleService) PublishArticle(ctx context.Context, actor *auth.Context, input dto.PublishArticleInput) (*dto.ArticleResponse, error) {
	if err := auth.RequireRole(actor, entity.RoleEditor); err != nil {
		return nil, err
	}

	task, err := s.proofingRepo.FindByID(ctx, input.ProofingTaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: proofing task", apperror.ErrNotFound)
		}
		return nil, err
	}

	if task.Status != entity.ProofingCompleted {
		return nil, fmt.Errorf("%w: proofing task must be completed before publishing", apperror.ErrInvalidState)
	}
	if task.ProofedRef == nil {
		return nil, fmt.Errorf("%w: no proofed file available", apperror.ErrInvalidState)
	}

	manuscript, err := s.manuscriptRepo.FindByID(ctx, task.ManuscriptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: manuscript", apperror.ErrNotFound)
		}
		return nil, err
	}

	// The article inherits the manuscript slug; a manuscript without one
	// gets a fresh slug deduplicated against the article collection.
	var articleSlug string
	if manuscript.Slug != nil && *manuscript.Slug != "" {
		articleSlug = *manuscript.Slug
	} else {
		articleSlug, err = slug.MakeUnique(manuscript.Title, func(candidate string) (bool, error) {
			return s.repo.SlugExists(ctx, candidate)
		})
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	article := &entity.Article{
		Title:                manuscript.Title,
		Abstract:             manuscript.Abstract,
		Keywords:             manuscript.Keywords,
		Language:             manuscript.Language,
		FinalFileRef:         *task.ProofedRef,
		OriginalManuscriptID: manuscript.ID,
		Slug:                 articleSlug,
		PublishedAt:          now,
		PublishedBy:          actor.UserID,
		Doi:                  input.Doi,
		Volume:               input.Volume,
		Issue:                input.Issue,
		PageNumbers:          input.PageNumbers,
	}
	if err := s.repo.Create(ctx, article); err != nil {
		return nil, err
	}

	task.Status = entity.ProofingPublished
	task.PublishedAt = &now
	if err := s.proofingRepo.Save(ctx, task); err != nil {
		return nil, err
	}

	if err := s.manuscriptRepo.UpdateStatus(ctx, manuscript.ID, entity.StatusPublished); err != nil {
		return nil, err
	}

	resp, err := s.buildResponse(ctx, article)
	if err != nil {
		return nil, err
	}

	authorNames := make([]string, 0, len(resp.Authors))
	for _, a := range resp.Authors {
		authorNames = append(authorNames, a.Name)
	}
	if err := s.search.IndexArticle(article, authorNames); err != nil {
		log.Printf("Failed to index article %s: %v", article.ID, err)
	}

	return resp, nil
}

func (s *articleService) GetPublishedArticles(ctx context.Context, limit int) ([]dto.ArticleResponse, error) {
	if limit <= 0 {
		limit = 20
	}

	articles, err := s.repo.FindRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.buildResponses(ctx, articles)
}

func (s *articleService) GetArticleBySlug(ctx context.Context, slugStr string) (*dto.ArticleResponse, error) {
	article, err := s.repo.FindBySlug(ctx, slugStr)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.buildResponse(ctx, article)
}

// SearchArticles queries the search index and falls back to a LIKE scan
// when the index is not configured.
func (s *articleService) SearchArticles(ctx context.Context, query string, limit int) ([]dto.ArticleResponse, error) {
	if limit <= 0 {
		limit = 20
	}

	ids, indexed, err := s.search.SearchArticles(query, limit)
	if err != nil {
		log.Printf("Article search index query failed, falling back to scan: %v", err)
		indexed = false
	}

	var articles []entity.Article
	if indexed {
		parsed := make([]uuid.UUID, 0, len(ids))
		for _, id := range ids {
			if u, err := uuid.Parse(id); err == nil {
				parsed = append(parsed, u)
			}
		}
		articles, err = s.repo.FindByIDs(ctx, parsed)
	} else {
		articles, err = s.repo.SearchByText(ctx, query, limit)
	}
	if err != nil {
		return nil, err
	}

	return s.buildResponses(ctx, articles)
}

func (s *articleService) buildResponses(ctx context.Context, articles []entity.Article) ([]dto.ArticleResponse, error) {
	responses := make([]dto.ArticleResponse, 0, len(articles))
	for i := range articles {
		resp, err := s.buildResponse(ctx, &articles[i])
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}
	return responses, nil
}

func (s *articleService) buildResponse(ctx context.Context, article *entity.Article) (*dto.ArticleResponse, error) {
	authorIDs, err := s.manuscriptRepo.FindAuthorIDs(ctx, article.OriginalManuscriptID)
	if err != nil {
		return nil, err
	}

	authors := make([]dto.ArticleAuthor, 0, len(authorIDs))
	for _, authorID := range authorIDs {
		author := dto.ArticleAuthor{ID: authorID, Name: "Unknown Author"}
		if user, err := s.userRepo.FindByID(ctx, authorID); err == nil {
			author.Name = user.Name
			if user.Profile != nil {
				if user.Profile.Name != "" {
					author.Name = user.Profile.Name
				}
				author.Orcid = user.Profile.Orcid
			}
		}
		authors = append(authors, author)
	}

	return &dto.ArticleResponse{
		ID:                   article.ID,
		Title:                article.Title,
		Abstract:             article.Abstract,
		Keywords:             article.Keywords,
		Language:             article.Language,
		Slug:                 article.Slug,
		OriginalManuscriptID: article.OriginalManuscriptID,
		Authors:              authors,
		FileURL:              s.storage.ResolveURL(article.FinalFileRef),
		PublishedAt:          article.PublishedAt,
		Doi:                  article.Doi,
		Volume:               article.Volume,
		Issue:                article.Issue,
		PageNumbers:          article.PageNumbers,
	}, nil
}
