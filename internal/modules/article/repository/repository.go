package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/entity"
)

type ArticleRepository interface {
	Create(ctx context.Context, article *entity.Article) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Article, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Article, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Article, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	FindRecent(ctx context.Context, limit int) ([]entity.Article, error)
	SearchByText(ctx context.Context, query string, limit int) ([]entity.Article, error)
}

type articleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *entity.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

func (r *articleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Article, error) {
	var article entity.Article
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) FindBySlug(ctx context.Context, slug string) (*entity.Article, error) {
	var article entity.Article
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Article, error) {
	if len(ids) == 0 {
		return []entity.Article{}, nil
	}
	var articles []entity.Article
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&articles).Error
	return articles, err
}

func (r *articleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Article{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *articleRepository) FindRecent(ctx context.Context, limit int) ([]entity.Article, error) {
	var articles []entity.Article
	err := r.db.WithContext(ctx).
		Order("published_at DESC").
		Limit(limit).
		Find(&articles).Error
	return articles, err
}

// SearchByText is the fallback used when the search index is unavailable.
func (r *articleRepository) SearchByText(ctx context.Context, query string, limit int) ([]entity.Article, error) {
	var articles []entity.Article
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("title LIKE ? OR abstract LIKE ?", pattern, pattern).
		Order("published_at DESC").
		Limit(limit).
		Find(&articles).Error
	return articles, err
}
