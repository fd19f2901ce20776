package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"openjournal.app/backend/internal/entity"
)

type ManuscriptRepository interface {
	Create(ctx context.Context, manuscript *entity.Manuscript) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Manuscript, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Manuscript, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	FindByStatuses(ctx context.Context, statuses []entity.ManuscriptStatus) ([]entity.Manuscript, error)
	FindByStatusLimit(ctx context.Context, status entity.ManuscriptStatus, limit int) ([]entity.Manuscript, error)
	FindByAuthor(ctx context.Context, authorID uuid.UUID) ([]entity.Manuscript, error)
	FindAll(ctx context.Context) ([]entity.Manuscript, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Manuscript, error)
	SearchByText(ctx context.Context, query string, limit, offset int) ([]entity.Manuscript, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ManuscriptStatus) error

	CreateAuthorLink(ctx context.Context, link *entity.ManuscriptAuthor) error
	FindAuthorIDs(ctx context.Context, manuscriptID uuid.UUID) ([]uuid.UUID, error)

	CreateDecision(ctx context.Context, decision *entity.EditorialDecision) error
	FindDecisions(ctx context.Context, manuscriptID uuid.UUID) ([]entity.EditorialDecision, error)
}

type manuscriptRepository struct {
	db *gorm.DB
}

func NewManuscriptRepository(db *gorm.DB) ManuscriptRepository {
	return &manuscriptRepository{db: db}
}

func (r *manuscriptRepository) Create(ctx context.Context, manuscript *entity.Manuscript) error {
	return r.db.WithContext(ctx).Create(manuscript).Error
}

func (r *manuscriptRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Manuscript, error) {
	var manuscript entity.Manuscript
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&manuscript).Error; err != nil {
		return nil, err
	}
	return &manuscript, nil
}

func (r *manuscriptRepository) FindBySlug(ctx context.Context, slug string) (*entity.Manuscript, error) {
	var manuscript entity.Manuscript
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&manuscript).Error; err != nil {
		return nil, err
	}
	return &manuscript, nil
}

func (r *manuscriptRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Manuscript{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *manuscriptRepository) FindByStatuses(ctx context.Context, statuses []entity.ManuscriptStatus) ([]entity.Manuscript, error) {
	var manuscripts []entity.Manuscript
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at DESC").
		Find(&manuscripts).Error
	return manuscripts, err
}

func (r *manuscriptRepository) FindByStatusLimit(ctx context.Context, status entity.ManuscriptStatus, limit int) ([]entity.Manuscript, error) {
	var manuscripts []entity.Manuscript
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Find(&manuscripts).Error
	return manuscripts, err
}

func (r *manuscriptRepository) FindByAuthor(ctx context.Context, authorID uuid.UUID) ([]entity.Manuscript, error) {
	var manuscripts []entity.Manuscript
	err := r.db.WithContext(ctx).
		Joins("JOIN manuscript_authors ON manuscript_authors.manuscript_id = manuscripts.id").
		Where("manuscript_authors.author_id = ?", authorID).
		Order("manuscripts.created_at DESC").
		Find(&manuscripts).Error
	return manuscripts, err
}

func (r *manuscriptRepository) FindAll(ctx context.Context) ([]entity.Manuscript, error) {
	var manuscripts []entity.Manuscript
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&manuscripts).Error
	return manuscripts, err
}

func (r *manuscriptRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Manuscript, error) {
	if len(ids) == 0 {
		return []entity.Manuscript{}, nil
	}
	var manuscripts []entity.Manuscript
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&manuscripts).Error
	return manuscripts, err
}

// SearchByText is the fallback used when the search index is unavailable.
func (r *manuscriptRepository) SearchByText(ctx context.Context, query string, limit, offset int) ([]entity.Manuscript, int64, error) {
	pattern := "%" + query + "%"
	base := r.db.WithContext(ctx).
		Model(&entity.Manuscript{}).
		Where("title LIKE ? OR abstract LIKE ?", pattern, pattern)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var manuscripts []entity.Manuscript
	err := base.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&manuscripts).Error
	return manuscripts, total, err
}

// UpdateStatus overwrites the lifecycle status. It is called only by the
// workflow services; no HTTP route maps to it directly.
func (r *manuscriptRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ManuscriptStatus) error {
	return r.db.WithContext(ctx).
		Model(&entity.Manuscript{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *manuscriptRepository) CreateAuthorLink(ctx context.Context, link *entity.ManuscriptAuthor) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(link).Error
}

func (r *manuscriptRepository) FindAuthorIDs(ctx context.Context, manuscriptID uuid.UUID) ([]uuid.UUID, error) {
	var links []entity.ManuscriptAuthor
	if err := r.db.WithContext(ctx).
		Where("manuscript_id = ?", manuscriptID).
		Order("created_at ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.AuthorID)
	}
	return ids, nil
}

func (r *manuscriptRepository) CreateDecision(ctx context.Context, decision *entity.EditorialDecision) error {
	return r.db.WithContext(ctx).Create(decision).Error
}

func (r *manuscriptRepository) FindDecisions(ctx context.Context, manuscriptID uuid.UUID) ([]entity.EditorialDecision, error) {
	var decisions []entity.EditorialDecision
	err := r.db.WithContext(ctx).
		Where("manuscript_id = ?", manuscriptID).
		Order("decided_at DESC").
		Find(&decisions).Error
	return decisions, err
}
