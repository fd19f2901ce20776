package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/entity"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	FindByManuscript(ctx context.Context, manuscriptID uuid.UUID) ([]entity.Review, error)
	FindByReviewer(ctx context.Context, reviewerID uuid.UUID) ([]entity.Review, error)
	FindByManuscriptAndReviewer(ctx context.Context, manuscriptID, reviewerID uuid.UUID) (*entity.Review, error)
	CountByManuscript(ctx context.Context, manuscriptID uuid.UUID) (int64, error)
	FindAll(ctx context.Context) ([]entity.Review, error)
	Save(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOverduePending(ctx context.Context, now time.Time, limit int) ([]entity.Review, error)
	CreateAudit(ctx context.Context, audit *entity.ReviewAudit) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	var review entity.Review
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) FindByManuscript(ctx context.Context, manuscriptID uuid.UUID) ([]entity.Review, error) {
	var reviews []entity.Review
	err := r.db.WithContext(ctx).Where("manuscript_id = ?", manuscriptID).Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepository) FindByReviewer(ctx context.Context, reviewerID uuid.UUID) ([]entity.Review, error) {
	var reviews []entity.Review
	err := r.db.WithContext(ctx).
		Where("reviewer_id = ?", reviewerID).
		Order("deadline ASC").
		Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepository) FindByManuscriptAndReviewer(ctx context.Context, manuscriptID, reviewerID uuid.UUID) (*entity.Review, error) {
	var review entity.Review
	if err := r.db.WithContext(ctx).
		Where("manuscript_id = ? AND reviewer_id = ?", manuscriptID, reviewerID).
		First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) CountByManuscript(ctx context.Context, manuscriptID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Review{}).
		Where("manuscript_id = ?", manuscriptID).
		Count(&count).Error
	return count, err
}

func (r *reviewRepository) FindAll(ctx context.Context) ([]entity.Review, error) {
	var reviews []entity.Review
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepository) Save(ctx context.Context, review *entity.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Review{}, "id = ?", id).Error
}

func (r *reviewRepository) FindOverduePending(ctx context.Context, now time.Time, limit int) ([]entity.Review, error) {
	var reviews []entity.Review
	err := r.db.WithContext(ctx).
		Where("status = ? AND deadline < ?", entity.ReviewPending, now).
		Order("deadline ASC").
		Limit(limit).
		Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepository) CreateAudit(ctx context.Context, audit *entity.ReviewAudit) error {
	return r.db.WithContext(ctx).Create(audit).Error
}
