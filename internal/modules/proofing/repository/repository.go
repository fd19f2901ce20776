package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/entity"
)

type ProofingRepository interface {
	Create(ctx context.Context, task *entity.ProofingTask) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ProofingTask, error)
	FindByManuscriptID(ctx context.Context, manuscriptID uuid.UUID) (*entity.ProofingTask, error)
	FindOpenTasks(ctx context.Context) ([]entity.ProofingTask, error)
	Save(ctx context.Context, task *entity.ProofingTask) error
}

type proofingRepository struct {
	db *gorm.DB
}

func NewProofingRepository(db *gorm.DB) ProofingRepository {
	return &proofingRepository{db: db}
}

func (r *proofingRepository) Create(ctx context.Context, task *entity.ProofingTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *proofingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ProofingTask, error) {
	var task entity.ProofingTask
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *proofingRepository) FindByManuscriptID(ctx context.Context, manuscriptID uuid.UUID) (*entity.ProofingTask, error) {
	var task entity.ProofingTask
	if err := r.db.WithContext(ctx).Where("manuscript_id = ?", manuscriptID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindOpenTasks returns pending and completed tasks, newest first. Published
// tasks have left the proofing desk and are not listed.
func (r *proofingRepository) FindOpenTasks(ctx context.Context) ([]entity.ProofingTask, error) {
	var tasks []entity.ProofingTask
	err := r.db.WithContext(ctx).
		Where("status IN ?", []entity.ProofingStatus{entity.ProofingPending, entity.ProofingCompleted}).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *proofingRepository) Save(ctx context.Context, task *entity.ProofingTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}
