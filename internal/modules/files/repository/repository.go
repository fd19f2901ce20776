package repository

import (
	"context"

	"gorm.io/gorm"
	"openjournal.app/backend/internal/entity"
)

type FileRepository interface {
	Create(ctx context.Context, upload *entity.FileUpload) error
}

type fileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(ctx context.Context, upload *entity.FileUpload) error {
	return r.db.WithContext(ctx).Create(upload).Error
}
