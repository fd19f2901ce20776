package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/entity"
)

type RoleRequestRepository interface {
	Create(ctx context.Context, request *entity.RoleRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.RoleRequest, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.RoleRequest, error)
	FindAll(ctx context.Context) ([]entity.RoleRequest, error)
	HasPendingForRole(ctx context.Context, userID uuid.UUID, role entity.Role) (bool, error)
	CountPending(ctx context.Context) (int64, error)
	Save(ctx context.Context, request *entity.RoleRequest) error
}

type roleRequestRepository struct {
	db *gorm.DB
}

func NewRoleRequestRepository(db *gorm.DB) RoleRequestRepository {
	return &roleRequestRepository{db: db}
}

func (r *roleRequestRepository) Create(ctx context.Context, request *entity.RoleRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *roleRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.RoleRequest, error) {
	var request entity.RoleRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *roleRequestRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.RoleRequest, error) {
	var requests []entity.RoleRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("requested_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *roleRequestRepository) FindAll(ctx context.Context) ([]entity.RoleRequest, error) {
	var requests []entity.RoleRequest
	err := r.db.WithContext(ctx).Order("requested_at DESC").Find(&requests).Error
	return requests, err
}

func (r *roleRequestRepository) HasPendingForRole(ctx context.Context, userID uuid.UUID, role entity.Role) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.RoleRequest{}).
		Where("user_id = ? AND requested_role = ? AND status = ?", userID, role, entity.RoleRequestPending).
		Count(&count).Error
	return count > 0, err
}

func (r *roleRequestRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.RoleRequest{}).
		Where("status = ?", entity.RoleRequestPending).
		Count(&count).Error
	return count, err
}

func (r *roleRequestRepository) Save(ctx context.Context, request *entity.RoleRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}
