package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"openjournal.app/backend/internal/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)

	EnqueueEmail(ctx context.Context, email *entity.EmailOutbox) (bool, error)
	FindDueEmails(ctx context.Context, now time.Time, limit int) ([]entity.EmailOutbox, error)
	UpdateEmail(ctx context.Context, email *entity.EmailOutbox) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	var notifications []entity.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.Notification{}).Where("id = ?", id).Update("is_read", true).Error
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// EnqueueEmail inserts an outbox row. Rows with a dedup key that already
// exists are silently skipped; the bool reports whether a row was written.
func (r *notificationRepository) EnqueueEmail(ctx context.Context, email *entity.EmailOutbox) (bool, error) {
	tx := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedup_key"}},
			DoNothing: true,
		}).
		Create(email)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *notificationRepository) FindDueEmails(ctx context.Context, now time.Time, limit int) ([]entity.EmailOutbox, error) {
	var emails []entity.EmailOutbox
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", entity.OutboxPending, now).
		Order("next_attempt_at asc").
		Limit(limit).
		Find(&emails).Error
	return emails, err
}

func (r *notificationRepository) UpdateEmail(ctx context.Context, email *entity.EmailOutbox) error {
	return r.db.WithContext(ctx).Save(email).Error
}
