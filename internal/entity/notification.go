package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is an in-app event feed entry (decision recorded on your
// manuscript, review assigned to you, ...).
type Notification struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null" json:"entity_id"`
	EntitySlug string    `gorm:"size:255" json:"entity_slug"`
	EntityType string    `gorm:"size:50;not null" json:"entity_type"` // 'manuscript' or 'review'
	Type       string    `gorm:"size:50;not null" json:"type"`        // 'decision', 'review_assigned', ...
	Message    string    `gorm:"type:text" json:"message"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// EmailOutbox rows are written in the same transaction as the state change
// that triggered them; a separate dispatcher delivers and retries. DedupKey
// makes repeated enqueues of the same logical notification no-ops.
type EmailOutbox struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Email         string       `gorm:"size:100;not null" json:"email"`
	Subject       string       `gorm:"size:255;not null" json:"subject"`
	Body          string       `gorm:"type:text;not null" json:"body"`
	DedupKey      *string      `gorm:"size:255;uniqueIndex" json:"dedup_key,omitempty"`
	Status        OutboxStatus `gorm:"size:20;not null;index;default:pending" json:"status"`
	Attempts      int          `gorm:"default:0" json:"attempts"`
	NextAttemptAt time.Time    `gorm:"index" json:"next_attempt_at"`
	LastError     *string      `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
	SentAt        *time.Time   `json:"sent_at,omitempty"`
}
