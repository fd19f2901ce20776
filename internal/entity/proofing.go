package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProofingStatus string

const (
	ProofingPending   ProofingStatus = "pending"   // waiting for proofed file upload
	ProofingCompleted ProofingStatus = "completed" // proofed file uploaded, ready to publish
	ProofingPublished ProofingStatus = "published" // article has been published
)

// ProofingTask covers the copy-editing step between acceptance and
// publication. One task per manuscript; creation is idempotent.
type ProofingTask struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ManuscriptID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"manuscript_id"`
	EditorID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"editor_id"`
	Status        ProofingStatus `gorm:"size:20;not null;index" json:"status"`
	ProofedRef    *string        `gorm:"type:text" json:"-"`
	ProofingNotes *string        `gorm:"type:text" json:"proofing_notes,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	PublishedAt   *time.Time     `json:"published_at,omitempty"`
}

func (t *ProofingTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
