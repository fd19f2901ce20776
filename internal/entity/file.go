package entity

import (
	"time"

	"github.com/google/uuid"
)

// FileUpload records a blob uploaded through the two-phase protocol. The
// returned reference is what mutations accept; the bytes never travel
// through a workflow mutation.
type FileUpload struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	FileRef   string    `gorm:"type:text;not null" json:"file_ref"`
	FileName  string    `gorm:"size:255" json:"file_name"`
	FileType  string    `gorm:"size:100" json:"file_type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
