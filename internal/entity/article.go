package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Article is the published, citable projection of a manuscript. Fields are
// copied at publish time and immutable afterwards.
type Article struct {
	ID                   uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title                string                      `gorm:"size:255;not null" json:"title"`
	Abstract             string                      `gorm:"type:text;not null" json:"abstract"`
	Keywords             datatypes.JSONSlice[string] `json:"keywords"`
	Language             string                      `gorm:"size:50;not null" json:"language"`
	FinalFileRef         string                      `gorm:"type:text;not null" json:"-"`
	OriginalManuscriptID uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex" json:"original_manuscript_id"`
	Slug                 string                      `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	PublishedAt          time.Time                   `gorm:"not null;index" json:"published_at"`
	PublishedBy          uuid.UUID                   `gorm:"type:uuid;not null" json:"published_by"`
	Doi                  *string                     `gorm:"size:100" json:"doi,omitempty"`
	Volume               *string                     `gorm:"size:50" json:"volume,omitempty"`
	Issue                *string                     `gorm:"size:50" json:"issue,omitempty"`
	PageNumbers          *string                     `gorm:"size:50" json:"page_numbers,omitempty"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
