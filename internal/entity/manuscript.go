package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ManuscriptStatus string

const (
	StatusSubmitted      ManuscriptStatus = "submitted"
	StatusInReview       ManuscriptStatus = "inReview"
	StatusAccepted       ManuscriptStatus = "accepted"
	StatusRejected       ManuscriptStatus = "rejected"
	StatusPublished      ManuscriptStatus = "published"
	StatusMajorRevisions ManuscriptStatus = "majorRevisions"
	StatusMinorRevisions ManuscriptStatus = "minorRevisions"
	StatusProofing       ManuscriptStatus = "proofing"
)

type Manuscript struct {
	ID       uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title    string                      `gorm:"size:255;not null" json:"title"`
	Abstract string                      `gorm:"type:text;not null" json:"abstract"`
	Keywords datatypes.JSONSlice[string] `json:"keywords"`
	Language string                      `gorm:"size:50;not null" json:"language"`
	// FileRef is the opaque blob-store reference supplied after the
	// out-of-band upload; the API never moves bytes inside a mutation.
	FileRef   string           `gorm:"type:text;not null" json:"-"`
	Status    ManuscriptStatus `gorm:"size:20;not null;index" json:"status"`
	Slug      *string          `gorm:"size:255;uniqueIndex" json:"slug,omitempty"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *Manuscript) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}

// ManuscriptAuthor links a manuscript to one of its authors. Currently only
// the submitter is linked at submission time.
type ManuscriptAuthor struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ManuscriptID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_manuscript_author" json:"manuscript_id"`
	AuthorID     uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_manuscript_author" json:"author_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type DecisionKind string

const (
	DecisionProofing       DecisionKind = "proofing"
	DecisionMinorRevisions DecisionKind = "minorRevisions"
	DecisionMajorRevisions DecisionKind = "majorRevisions"
	DecisionReject         DecisionKind = "reject"
)

// EditorialDecision is an append-only audit record; rows are never updated
// or deleted.
type EditorialDecision struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ManuscriptID uuid.UUID    `gorm:"type:uuid;not null;index" json:"manuscript_id"`
	EditorID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"editor_id"`
	Decision     DecisionKind `gorm:"size:20;not null" json:"decision"`
	Comments     *string      `gorm:"type:text" json:"comments,omitempty"`
	DecidedAt    time.Time    `gorm:"not null" json:"decided_at"`
}

func (d *EditorialDecision) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
