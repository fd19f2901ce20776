package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewSubmitted ReviewStatus = "submitted"
)

type Recommendation string

const (
	RecommendAccept Recommendation = "accept"
	RecommendMinor  Recommendation = "minor"
	RecommendMajor  Recommendation = "major"
	RecommendReject Recommendation = "reject"
)

// Review is a reviewer assignment plus, once submitted, the captured score
// and recommendation. At most one review exists per (manuscript, reviewer).
type Review struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ManuscriptID   uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_manuscript_reviewer" json:"manuscript_id"`
	ReviewerID     uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_manuscript_reviewer" json:"reviewer_id"`
	Deadline       time.Time       `gorm:"not null;index" json:"deadline"`
	Status         ReviewStatus    `gorm:"size:20;not null;index" json:"status"`
	Score          *int            `json:"score,omitempty"`
	CommentsMd     *string         `gorm:"type:text" json:"comments_md,omitempty"`
	Recommendation *Recommendation `gorm:"size:20" json:"recommendation,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ReviewAudit preserves the previous values when a reviewer overwrites an
// already-submitted review. Resubmission stays permissive, but not silent.
type ReviewAudit struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ReviewID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"review_id"`
	Score          *int            `json:"score,omitempty"`
	CommentsMd     *string         `gorm:"type:text" json:"comments_md,omitempty"`
	Recommendation *Recommendation `gorm:"size:20" json:"recommendation,omitempty"`
	ReplacedAt     time.Time       `gorm:"autoCreateTime" json:"replaced_at"`
}
