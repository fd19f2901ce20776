package dto

import (
	"time"

	"github.com/google/uuid"
)

type AssignReviewerInput struct {
	ManuscriptID uuid.UUID `json:"manuscript_id" binding:"required"`
	ReviewerID   uuid.UUID `json:"reviewer_id" binding:"required"`
	Deadline     time.Time `json:"deadline" binding:"required"`
}

type SubmitReviewInput struct {
	Score          int    `json:"score" binding:"required,min=1,max=10"`
	CommentsMd     string `json:"comments_md" binding:"required"`
	Recommendation string `json:"recommendation" binding:"required,oneof=accept minor major reject"`
}

// BlindManuscript is the reviewer-facing manuscript view. It deliberately
// carries no author identities.
type BlindManuscript struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Abstract string    `json:"abstract"`
	Keywords []string  `json:"keywords"`
	Language string    `json:"language"`
	Status   string    `json:"status"`
	FileURL  string    `json:"file_url,omitempty"`
}

type ReviewResponse struct {
	ID             uuid.UUID  `json:"id"`
	ManuscriptID   uuid.UUID  `json:"manuscript_id"`
	Deadline       time.Time  `json:"deadline"`
	Status         string     `json:"status"`
	Score          *int       `json:"score,omitempty"`
	CommentsMd     *string    `json:"comments_md,omitempty"`
	Recommendation *string    `json:"recommendation,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type AssignedReviewResponse struct {
	ReviewResponse
	Manuscript BlindManuscript `json:"manuscript"`
}

// EditorReviewResponse is the editor-facing listing entry. Editors see
// reviewer identities; authors never receive this shape.
type EditorReviewResponse struct {
	ReviewResponse
	ReviewerID      uuid.UUID `json:"reviewer_id"`
	ReviewerName    string    `json:"reviewer_name"`
	ManuscriptTitle string    `json:"manuscript_title"`
}
