package dto

import (
	"time"

	"github.com/google/uuid"
)

type GatewaySubmitInput struct {
	Title    string   `json:"title" binding:"required,max=255"`
	Abstract string   `json:"abstract" binding:"required"`
	Keywords []string `json:"keywords" binding:"required,min=1,dive,required"`
	Language string   `json:"language" binding:"required,max=50"`
	FileRef  string   `json:"fileRef" binding:"required"`
}

type GatewayDecisionInput struct {
	Decision string  `json:"decision" binding:"required,oneof=accept reject revise"`
	Comments *string `json:"comments"`
}

type GatewayAssignReviewersInput struct {
	ReviewerEmails []string   `json:"reviewerEmails" binding:"required,min=1,dive,email"`
	Deadline       *time.Time `json:"deadline"`
}

type GatewayPublishInput struct {
	Doi         *string `json:"doi"`
	Volume      *string `json:"volume"`
	Issue       *string `json:"issue"`
	PageNumbers *string `json:"pageNumbers"`
}

type GatewayNotifyInput struct {
	UserEmail string `json:"userEmail" binding:"required,email"`
	Subject   string `json:"subject" binding:"required"`
	Body      string `json:"body" binding:"required"`
}

// ManuscriptSummary is the machine-facing manuscript projection. It carries
// identifiers and searchable fields only, no file URLs or author profiles.
type ManuscriptSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Abstract  string    `json:"abstract"`
	Keywords  []string  `json:"keywords"`
	Language  string    `json:"language"`
	Status    string    `json:"status"`
	Slug      *string   `json:"slug,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Pagination struct {
	Cursor  *string `json:"cursor"`
	HasMore bool    `json:"hasMore"`
	Total   int64   `json:"total"`
}

type ManuscriptPage struct {
	Results    []ManuscriptSummary `json:"results"`
	Pagination Pagination          `json:"pagination"`
}

type AssignReviewerResult struct {
	Email    string     `json:"email"`
	ReviewID *uuid.UUID `json:"reviewId,omitempty"`
	Error    *string    `json:"error,omitempty"`
}
