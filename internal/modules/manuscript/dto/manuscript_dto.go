package dto

import (
	"time"

	"github.com/google/uuid"
)

type SubmitManuscriptInput struct {
	Title    string   `json:"title" binding:"required,max=255"`
	Abstract string   `json:"abstract" binding:"required"`
	Keywords []string `json:"keywords" binding:"required,min=1,dive,required"`
	Language string   `json:"language" binding:"required,max=50"`
	FileRef  string   `json:"file_ref" binding:"required"`
}

type DecisionInput struct {
	Decision string  `json:"decision" binding:"required,oneof=proofing minorRevisions majorRevisions reject"`
	Comments *string `json:"comments"`
}

type AuthorInfo struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Orcid *string   `json:"orcid,omitempty"`
}

type ManuscriptResponse struct {
	ID        uuid.UUID    `json:"id"`
	Title     string       `json:"title"`
	Abstract  string       `json:"abstract"`
	Keywords  []string     `json:"keywords"`
	Language  string       `json:"language"`
	Status    string       `json:"status"`
	Slug      *string      `json:"slug,omitempty"`
	FileURL   string       `json:"file_url,omitempty"`
	Authors   []AuthorInfo `json:"authors,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type DecisionResponse struct {
	ID           uuid.UUID `json:"id"`
	ManuscriptID uuid.UUID `json:"manuscript_id"`
	Decision     string    `json:"decision"`
	Comments     *string   `json:"comments,omitempty"`
	DecidedAt    time.Time `json:"decided_at"`
}
