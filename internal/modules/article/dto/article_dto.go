package dto

import (
	"time"

	"github.com/google/uuid"
)

type PublishArticleInput struct {
	ProofingTaskID uuid.UUID `json:"proofing_task_id" binding:"required"`
	Doi            *string   `json:"doi"`
	Volume         *string   `json:"volume"`
	Issue          *string   `json:"issue"`
	PageNumbers    *string   `json:"page_numbers"`
}

type ArticleAuthor struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Orcid *string   `json:"orcid,omitempty"`
}

type ArticleResponse struct {
	ID                   uuid.UUID       `json:"id"`
	Title                string          `json:"title"`
	Abstract             string          `json:"abstract"`
	Keywords             []string        `json:"keywords"`
	Language             string          `json:"language"`
	Slug                 string          `json:"slug"`
	OriginalManuscriptID uuid.UUID       `json:"original_manuscript_id"`
	Authors              []ArticleAuthor `json:"authors"`
	FileURL              string          `json:"file_url,omitempty"`
	PublishedAt          time.Time       `json:"published_at"`
	Doi                  *string         `json:"doi,omitempty"`
	Volume               *string         `json:"volume,omitempty"`
	Issue                *string         `json:"issue,omitempty"`
	PageNumbers          *string         `json:"page_numbers,omitempty"`
}
