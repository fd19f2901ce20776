package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadProofedFileInput struct {
	FileRef       string  `json:"file_ref" binding:"required"`
	ProofingNotes *string `json:"proofing_notes"`
}

type TaskManuscript struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Abstract        string    `json:"abstract"`
	Language        string    `json:"language"`
	Status          string    `json:"status"`
	Authors         []string  `json:"authors"`
	OriginalFileURL string    `json:"original_file_url,omitempty"`
}

type ProofingTaskResponse struct {
	ID             uuid.UUID      `json:"id"`
	Status         string         `json:"status"`
	EditorID       uuid.UUID      `json:"editor_id"`
	ProofingNotes  *string        `json:"proofing_notes,omitempty"`
	ProofedFileURL *string        `json:"proofed_file_url,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	PublishedAt    *time.Time     `json:"published_at,omitempty"`
	Manuscript     TaskManuscript `json:"manuscript"`
}
