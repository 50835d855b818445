package dto

import (
	"time"

	"github.com/google/uuid"
)

type IngestDocumentRequest struct {
	CollectionId uuid.UUID `json:"collection_id"` // zero value creates a new collection
	Name         string    `json:"name" validate:"required,max=255"`
	Text         string    `json:"text" validate:"required"`
}

type IngestDocumentResponse struct {
	CollectionId uuid.UUID `json:"collection_id"`
	DocumentId   uuid.UUID `json:"document_id"`
	ChunkCount   int       `json:"chunk_count"`
	Version      int64     `json:"version"`
}

type ShowCollectionResponse struct {
	Id           uuid.UUID             `json:"id"`
	Name         string                `json:"name"`
	Version      int64                 `json:"version"`
	ModelVersion string                `json:"model_version"`
	Documents    []ShowDocumentSummary `json:"documents"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    *time.Time            `json:"updated_at"`
}

type ShowDocumentSummary struct {
	Id         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	CharCount  int       `json:"char_count"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// PublishIngestCompletedMessage is the in-process message emitted after an
// ingest commits.
type PublishIngestCompletedMessage struct {
	CollectionId uuid.UUID `json:"collection_id"`
	DocumentId   uuid.UUID `json:"document_id"`
	ChunkCount   int       `json:"chunk_count"`
	Version      int64     `json:"version"`
}
