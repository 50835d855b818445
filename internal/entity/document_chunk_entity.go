package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentChunk is the durable record of one chunk: text, byte offsets into
// the source document, and its embedding. Chunk ids are deterministic per
// (document, sequence index) so re-ingesting identical text is idempotent.
type DocumentChunk struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentId     uuid.UUID `gorm:"type:uuid;index"`
	CollectionId   uuid.UUID `gorm:"type:uuid;index"`
	SequenceIndex  int
	Text           string
	CharStart      int
	CharEnd        int
	EmbeddingValue []float32
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
