package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DocumentId     uuid.UUID       `gorm:"type:uuid;not null;index"`
	CollectionId   uuid.UUID       `gorm:"type:uuid;not null;index"`
	SequenceIndex  int             `gorm:"default:0"` // 0-based index for ordering
	Text           string          `gorm:"type:text"`
	CharStart      int             `gorm:"default:0"`
	CharEnd        int             `gorm:"default:0"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // Gemini text-embedding-004 uses 768 dimensions
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
