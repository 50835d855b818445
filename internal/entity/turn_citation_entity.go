package entity

import (
	"time"

	"github.com/google/uuid"
)

// TurnCitation links an answered turn to one source chunk, preserving the
// retrieval rank and score plus the chunk's byte span in the document.
type TurnCitation struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TurnId     uuid.UUID `gorm:"type:uuid;not null;index"`
	ChunkId    uuid.UUID `gorm:"type:uuid;not null;index"`
	DocumentId uuid.UUID `gorm:"type:uuid;not null;index"`
	Rank       int
	Score      float64
	CharStart  int
	CharEnd    int
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}
