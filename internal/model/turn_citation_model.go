package model

import (
	"time"

	"github.com/google/uuid"
)

type TurnCitation struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TurnId     uuid.UUID `gorm:"type:uuid;not null;index"`
	ChunkId    uuid.UUID `gorm:"type:uuid;not null;index"`
	DocumentId uuid.UUID `gorm:"type:uuid;not null;index"`
	Rank       int       `gorm:"not null;default:0"`
	Score      float64   `gorm:"not null;default:0"`
	CharStart  int       `gorm:"default:0"`
	CharEnd    int       `gorm:"default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`

	// Relationships
	Turn *Turn `gorm:"foreignKey:TurnId;references:Id;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (TurnCitation) TableName() string {
	return "turn_citations"
}
