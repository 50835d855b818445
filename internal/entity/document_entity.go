package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	CollectionId uuid.UUID `gorm:"type:uuid;index"`
	UserId       uuid.UUID `gorm:"type:uuid;index"`
	Name         string
	CharCount    int
	ChunkCount   int
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
