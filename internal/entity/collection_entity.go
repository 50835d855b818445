package entity

import (
	"time"

	"github.com/google/uuid"
)

// Collection groups the documents one index is built over. Version is the
// optimistic-concurrency counter of the durable snapshot; 0 means never
// ingested.
type Collection struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId       uuid.UUID `gorm:"type:uuid;index"`
	Name         string
	Version      int64
	ModelVersion string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
