package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Turn struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId uuid.UUID      `gorm:"type:uuid;not null;index:idx_turns_session_seq,unique,priority:1"`
	Role          string         `gorm:"type:varchar(16);not null"`
	Content       string         `gorm:"type:text;not null"`
	SequenceIndex int            `gorm:"not null;index:idx_turns_session_seq,unique,priority:2"`
	Outcome       string         `gorm:"type:varchar(16)"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (Turn) TableName() string {
	return "turns"
}
