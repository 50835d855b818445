package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Ask outcome recorded on assistant turns.
const (
	OutcomeAnswered   = "answered"
	OutcomeNotFound   = "not_found"
	OutcomeNoDocument = "no_document"
)

// Turn is one message in a session. SequenceIndex is assigned under a row
// lock on the session so concurrent asks interleave without gaps or ties.
type Turn struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;index"`
	Role          string
	Content       string
	SequenceIndex int
	Outcome       string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}
