package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	CollectionId uuid.UUID `json:"collection_id" validate:"required"`
	Title        string    `json:"title" validate:"required,max=255"`
}

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type GetAllSessionsResponse struct {
	Id           uuid.UUID  `json:"id"`
	CollectionId uuid.UUID  `json:"collection_id"`
	Title        string     `json:"title"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type GetChatHistoryResponse struct {
	Id            uuid.UUID     `json:"id"`
	Role          string        `json:"role"`
	Content       string        `json:"content"`
	SequenceIndex int           `json:"sequence_index"`
	Outcome       string        `json:"outcome,omitempty"`
	Citations     []CitationDTO `json:"citations,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

type CitationDTO struct {
	ChunkId    uuid.UUID `json:"chunk_id"`
	DocumentId uuid.UUID `json:"document_id"`
	Rank       int       `json:"rank"`
	Score      float64   `json:"score"`
	CharStart  int       `json:"char_start"`
	CharEnd    int       `json:"char_end"`
}

type AskRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Question      string    `json:"question" validate:"required"`
	LanguageHint  string    `json:"language_hint,omitempty" validate:"max=64"`
}

type AskResponseTurn struct {
	Id            uuid.UUID     `json:"id"`
	Role          string        `json:"role"`
	Content       string        `json:"content"`
	SequenceIndex int           `json:"sequence_index"`
	Citations     []CitationDTO `json:"citations,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

type AskResponse struct {
	ChatSessionId uuid.UUID        `json:"chat_session_id"`
	Outcome       string           `json:"outcome"` // "answered" | "not_found" | "no_document"
	Sent          *AskResponseTurn `json:"sent,omitempty"`
	Reply         *AskResponseTurn `json:"reply,omitempty"`
}
