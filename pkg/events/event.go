package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "COLLECTION_INVALIDATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const (
	// TypeCollectionInvalidated fires after a snapshot write so other
	// instances drop their cached index for the collection.
	TypeCollectionInvalidated = "COLLECTION_INVALIDATED"

	// TypeIngestionCompleted fires after a document has been chunked,
	// embedded and persisted.
	TypeIngestionCompleted = "INGESTION_COMPLETED"
)

// NewCollectionInvalidatedEvent builds the invalidation event published
// after every successful snapshot persist or collection delete.
func NewCollectionInvalidatedEvent(collectionId uuid.UUID, version int64) BaseEvent {
	return BaseEvent{
		Type: TypeCollectionInvalidated,
		Data: map[string]interface{}{
			"collection_id": collectionId.String(),
			"version":       version,
		},
		OccurredAt: time.Now(),
	}
}

// NewIngestionCompletedEvent builds the event announcing a finished ingest.
func NewIngestionCompletedEvent(collectionId, documentId uuid.UUID, chunkCount int, version int64) BaseEvent {
	return BaseEvent{
		Type: TypeIngestionCompleted,
		Data: map[string]interface{}{
			"collection_id": collectionId.String(),
			"document_id":   documentId.String(),
			"chunk_count":   chunkCount,
			"version":       version,
		},
		OccurredAt: time.Now(),
	}
}
