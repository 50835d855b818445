package apperr

import (
	"errors"
	"fmt"
)

// Typed failure taxonomy surfaced by services. Controllers map these to HTTP
// statuses in the error middleware; transient variants are retried inside the
// owning component before they ever reach here.
var (
	// ErrIngestionFailed means chunking or embedding failed after retries.
	// The collection stays at its last persisted version; the user must re-upload.
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrEmbeddingUnavailable is returned after bounded retries against the
	// embedding service (quota or network failure).
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable is returned after bounded retries against the
	// generation service.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrStaleVersion is a concurrent-write conflict on the durable snapshot.
	// The writer must re-restore and retry, never silently overwrite.
	ErrStaleVersion = errors.New("snapshot version is stale")

	// ErrNoDocumentContext means ask was issued before any successful ingest.
	// This is a valid empty-state outcome, not a system error.
	ErrNoDocumentContext = errors.New("no document context")

	ErrSessionNotFound    = errors.New("session not found or access denied")
	ErrCollectionNotFound = errors.New("collection not found or access denied")
)

// HTTPStatus returns the status code a typed error maps to.
// Unknown errors fall through to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrIngestionFailed):
		return 422
	case errors.Is(err, ErrEmbeddingUnavailable), errors.Is(err, ErrGenerationUnavailable):
		return 503
	case errors.Is(err, ErrStaleVersion):
		return 409
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrCollectionNotFound):
		return 404
	default:
		return 500
	}
}

// Wrap annotates err with a typed sentinel so callers can match on the
// taxonomy while keeping the original cause in the chain.
func Wrap(sentinel error, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %v", sentinel, cause)
}
