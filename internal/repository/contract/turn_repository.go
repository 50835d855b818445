package contract

import (
	"context"

	"doc-qa-be/internal/entity"
	"doc-qa-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TurnRepository interface {
	Create(ctx context.Context, turn *entity.Turn) error
	CreateBulk(ctx context.Context, turns []*entity.Turn) error
	// NextSequenceIndex returns max(sequence_index)+1 for the session.
	// Call with the session row locked, otherwise concurrent asks can collide.
	NextSequenceIndex(ctx context.Context, sessionId uuid.UUID) (int, error)
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Turn, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
