package contract

import (
	"context"

	"doc-qa-be/internal/entity"
	"doc-qa-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TurnCitationRepository interface {
	CreateBulk(ctx context.Context, citations []*entity.TurnCitation) error
	DeleteByTurnId(ctx context.Context, turnId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TurnCitation, error)
}
