package contract

import (
	"context"

	"doc-qa-be/internal/entity"
	"doc-qa-be/internal/repository/specification"

	"github.com/google/uuid"
)

type CollectionRepository interface {
	Create(ctx context.Context, collection *entity.Collection) error
	Update(ctx context.Context, collection *entity.Collection) error
	// UpdateVersion bumps the snapshot version only when the row still holds
	// fromVersion. Returns false on a lost race.
	UpdateVersion(ctx context.Context, id uuid.UUID, fromVersion, toVersion int64, modelVersion string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Collection, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Collection, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
