package implementation

import (
	"context"

	"doc-qa-be/internal/entity"
	"doc-qa-be/internal/mapper"
	"doc-qa-be/internal/model"
	"doc-qa-be/internal/repository/contract"
	"doc-qa-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TurnCitationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewTurnCitationRepository(db *gorm.DB) contract.TurnCitationRepository {
	return &TurnCitationRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *TurnCitationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TurnCitationRepositoryImpl) CreateBulk(ctx context.Context, citations []*entity.TurnCitation) error {
	if len(citations) == 0 {
		return nil
	}
	models := make([]*model.TurnCitation, len(citations))
	for i, c := range citations {
		models[i] = r.mapper.CitationToModel(c)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*citations[i] = *r.mapper.CitationToEntity(m)
	}
	return nil
}

func (r *TurnCitationRepositoryImpl) DeleteByTurnId(ctx context.Context, turnId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("turn_id = ?", turnId).Delete(&model.TurnCitation{}).Error
}

func (r *TurnCitationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TurnCitation, error) {
	var models []*model.TurnCitation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.TurnCitation, len(models))
	for i, m := range models {
		entities[i] = r.mapper.CitationToEntity(m)
	}
	return entities, nil
}
