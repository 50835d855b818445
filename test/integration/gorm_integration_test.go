package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"doc-qa-be/internal/entity"
	"doc-qa-be/internal/repository/specification"
	"doc-qa-be/internal/repository/unitofwork"
	"doc-qa-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.CollectionRepository())
	assert.NotNil(t, uow.DocumentChunkRepository())
	assert.NotNil(t, uow.TurnRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check Collection Repository", func(t *testing.T) {
		count, err := uow.CollectionRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Collection count: %d", count)
	})

	t.Run("Check Document Chunk Repository", func(t *testing.T) {
		// Count implies the table and the vector column exist
		count, err := uow.DocumentChunkRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("DocumentChunk count: %d", count)
	})

	t.Run("Check Transactional Turn Append", func(t *testing.T) {
		ctx := context.Background()
		userId := uuid.New()

		collection := &entity.Collection{
			Id:           uuid.New(),
			UserId:       userId,
			Name:         "integration-collection-" + uuid.New().String(),
			Version:      0,
			ModelVersion: "",
		}
		session := &entity.ChatSession{
			Id:           uuid.New(),
			UserId:       userId,
			CollectionId: collection.Id,
			Title:        "Integration Session",
		}

		txUow := uowFactory.NewUnitOfWork(ctx)
		err := txUow.Begin(ctx)
		assert.NoError(t, err)

		err = txUow.CollectionRepository().Create(ctx, collection)
		assert.NoError(t, err)
		err = txUow.ChatSessionRepository().Create(ctx, session)
		assert.NoError(t, err)

		locked, err := txUow.ChatSessionRepository().FindOneLocked(ctx, session.Id)
		assert.NoError(t, err)
		assert.NotNil(t, locked)

		next, err := txUow.TurnRepository().NextSequenceIndex(ctx, session.Id)
		assert.NoError(t, err)
		assert.Equal(t, 0, next)

		turns := []*entity.Turn{
			{
				Id:            uuid.New(),
				ChatSessionId: session.Id,
				Role:          entity.RoleUser,
				Content:       "integration question",
				SequenceIndex: next,
			},
			{
				Id:            uuid.New(),
				ChatSessionId: session.Id,
				Role:          entity.RoleAssistant,
				Content:       "integration answer",
				SequenceIndex: next + 1,
				Outcome:       entity.OutcomeAnswered,
			},
		}
		err = txUow.TurnRepository().CreateBulk(ctx, turns)
		assert.NoError(t, err)

		err = txUow.Commit()
		assert.NoError(t, err)

		// The next append sees both turns
		next, err = uow.TurnRepository().NextSequenceIndex(ctx, session.Id)
		assert.NoError(t, err)
		assert.Equal(t, 2, next)

		stored, err := uow.TurnRepository().FindAll(ctx,
			specification.ByChatSessionID{ChatSessionID: session.Id},
			specification.OrderBy{Field: "sequence_index"},
		)
		assert.NoError(t, err)
		assert.Len(t, stored, 2)

		// Cleanup
		err = uow.TurnRepository().DeleteBySessionId(ctx, session.Id)
		assert.NoError(t, err)
		err = uow.ChatSessionRepository().Delete(ctx, session.Id)
		assert.NoError(t, err)
		err = uow.CollectionRepository().Delete(ctx, collection.Id)
		assert.NoError(t, err)
	})

	t.Run("Check Version CAS", func(t *testing.T) {
		ctx := context.Background()
		collection := &entity.Collection{
			Id:           uuid.New(),
			UserId:       uuid.New(),
			Name:         "integration-cas-" + uuid.New().String(),
			Version:      0,
			ModelVersion: "",
		}
		err := uow.CollectionRepository().Create(ctx, collection)
		assert.NoError(t, err)

		ok, err := uow.CollectionRepository().UpdateVersion(ctx, collection.Id, 0, 1, "embed-001")
		assert.NoError(t, err)
		assert.True(t, ok)

		// Same base version again loses the race
		ok, err = uow.CollectionRepository().UpdateVersion(ctx, collection.Id, 0, 1, "embed-001")
		assert.NoError(t, err)
		assert.False(t, ok)

		err = uow.CollectionRepository().Delete(ctx, collection.Id)
		assert.NoError(t, err)
	})
}
