package bootstrap

import (
	"context"
	"log"
	"time"

	"doc-qa-be/internal/config"
	"doc-qa-be/internal/controller"
	"doc-qa-be/internal/pkg/logger"
	"doc-qa-be/internal/repository/unitofwork"
	"doc-qa-be/internal/service"
	"doc-qa-be/pkg/blob"
	"doc-qa-be/pkg/embedding"
	"doc-qa-be/pkg/llm/factory"
	"doc-qa-be/pkg/rag/cache"
	"doc-qa-be/pkg/rag/retrieve"
	"doc-qa-be/pkg/rag/synthesize"
	ragsync "doc-qa-be/pkg/rag/sync"

	pktNats "doc-qa-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	DocumentController controller.IDocumentController
	ChatController     controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	InstanceName string
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
			cfg.Ai.EmbeddingDimension,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}
	embeddingProvider = embedding.WithRetry(embeddingProvider, embedding.DefaultRetryPolicy())

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	}

	// Snapshot store: Redis in production, local filesystem for single-node setups.
	var snapshotStore blob.Store
	if cfg.Blob.Backend == "fs" {
		fsStore, err := blob.NewFSStore(cfg.Blob.FSRoot)
		if err != nil {
			log.Fatalf("[FATAL] Failed to open snapshot dir: %v", err)
		}
		snapshotStore = fsStore
		log.Printf("[INFO] Using Snapshot Store: FS (%s)", cfg.Blob.FSRoot)
	} else {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		snapshotStore = blob.NewRedisStore(rdb, cfg.Blob.Prefix)
		log.Printf("[INFO] Using Snapshot Store: REDIS")
	}

	// 5. RAG Core
	syncManager := ragsync.NewManager(
		snapshotStore,
		sysLogger,
		embeddingProvider.ModelVersion(),
		embeddingProvider.Dimension(),
	)
	indexCache := cache.NewIndexCache(time.Duration(cfg.Rag.CacheTTLMin) * time.Minute)
	rebuilder := service.NewIndexRebuilder(uowFactory, embeddingProvider.ModelVersion(), embeddingProvider.Dimension())

	retriever := retrieve.NewRetriever(
		syncManager,
		indexCache,
		embeddingProvider,
		rebuilder,
		sysLogger,
		retrieve.Config{
			TopK:           cfg.Rag.TopK,
			FetchK:         cfg.Rag.FetchK,
			ScoreThreshold: cfg.Rag.ScoreThreshold,
		},
	)
	synthesizer := synthesize.NewSynthesizer(llmProvider, sysLogger, cfg.Rag.ContextCharBudget)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Keys.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.IngestTopic,
		uowFactory,
		indexCache,
		natsSub,
		sysLogger,
	)

	documentService := service.NewDocumentService(
		uowFactory,
		embeddingProvider,
		syncManager,
		indexCache,
		publisherService,
		natsPub,
		sysLogger,
		service.IngestConfig{
			ChunkSize:    cfg.Rag.ChunkSize,
			ChunkOverlap: cfg.Rag.ChunkOverlap,
		},
	)
	chatService := service.NewChatService(uowFactory, retriever, synthesizer, sysLogger)

	return &Container{
		DocumentController: controller.NewDocumentController(documentService),
		ChatController:     controller.NewChatController(chatService),
		ConsumerService:    consumerService,
		InstanceName:       cfg.App.InstanceName,
	}
}
