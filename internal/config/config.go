package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Rag      RagConfig
	Blob     BlobConfig
}

type AppConfig struct {
	Port               string `validate:"required"`
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	InstanceName       string `validate:"required"`
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	JWTSecret    string
	IngestTopic  string // in-process ingest completion topic
}

type AIConfig struct {
	EmbeddingProvider  string `validate:"oneof=gemini ollama"`
	EmbeddingDimension int    `validate:"gt=0"`
	OllamaBaseURL      string
	OllamaModel        string
	LLMProvider        string `validate:"oneof=gemini ollama"`
	LLMModel           string `validate:"required"`
}

type RagConfig struct {
	ChunkSize         int     `validate:"gt=0"`
	ChunkOverlap      int     `validate:"gte=0,ltfield=ChunkSize"`
	TopK              int     `validate:"gt=0"`
	FetchK            int     `validate:"gtefield=TopK"`
	ScoreThreshold    float64 `validate:"gte=0,lte=1"`
	CacheTTLMin       int     `validate:"gt=0"`
	ContextCharBudget int     `validate:"gt=0"`
}

type BlobConfig struct {
	Backend string `validate:"oneof=redis fs"`
	FSRoot  string
	Prefix  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			InstanceName:       getEnv("APP_INSTANCE_NAME", "docqa-1"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			JWTSecret:    getEnv("JWT_SECRET", ""),
			IngestTopic:  getEnv("INGEST_COMPLETED_TOPIC_NAME", "INGEST_COMPLETED"),
		},
		Ai: AIConfig{
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 768),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:        getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:        getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:           getEnv("LLM_MODEL", "gemini-2.5-flash"),
		},
		Rag: RagConfig{
			ChunkSize:         getEnvAsInt("RAG_CHUNK_SIZE", 1000),
			ChunkOverlap:      getEnvAsInt("RAG_CHUNK_OVERLAP", 200),
			TopK:              getEnvAsInt("RAG_TOP_K", 5),
			FetchK:            getEnvAsInt("RAG_FETCH_K", 10),
			ScoreThreshold:    getEnvAsFloat("RAG_SCORE_THRESHOLD", 0.35),
			CacheTTLMin:       getEnvAsInt("RAG_INDEX_CACHE_TTL_MINUTES", 30),
			ContextCharBudget: getEnvAsInt("RAG_CONTEXT_CHAR_BUDGET", 8000),
		},
		Blob: BlobConfig{
			Backend: getEnv("BLOB_BACKEND", "redis"),
			FSRoot:  getEnv("BLOB_FS_ROOT", "./data/snapshots"),
			Prefix:  getEnv("BLOB_KEY_PREFIX", "snapshot:"),
		},
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// Validate rejects a config that would only fail later, at first ingest or
// first ask.
func (c *Config) Validate() error {
	validate := validator.New()
	for name, section := range map[string]interface{}{
		"app":  c.App,
		"ai":   c.Ai,
		"rag":  c.Rag,
		"blob": c.Blob,
	} {
		if err := validate.Struct(section); err != nil {
			return fmt.Errorf("%s config: %w", name, err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
