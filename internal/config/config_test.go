package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Port:         "3000",
			InstanceName: "docqa-1",
		},
		Ai: AIConfig{
			EmbeddingProvider:  "gemini",
			EmbeddingDimension: 768,
			LLMProvider:        "gemini",
			LLMModel:           "gemini-2.5-flash",
		},
		Rag: RagConfig{
			ChunkSize:         1000,
			ChunkOverlap:      200,
			TopK:              5,
			FetchK:            10,
			ScoreThreshold:    0.35,
			CacheTTLMin:       30,
			ContextCharBudget: 8000,
		},
		Blob: BlobConfig{
			Backend: "redis",
		},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsBrokenSections(t *testing.T) {
	tests := []struct {
		name  string
		mutate func(c *Config)
	}{
		{name: "overlap >= chunk size", mutate: func(c *Config) { c.Rag.ChunkOverlap = c.Rag.ChunkSize }},
		{name: "negative overlap", mutate: func(c *Config) { c.Rag.ChunkOverlap = -1 }},
		{name: "zero chunk size", mutate: func(c *Config) { c.Rag.ChunkSize = 0 }},
		{name: "fetch k below top k", mutate: func(c *Config) { c.Rag.FetchK = 2 }},
		{name: "threshold above one", mutate: func(c *Config) { c.Rag.ScoreThreshold = 1.5 }},
		{name: "zero context budget", mutate: func(c *Config) { c.Rag.ContextCharBudget = 0 }},
		{name: "zero dimension", mutate: func(c *Config) { c.Ai.EmbeddingDimension = 0 }},
		{name: "unknown embedding provider", mutate: func(c *Config) { c.Ai.EmbeddingProvider = "openai" }},
		{name: "unknown blob backend", mutate: func(c *Config) { c.Blob.Backend = "s3" }},
		{name: "missing instance name", mutate: func(c *Config) { c.App.InstanceName = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
