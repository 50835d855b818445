//go:build ignore

package main

import (
	"context"
	"doc-qa-be/internal/config"
	"doc-qa-be/pkg/embedding"
	"fmt"
	"log"
)

func main() {
	// 1. Load Config
	cfg := config.Load()
	fmt.Printf("Loaded Config > Embedding Provider: %s\n", cfg.Ai.EmbeddingProvider)
	fmt.Printf("Loaded Config > Dimension: %d\n", cfg.Ai.EmbeddingDimension)

	// 2. Initialize the configured provider
	var provider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel, cfg.Ai.EmbeddingDimension)
	} else {
		provider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}
	fmt.Printf("Provider Model Version: %s\n", provider.ModelVersion())

	// 3. Test Text
	texts := []string{
		"The project deadline is 30 September 2025.",
		"What is the deadline?",
	}
	fmt.Printf("\nGenerating embeddings for %d texts\n", len(texts))

	// 4. Generate
	vectors, err := provider.EmbedBatch(context.Background(), texts, embedding.TaskRetrievalDocument)
	if err != nil {
		log.Fatalf("Error generating embeddings: %v", err)
	}

	// 5. Inspect Result
	for i, v := range vectors {
		fmt.Printf("Text %d -> %d dimensions\n", i+1, len(v))
		if len(v) > 5 {
			fmt.Printf("First 5 values: %v...\n", v[:5])
		}
		if len(v) != provider.Dimension() {
			log.Fatalf("Dimension mismatch: provider declares %d, got %d", provider.Dimension(), len(v))
		}
	}

	fmt.Println("\nEmbedding provider check passed.")
}
