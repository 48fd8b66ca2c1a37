// Package embed provides text embedding for semantic search.
package embed

import (
	"context"
	"time"
)

// Embedder converts text into dense vectors.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available reports whether the embedding service is reachable.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// Defaults for the Ollama embedder.
const (
	DefaultOllamaHost = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultDimensions = 768
	DefaultTimeout    = 5 * time.Second
)

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	// Host is the Ollama API endpoint.
	Host string
	// Model is the embedding model name.
	Model string
	// Dimensions is the expected embedding dimension (0 = auto-detect).
	Dimensions int
	// Timeout bounds each embed call.
	Timeout time.Duration
}
