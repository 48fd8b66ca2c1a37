package cmd

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/tcodefinder/internal/cache"
	"github.com/Aman-CERP/tcodefinder/internal/catalog"
	"github.com/Aman-CERP/tcodefinder/internal/config"
	"github.com/Aman-CERP/tcodefinder/internal/embed"
	"github.com/Aman-CERP/tcodefinder/internal/errors"
	"github.com/Aman-CERP/tcodefinder/internal/llm"
	"github.com/Aman-CERP/tcodefinder/internal/search"
	"github.com/Aman-CERP/tcodefinder/internal/websearch"
)

// embedBatchSize bounds one Ollama embed call while indexing the catalog.
const embedBatchSize = 64

// app holds an assembled pipeline and its closable resources.
type app struct {
	finder *search.Finder
	store  *catalog.SQLiteStore
	cache  cache.Store
	logger *slog.Logger

	embedder embed.Embedder
}

func (a *app) Close() {
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

// buildApp wires the pipeline from config. The catalog is required;
// embeddings, the reasoning model, the shared cache tier, and web providers
// are all optional and log once when absent.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := catalog.OpenSQLite(cfg.Catalog.Path)
	if err != nil {
		return nil, errors.CatalogError("open catalog", err).WithDetail("path", cfg.Catalog.Path)
	}

	entries, err := store.ListAll(ctx)
	if err != nil {
		_ = store.Close()
		return nil, errors.CatalogError("load catalog entries", err).WithDetail("path", cfg.Catalog.Path)
	}
	fulltext, err := catalog.NewFulltextIndex(entries)
	if err != nil {
		_ = store.Close()
		return nil, errors.CatalogError("build fulltext index", err)
	}
	logger.Debug("catalog loaded", "entries", len(entries))

	a := &app{store: store, logger: logger, cache: buildCache(cfg, logger)}

	deps := search.Dependencies{
		Catalog:  store,
		Fulltext: fulltext,
		Feedback: store,
		Locales:  store,
		Cache:    a.cache,
		Logger:   logger,
	}

	// Semantic tier: only when Ollama answers. A missing embedding service
	// silently narrows search to the lexical strategies.
	embedder := embed.NewOllamaEmbedder(embed.OllamaConfig{
		Host:       cfg.Embeddings.OllamaHost,
		Model:      cfg.Embeddings.Model,
		Dimensions: cfg.Embeddings.Dimensions,
		Timeout:    cfg.Embeddings.Timeout,
	})
	if embedder.Available(ctx) {
		cached := embed.NewCachedEmbedder(embedder, cfg.Embeddings.CacheSize)
		vectors, err := buildVectorIndex(ctx, cached, entries)
		if err != nil {
			logger.Warn("vector index unavailable, semantic search disabled",
				"error", errors.Wrap(errors.ErrCodeEmbeddingFailed, err))
			_ = cached.Close()
		} else {
			a.embedder = cached
			deps.Embedder = cached
			deps.Vectors = vectors
		}
	} else {
		logger.Info("embedding service unreachable, semantic search disabled",
			"host", cfg.Embeddings.OllamaHost,
			"code", errors.ErrCodeProviderAbsent)
	}

	if cfg.Model.Enabled() {
		client, err := llm.NewOpenAIClient(llm.Config{
			BaseURL: cfg.Model.BaseURL,
			APIKey:  cfg.Model.APIKey,
			Model:   cfg.Model.Model,
		})
		if err != nil {
			logger.Warn("reasoning model unavailable, model stages disabled", "error", err)
		} else {
			deps.Model = client
		}
	} else {
		logger.Info("no reasoning model configured, using deterministic ranking",
			"code", errors.ErrCodeProviderAbsent)
	}

	deps.Providers = buildProviders(cfg, logger)

	a.finder = search.NewFinder(searchConfig(cfg), deps)
	return a, nil
}

func buildCache(cfg *config.Config, logger *slog.Logger) cache.Store {
	memory := cache.NewMemoryStore(cfg.Cache.MemorySize)
	if cfg.Cache.RedisURL == "" {
		return memory
	}
	shared, err := cache.NewRedisStore(cfg.Cache.RedisURL, logger)
	if err != nil {
		logger.Warn("shared cache unavailable, using memory tier only",
			"error", errors.Wrap(errors.ErrCodeCacheUnavailable, err))
		return memory
	}
	return cache.NewTieredStore(memory, shared)
}

func buildProviders(cfg *config.Config, logger *slog.Logger) []websearch.Provider {
	var providers []websearch.Provider
	if p := websearch.NewTavilyProvider(cfg.WebSearch.TavilyAPIKey); p != nil {
		providers = append(providers, p)
	}
	if p := websearch.NewBraveProvider(cfg.WebSearch.BraveAPIKey); p != nil {
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		logger.Info("no web search providers configured, web validation disabled",
			"code", errors.ErrCodeProviderAbsent)
	}
	return providers
}

// buildVectorIndex embeds every catalog entry and loads the nearest-neighbor
// index. Descriptions carry the searchable meaning; codes alone embed poorly.
func buildVectorIndex(ctx context.Context, embedder embed.Embedder, entries []*catalog.Entry) (*catalog.VectorIndex, error) {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Code + " " + e.Description
	}

	vectors := make([][]float32, 0, len(entries))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch, err := embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	if len(vectors) == 0 {
		return catalog.NewVectorIndex(embedder.Dimensions()), nil
	}

	index := catalog.NewVectorIndex(len(vectors[0]))
	if err := index.Add(ctx, entries, vectors); err != nil {
		return nil, err
	}
	return index, nil
}

func searchConfig(cfg *config.Config) search.Config {
	sc := search.DefaultConfig()
	sc.DefaultLimit = cfg.Search.DefaultLimit
	sc.MaxLimit = cfg.Search.MaxLimit
	sc.StrategyLimit = cfg.Search.StrategyLimit
	sc.WebFallbackThreshold = cfg.Search.WebFallbackThreshold
	sc.RequestTimeout = cfg.Search.RequestTimeout
	sc.ExpansionTimeout = cfg.Model.ExpansionTimeout
	sc.RerankTimeout = cfg.Model.RerankTimeout
	sc.JudgeTimeout = cfg.Model.JudgeTimeout
	sc.ReasoningTimeout = cfg.Model.ReasoningTimeout
	sc.WebOuterTimeout = cfg.WebSearch.OuterTimeout
	sc.WebProviderTimeout = cfg.WebSearch.ProviderTimeout
	sc.ResultTTL = cfg.Cache.ResultTTL
	sc.ExpansionTTL = cfg.Cache.ExpansionTTL
	sc.LocaleTTL = cfg.Cache.LocaleTTL
	sc.FeedbackTTL = cfg.Cache.FeedbackTTL
	return sc
}
