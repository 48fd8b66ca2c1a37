package search

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/tcodefinder/internal/cache"
	"github.com/Aman-CERP/tcodefinder/internal/catalog"
	"github.com/Aman-CERP/tcodefinder/internal/embed"
	"github.com/Aman-CERP/tcodefinder/internal/llm"
	"github.com/Aman-CERP/tcodefinder/internal/websearch"
)

// Dependencies are the external collaborators of the pipeline. Catalog and
// Cache are required; everything else is optional and its stage degrades to
// a no-op when absent.
type Dependencies struct {
	Catalog   catalog.Store
	Fulltext  *catalog.FulltextIndex
	Vectors   *catalog.VectorIndex
	Embedder  embed.Embedder
	Model     llm.Client
	Providers []websearch.Provider
	Feedback  catalog.FeedbackStore
	Locales   catalog.LocaleStore
	Cache     cache.Store
	Logger    *slog.Logger
}

// Finder runs the full pipeline: cached-result check, query expansion,
// lexical and semantic candidate generation, fusion, model re-ranking with
// deterministic fallback, term boost, judge audit, optional web validation,
// knowledge fallback, locale and feedback adjustment.
type Finder struct {
	cfg    Config
	logger *slog.Logger
	store  cache.Store

	lexical  *LexicalGenerator
	semantic *SemanticGenerator
	expander *Expander
	reranker *Reranker
	judge    *Judge
	web      *WebValidator
	reasoner *DeepReasoner
	locale   *LocaleBooster
	feedback *FeedbackBooster
}

// NewFinder assembles the pipeline from its dependencies.
func NewFinder(cfg Config, deps Dependencies) *Finder {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{
		cfg:      cfg,
		logger:   logger,
		store:    deps.Cache,
		lexical:  NewLexicalGenerator(deps.Catalog, deps.Fulltext, cfg.StrategyLimit, logger),
		semantic: NewSemanticGenerator(deps.Embedder, deps.Vectors, deps.Catalog, logger),
		expander: NewExpander(deps.Model, deps.Cache, cfg.ExpansionTTL, cfg.ExpansionTimeout, logger),
		reranker: NewReranker(deps.Model, cfg.RerankTimeout, logger),
		judge:    NewJudge(deps.Model, cfg.JudgeTimeout, logger),
		web:      NewWebValidator(deps.Providers, deps.Catalog, cfg.WebProviderTimeout, cfg.WebOuterTimeout, logger),
		reasoner: NewDeepReasoner(deps.Model, cfg.ReasoningTimeout, logger),
		locale:   NewLocaleBooster(deps.Locales, deps.Cache, cfg.LocaleTTL, logger),
		feedback: NewFeedbackBooster(deps.Feedback, deps.Cache, cfg.FeedbackTTL, logger),
	}
}

// Search answers a free-text query with ranked transaction codes. An empty
// result set is a valid answer, not an error; individual stage failures
// degrade rather than abort. An error is returned only when the pipeline
// cannot produce a response at all, which happens when the catalog is fully
// unreachable and no sibling stage found anything.
func (f *Finder) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	query = normalizeQuery(query)
	if query == "" {
		return &Response{Results: []Candidate{}}, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = f.cfg.DefaultLimit
	}
	if limit > f.cfg.MaxLimit {
		limit = f.cfg.MaxLimit
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	logger := f.logger.With("request_id", uuid.NewString(), "query", query)
	start := time.Now()

	cacheExtra := []string{"limit=" + strconv.Itoa(limit)}
	if opts.Module != "" {
		cacheExtra = append(cacheExtra, "module="+strings.ToUpper(opts.Module))
	}
	cacheKey := strings.Join(append([]string{query}, cacheExtra...), "|")
	if cached, ok := cache.GetJSON[[]Candidate](ctx, f.store, cache.NamespaceResults, cacheKey); ok {
		logger.Debug("served from cache", "results", len(cached))
		return &Response{Results: cached, Cached: true}, nil
	}

	// Expansion and the direct semantic and lexical searches are
	// independent; run them together. The expanded semantic search needs
	// the expansion result first.
	var (
		expanded string
		lexical  []Candidate
		direct   []Candidate
		lexErr   error
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		expanded = f.expander.Expand(gctx, query)
		return nil
	})
	eg.Go(func() error {
		lexical, lexErr = f.lexical.Generate(gctx, query)
		return nil
	})
	eg.Go(func() error {
		direct = f.semantic.Generate(gctx, query, limit, opts.Module)
		return nil
	})
	_ = eg.Wait()

	var expandedSemantic []Candidate
	if expanded != query {
		expandedSemantic = f.semantic.Generate(ctx, expanded, limit, opts.Module)
	}

	fused := Fuse(lexical, direct, expandedSemantic)
	logger.Debug("candidates fused",
		"lexical", len(lexical),
		"direct_semantic", len(direct),
		"expanded_semantic", len(expandedSemantic),
		"fused", len(fused))

	if len(fused) == 0 {
		// A lexical error here means the catalog itself is down, not that
		// nothing matched; surface it instead of an empty answer. Sibling
		// stages finding anything keeps the request serviceable.
		if lexErr != nil {
			logger.Error("catalog unreachable", "error", lexErr)
			return nil, lexErr
		}
		results := f.reasoner.Propose(ctx, query, nil)
		sortByConfidence(results)
		results = truncate(results, limit)
		f.cacheResults(ctx, cacheKey, results)
		logger.Info("search complete via knowledge fallback",
			"results", len(results),
			"elapsed", time.Since(start).Round(time.Millisecond).String())
		return &Response{Results: results}, nil
	}

	// Cap the re-ranking input; everything past twice the limit cannot
	// reach the final page anyway.
	fused = truncate(fused, 2*limit)

	results := f.reranker.Rerank(ctx, query, fused)
	results = ApplyTermBoost(query, results)
	results = f.judge.Audit(ctx, query, results)

	if topConfidence(results) < f.cfg.WebFallbackThreshold && f.web.Enabled() {
		var snippets []websearch.Result
		before := len(results)
		results, snippets = f.web.Validate(ctx, query, results)
		if len(results) == before && topConfidence(results) < f.cfg.WebFallbackThreshold {
			// Web validation added nothing; let the model try from
			// knowledge, grounded on whatever snippets came back.
			for _, p := range f.reasoner.Propose(ctx, query, snippets) {
				if !containsCode(results, p.Code) {
					results = append(results, p)
				}
			}
		}
	}

	results = f.locale.Boost(ctx, query, results)
	results = f.feedback.Boost(ctx, results)

	sortByConfidence(results)
	results = truncate(results, limit)
	f.cacheResults(ctx, cacheKey, results)

	logger.Info("search complete",
		"results", len(results),
		"elapsed", time.Since(start).Round(time.Millisecond).String())
	return &Response{Results: results}, nil
}

func (f *Finder) cacheResults(ctx context.Context, key string, results []Candidate) {
	if results == nil {
		results = []Candidate{}
	}
	cache.SetJSON(ctx, f.store, cache.NamespaceResults, key, results, f.cfg.ResultTTL)
}

// sortByConfidence orders by confidence descending. The sort is stable, so
// earlier pipeline ordering breaks ties.
func sortByConfidence(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].Confidence > cs[j].Confidence
	})
}

func truncate(cs []Candidate, n int) []Candidate {
	if len(cs) > n {
		return cs[:n]
	}
	return cs
}

func topConfidence(cs []Candidate) float64 {
	top := 0.0
	for _, c := range cs {
		if c.Confidence > top {
			top = c.Confidence
		}
	}
	return top
}

func containsCode(cs []Candidate, code string) bool {
	for _, c := range cs {
		if strings.EqualFold(c.Code, code) {
			return true
		}
	}
	return false
}
