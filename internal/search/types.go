// Package search implements the hybrid search and ranking pipeline: lexical
// and vector-similarity candidate generation, external-model re-ranking and
// validation, locale- and feedback-aware score adjustment, and bounded
// fallback to web knowledge sources when confidence is low.
package search

import (
	"time"
)

// MatchType records which stage produced a candidate.
type MatchType string

const (
	MatchExact     MatchType = "exact"
	MatchFuzzy     MatchType = "fuzzy"
	MatchFulltext  MatchType = "fulltext"
	MatchSemantic  MatchType = "semantic"
	MatchWeb       MatchType = "web"
	MatchKnowledge MatchType = "knowledge"
)

// Candidate is one ranked transaction code returned for a query.
type Candidate struct {
	// Code is the transaction code (e.g., "ME21N").
	Code string `json:"code"`

	// Description is the catalog description, when catalog-backed.
	Description string `json:"description"`

	// Module is the owning application module code.
	Module string `json:"module,omitempty"`

	// RelevanceScore is the pre-model score in [0,1] from lexical/semantic
	// generation.
	RelevanceScore float64 `json:"relevance_score"`

	// Confidence is the post-model score in [0,1] after re-ranking and
	// boosting. Zero until the re-ranking stage runs.
	Confidence float64 `json:"confidence"`

	// MatchType records the producing stage.
	MatchType MatchType `json:"match_type"`

	// Explanation is the natural-language justification.
	Explanation string `json:"explanation,omitempty"`

	// CatalogVerified is false only for knowledge-only proposals from the
	// deep-reasoning fallback; downstream consumers present those distinctly.
	CatalogVerified bool `json:"catalog_verified"`
}

// Response is the produced API result.
type Response struct {
	// Results is sorted by confidence descending. Empty means "no matches",
	// which is not an error.
	Results []Candidate `json:"results"`

	// Cached reports whether the response was served from the cache.
	Cached bool `json:"cached"`
}

// Options configures a single search request.
type Options struct {
	// Limit is the maximum number of results (default from Config).
	Limit int

	// Module restricts semantic candidates to one application module.
	Module string
}

// Config holds pipeline tuning parameters. All fields have working defaults;
// construct with DefaultConfig and override as needed.
type Config struct {
	// DefaultLimit is used when Options.Limit is zero.
	DefaultLimit int
	// MaxLimit caps Options.Limit.
	MaxLimit int
	// StrategyLimit caps candidates per lexical strategy.
	StrategyLimit int

	// WebFallbackThreshold triggers web validation when the top post-judge
	// confidence is below it.
	WebFallbackThreshold float64

	// Stage budgets. Judge gets the shortest model budget, deep reasoning
	// the longest.
	ExpansionTimeout   time.Duration
	RerankTimeout      time.Duration
	JudgeTimeout       time.Duration
	WebOuterTimeout    time.Duration
	WebProviderTimeout time.Duration
	ReasoningTimeout   time.Duration
	RequestTimeout     time.Duration

	// Cache TTLs.
	ResultTTL    time.Duration
	ExpansionTTL time.Duration
	LocaleTTL    time.Duration
	FeedbackTTL  time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:         10,
		MaxLimit:             50,
		StrategyLimit:        25,
		WebFallbackThreshold: 0.5,
		ExpansionTimeout:     3 * time.Second,
		RerankTimeout:        8 * time.Second,
		JudgeTimeout:         5 * time.Second,
		WebOuterTimeout:      10 * time.Second,
		WebProviderTimeout:   6 * time.Second,
		ReasoningTimeout:     15 * time.Second,
		RequestTimeout:       30 * time.Second,
		ResultTTL:            15 * time.Minute,
		ExpansionTTL:         7 * 24 * time.Hour,
		LocaleTTL:            24 * time.Hour,
		FeedbackTTL:          10 * time.Minute,
	}
}

// clampScore clamps a score or confidence to [0,1].
func clampScore(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
