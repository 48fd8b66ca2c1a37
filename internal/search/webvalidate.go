package search

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/tcodefinder/internal/catalog"
	"github.com/Aman-CERP/tcodefinder/internal/websearch"
)

// codePattern matches transaction-code shaped tokens in web text: an upper
// letter followed by up to 19 upper letters, digits or underscores.
var codePattern = regexp.MustCompile(`\b[A-Z][A-Z0-9_]{1,19}\b`)

// codeStopwords are code-shaped tokens that appear constantly in web copy
// about ERP systems without naming a transaction.
var codeStopwords = map[string]bool{
	"SAP": true, "ERP": true, "THE": true, "AND": true, "FOR": true,
	"WITH": true, "CODE": true, "CODES": true, "TCODE": true, "TCODES": true,
	"TRANSACTION": true, "MODULE": true, "TABLE": true, "REPORT": true,
	"HOW": true, "WHAT": true, "USE": true, "GUI": true, "FAQ": true,
}

const (
	webNewConfidence   = 0.6
	webBoostFactor     = 1.15
	webBoostCeiling    = 0.95
	webExplanationBase = "Mentioned in current web results for this query."
)

// webQueryPrefix anchors provider queries to the ERP domain so generic user
// text still pulls transaction-code results. Its words are all in
// codeStopwords, so the template never feeds token extraction.
const webQueryPrefix = "SAP transaction code "

// WebValidator queries external search providers when ranking confidence is
// low, extracts code-shaped tokens from the snippets, verifies them against
// the catalog, and folds validated hits back into the result set. Provider
// calls run in parallel, each raced against its own deadline under one outer
// budget; a provider that fails or stalls simply contributes nothing.
type WebValidator struct {
	providers   []websearch.Provider
	store       catalog.Store
	perBudget   time.Duration
	outerBudget time.Duration
	logger      *slog.Logger
}

// NewWebValidator builds a validator. With no providers Validate passes
// candidates through unchanged.
func NewWebValidator(providers []websearch.Provider, store catalog.Store, perBudget, outerBudget time.Duration, logger *slog.Logger) *WebValidator {
	return &WebValidator{
		providers:   providers,
		store:       store,
		perBudget:   perBudget,
		outerBudget: outerBudget,
		logger:      logger,
	}
}

// Enabled reports whether at least one provider is configured.
func (v *WebValidator) Enabled() bool {
	return len(v.providers) > 0
}

// Validate merges catalog-verified web findings into candidates. Codes
// already present get their confidence raised by 15% up to 0.95; codes new
// to the result set enter with confidence 0.6. It also returns the raw
// snippets fetched, for use by later fallback stages. The input slice is not
// modified.
func (v *WebValidator) Validate(ctx context.Context, query string, candidates []Candidate) ([]Candidate, []websearch.Result) {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	if !v.Enabled() {
		return out, nil
	}

	results := v.fetch(ctx, query)
	if len(results) == 0 {
		return out, nil
	}

	tokens := v.extractTokens(query, results)
	if len(tokens) == 0 {
		return out, results
	}
	entries, err := v.store.FindByIn(ctx, tokens)
	if err != nil {
		v.logger.Warn("web token validation lookup failed", "error", err)
		return out, results
	}
	if len(entries) == 0 {
		return out, results
	}

	present := make(map[string]int, len(out))
	for i, c := range out {
		present[strings.ToUpper(c.Code)] = i
	}
	for _, entry := range entries {
		key := strings.ToUpper(entry.Code)
		if i, ok := present[key]; ok {
			boosted := out[i].Confidence * webBoostFactor
			if boosted > webBoostCeiling {
				boosted = webBoostCeiling
			}
			if boosted > out[i].Confidence {
				out[i].Confidence = boosted
			}
			continue
		}
		c := entryCandidate(entry, webNewConfidence, MatchWeb)
		c.Confidence = webNewConfidence
		c.Explanation = webExplanationBase
		present[key] = len(out)
		out = append(out, c)
	}
	return out, results
}

// fetch queries all providers in parallel under the outer budget and returns
// their results in provider configuration order, which keeps downstream
// token extraction deterministic. Providers receive the templated domain
// query, not the bare user text.
func (v *WebValidator) fetch(ctx context.Context, query string) []websearch.Result {
	outerCtx, cancel := context.WithTimeout(ctx, v.outerBudget)
	defer cancel()

	providerQuery := webQueryPrefix + query

	perProvider := make([][]websearch.Result, len(v.providers))
	var mu sync.Mutex
	eg, gctx := errgroup.WithContext(outerCtx)
	for i, p := range v.providers {
		eg.Go(func() error {
			results, ok := boundedCall(gctx, v.logger, "websearch/"+p.Name(), v.perBudget, nil, func(callCtx context.Context) ([]websearch.Result, error) {
				return p.Search(callCtx, providerQuery)
			})
			if !ok {
				return nil
			}
			mu.Lock()
			perProvider[i] = results
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	var all []websearch.Result
	for _, results := range perProvider {
		all = append(all, results...)
	}
	return all
}

// extractTokens pulls code-shaped tokens from titles and snippets in
// first-seen order, dropping stopwords and the query's own uppercased words.
func (v *WebValidator) extractTokens(query string, results []websearch.Result) []string {
	queryWords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToUpper(query)) {
		queryWords[w] = true
	}

	seen := make(map[string]bool)
	var tokens []string
	for _, r := range results {
		for _, token := range codePattern.FindAllString(r.Title+" "+r.Snippet, -1) {
			if codeStopwords[token] || queryWords[token] || seen[token] {
				continue
			}
			seen[token] = true
			tokens = append(tokens, token)
		}
	}
	return tokens
}
