package search

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Aman-CERP/tcodefinder/internal/cache"
	"github.com/Aman-CERP/tcodefinder/internal/catalog"
)

const (
	localeBoostFactor   = 1.5
	localeBoostCeiling  = 0.99
	localePenaltyFactor = 0.5
)

// localeTableKey caches the whole alias table under one entry; the table is
// small and changes rarely.
const localeTableKey = "table"

// localeSuffixPatterns locate a country digram embedded in a transaction
// code: an underscore-separated suffix ("RFUMSV00_AR") or a digit followed
// by a two-letter tail ("OBB8AR" style localization variants).
var localeSuffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`_([A-Z]{2})$`),
	regexp.MustCompile(`[0-9]([A-Z]{2})$`),
}

// LocaleMatch is one locale mention detected in a query.
type LocaleMatch struct {
	Locale catalog.Locale
	// Term is the query fragment that triggered the match.
	Term string
}

// LocaleBooster detects country and locale mentions in the query and
// adjusts candidates whose codes carry a locale-specific digram: matching
// the requested locale multiplies confidence and relevance by 1.5 (capped at
// 0.99/1.0), carrying a different known locale halves both.
type LocaleBooster struct {
	locales catalog.LocaleStore
	cache   cache.Store
	ttl     time.Duration
	logger  *slog.Logger
}

// NewLocaleBooster builds a booster. A nil store disables the stage.
func NewLocaleBooster(locales catalog.LocaleStore, store cache.Store, ttl time.Duration, logger *slog.Logger) *LocaleBooster {
	return &LocaleBooster{locales: locales, cache: store, ttl: ttl, logger: logger}
}

// table returns the locale alias table, served from cache when possible.
// Lookup failure returns an empty table; the stage then becomes a no-op.
func (b *LocaleBooster) table(ctx context.Context) []catalog.Locale {
	if b.locales == nil {
		return nil
	}
	if cached, ok := cache.GetJSON[[]catalog.Locale](ctx, b.cache, cache.NamespaceLocale, localeTableKey); ok {
		return cached
	}
	locales, err := b.locales.ListLocales(ctx)
	if err != nil {
		b.logger.Warn("locale table lookup failed", "error", err)
		return nil
	}
	cache.SetJSON(ctx, b.cache, cache.NamespaceLocale, localeTableKey, locales, b.ttl)
	return locales
}

// Detect returns all locale mentions found in the query, in alias-table
// order. A locale matches on its ISO code as an exact word, its canonical
// name as a substring, or any alias as an exact word.
func (b *LocaleBooster) Detect(ctx context.Context, query string) []LocaleMatch {
	locales := b.table(ctx)
	if len(locales) == 0 {
		return nil
	}

	lower := strings.ToLower(query)
	words := make(map[string]bool)
	for _, w := range strings.Fields(lower) {
		words[strings.Trim(w, `.,;:!?"'()`)] = true
	}

	var matches []LocaleMatch
	for _, loc := range locales {
		if words[strings.ToLower(loc.ISOCode)] {
			matches = append(matches, LocaleMatch{Locale: loc, Term: loc.ISOCode})
			continue
		}
		if name := strings.ToLower(loc.Name); name != "" && strings.Contains(lower, name) {
			matches = append(matches, LocaleMatch{Locale: loc, Term: loc.Name})
			continue
		}
		for _, alias := range loc.Aliases {
			if words[strings.ToLower(alias)] {
				matches = append(matches, LocaleMatch{Locale: loc, Term: alias})
				break
			}
		}
	}
	return matches
}

// Boost applies locale adjustment to a copy of candidates. Without a locale
// mention in the query, or without a locale table, candidates pass through
// unchanged. Candidates whose codes carry no recognizable locale digram are
// never touched.
func (b *LocaleBooster) Boost(ctx context.Context, query string, candidates []Candidate) []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)

	matches := b.Detect(ctx, query)
	if len(matches) == 0 {
		return out
	}
	active := strings.ToUpper(matches[0].Locale.ISOCode)

	known := make(map[string]bool)
	for _, loc := range b.table(ctx) {
		known[strings.ToUpper(loc.ISOCode)] = true
	}

	for i := range out {
		digram := localeDigram(out[i].Code)
		if digram == "" || !known[digram] {
			continue
		}
		if digram == active {
			out[i].Confidence = min(out[i].Confidence*localeBoostFactor, localeBoostCeiling)
			out[i].RelevanceScore = clampScore(out[i].RelevanceScore * localeBoostFactor)
		} else {
			out[i].Confidence = clampScore(out[i].Confidence * localePenaltyFactor)
			out[i].RelevanceScore = clampScore(out[i].RelevanceScore * localePenaltyFactor)
		}
	}
	return out
}

// localeDigram extracts the country digram from a code, or "" when the code
// carries none.
func localeDigram(code string) string {
	code = strings.ToUpper(code)
	for _, pattern := range localeSuffixPatterns {
		if m := pattern.FindStringSubmatch(code); m != nil {
			return m[1]
		}
	}
	return ""
}
