package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/tcodefinder/internal/catalog"
	tferrors "github.com/Aman-CERP/tcodefinder/internal/errors"
)

// LexicalGenerator produces candidates from the catalog using three parallel
// strategies: exact code equality, fuzzy prefix/substring code matching, and
// full-text matching over descriptions. A failing strategy contributes
// nothing; the others still run.
type LexicalGenerator struct {
	store    catalog.Store
	fulltext *catalog.FulltextIndex
	limit    int
	logger   *slog.Logger
}

// NewLexicalGenerator builds a generator with the given per-strategy limit.
func NewLexicalGenerator(store catalog.Store, fulltext *catalog.FulltextIndex, limit int, logger *slog.Logger) *LexicalGenerator {
	if limit <= 0 {
		limit = 25
	}
	return &LexicalGenerator{store: store, fulltext: fulltext, limit: limit, logger: logger}
}

// Generate runs all strategies and merges their output. Within the merged
// set an exact match always owns its slot; otherwise the highest score wins,
// and a code surfaced by more than one strategy gets a 20% corroboration
// boost capped at 1.0. An error is returned only when every store-backed
// strategy failed and nothing was found, which means the catalog itself is
// unreachable.
func (g *LexicalGenerator) Generate(ctx context.Context, query string) ([]Candidate, error) {
	query = normalizeQuery(query)
	if query == "" {
		return nil, nil
	}

	var (
		exact, fuzzy, fulltext []Candidate
		exactErr, fuzzyErr     error
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		exact, exactErr = g.exactMatch(gctx, query)
		return nil
	})
	eg.Go(func() error {
		fuzzy, fuzzyErr = g.fuzzyMatch(gctx, query)
		return nil
	})
	eg.Go(func() error {
		fulltext = g.fulltextMatch(gctx, query)
		return nil
	})
	_ = eg.Wait()

	merged := g.merge(exact, fuzzy, fulltext)
	if len(merged) == 0 && exactErr != nil && fuzzyErr != nil {
		return nil, tferrors.New(tferrors.ErrCodeUpstreamUnavailable,
			"catalog unreachable", errors.Join(exactErr, fuzzyErr))
	}
	return merged, nil
}

func (g *LexicalGenerator) exactMatch(ctx context.Context, query string) ([]Candidate, error) {
	code := strings.ToUpper(strings.ReplaceAll(query, " ", ""))
	entry, err := g.store.FindExact(ctx, code)
	if err != nil {
		g.logger.Warn("exact match lookup failed", "error", err)
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	return []Candidate{entryCandidate(entry, 1.0, MatchExact)}, nil
}

// fuzzyMatch fails only when both of its lookups do; a single failing lookup
// degrades to the other's results.
func (g *LexicalGenerator) fuzzyMatch(ctx context.Context, query string) ([]Candidate, error) {
	frag := strings.ToUpper(strings.ReplaceAll(query, " ", ""))
	if frag == "" {
		return nil, nil
	}

	byCode := make(map[string]Candidate)
	add := func(entry *catalog.Entry, score float64) {
		if score < 0.1 {
			score = 0.1
		}
		key := strings.ToUpper(entry.Code)
		if existing, ok := byCode[key]; ok && existing.RelevanceScore >= score {
			return
		}
		byCode[key] = entryCandidate(entry, score, MatchFuzzy)
	}

	prefixed, prefixErr := g.store.FindByPrefix(ctx, frag, g.limit)
	if prefixErr != nil {
		g.logger.Warn("prefix match lookup failed", "error", prefixErr)
	}
	for _, entry := range prefixed {
		extra := len(entry.Code) - len(frag)
		if extra == 0 {
			add(entry, 1.0)
			continue
		}
		add(entry, 0.9-0.01*float64(extra))
	}

	contained, subErr := g.store.FindBySubstring(ctx, frag, g.limit)
	if subErr != nil {
		g.logger.Warn("substring match lookup failed", "error", subErr)
	}
	for _, entry := range contained {
		extra := len(entry.Code) - len(frag)
		add(entry, 0.7-0.01*float64(extra))
	}

	if prefixErr != nil && subErr != nil {
		return nil, errors.Join(prefixErr, subErr)
	}

	out := candidateValues(byCode)
	if len(out) > g.limit {
		out = out[:g.limit]
	}
	return out, nil
}

func (g *LexicalGenerator) fulltextMatch(ctx context.Context, query string) []Candidate {
	if g.fulltext == nil {
		return nil
	}
	words := queryTerms(query)
	if len(words) == 0 {
		return nil
	}
	codes, err := g.fulltext.Match(ctx, words, g.limit)
	if err != nil {
		g.logger.Warn("fulltext match failed", "error", err)
		return nil
	}
	if len(codes) == 0 {
		return nil
	}
	entries, err := g.store.FindByIn(ctx, codes)
	if err != nil {
		g.logger.Warn("fulltext entry lookup failed", "error", err)
		return nil
	}

	allWords := strings.Fields(strings.ToLower(query))
	out := make([]Candidate, 0, len(entries))
	for _, entry := range entries {
		text := strings.ToLower(entry.Code + " " + entry.Description)
		matched := 0
		for _, w := range allWords {
			if strings.Contains(text, w) {
				matched++
			}
		}
		score := float64(matched) / float64(len(allWords)) * 0.8
		if score < 0.1 {
			score = 0.1
		}
		out = append(out, entryCandidate(entry, score, MatchFulltext))
	}
	return out
}

func (g *LexicalGenerator) merge(strategies ...[]Candidate) []Candidate {
	merged := make(map[string]Candidate)
	seenBy := make(map[string]int)
	for _, list := range strategies {
		inList := make(map[string]bool)
		for _, c := range list {
			key := strings.ToUpper(c.Code)
			if !inList[key] {
				inList[key] = true
				seenBy[key]++
			}
			existing, ok := merged[key]
			if !ok {
				merged[key] = c
				continue
			}
			if existing.MatchType == MatchExact {
				continue
			}
			if c.MatchType == MatchExact || c.RelevanceScore > existing.RelevanceScore {
				merged[key] = c
			}
		}
	}

	out := make([]Candidate, 0, len(merged))
	for key, c := range merged {
		if seenBy[key] > 1 {
			c.RelevanceScore = clampScore(c.RelevanceScore * 1.2)
		}
		out = append(out, c)
	}
	sortCandidates(out)
	return out
}

func entryCandidate(entry *catalog.Entry, score float64, mt MatchType) Candidate {
	return Candidate{
		Code:            strings.ToUpper(entry.Code),
		Description:     entry.Description,
		Module:          entry.Module,
		RelevanceScore:  clampScore(score),
		MatchType:       mt,
		CatalogVerified: true,
	}
}

func candidateValues(m map[string]Candidate) []Candidate {
	out := make([]Candidate, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	sortCandidates(out)
	return out
}

// sortCandidates orders by relevance descending, breaking ties by code for
// deterministic output.
func sortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].RelevanceScore != cs[j].RelevanceScore {
			return cs[i].RelevanceScore > cs[j].RelevanceScore
		}
		return cs[i].Code < cs[j].Code
	})
}
