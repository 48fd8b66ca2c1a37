package search

import "strings"

// Fuse merges lexical candidates with semantic candidates from the direct
// and expanded queries into one deduplicated list. Identifiers compare
// case-insensitively. An exact lexical match always keeps its slot; among
// semantic duplicates the expanded-query hit takes priority over the direct
// hit; everywhere else the higher relevance score wins. The returned list is
// sorted by relevance descending with deterministic tie-breaking.
func Fuse(lexical, directSemantic, expandedSemantic []Candidate) []Candidate {
	merged := make(map[string]Candidate)
	upsert := func(c Candidate, wins func(existing Candidate) bool) {
		key := strings.ToUpper(c.Code)
		existing, ok := merged[key]
		if !ok || wins(existing) {
			merged[key] = c
		}
	}

	for _, c := range lexical {
		upsert(c, func(existing Candidate) bool {
			if existing.MatchType == MatchExact {
				return false
			}
			return c.MatchType == MatchExact || c.RelevanceScore > existing.RelevanceScore
		})
	}
	for _, c := range expandedSemantic {
		upsert(c, func(existing Candidate) bool {
			if existing.MatchType == MatchExact {
				return false
			}
			// Expanded-query semantic hits replace direct ones outright.
			if existing.MatchType == MatchSemantic {
				return true
			}
			return c.RelevanceScore > existing.RelevanceScore
		})
	}
	for _, c := range directSemantic {
		upsert(c, func(existing Candidate) bool {
			if existing.MatchType == MatchExact || existing.MatchType == MatchSemantic {
				return false
			}
			return c.RelevanceScore > existing.RelevanceScore
		})
	}

	out := candidateValues(merged)
	return out
}
