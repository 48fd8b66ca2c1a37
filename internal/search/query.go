package search

import "strings"

// normalizeQuery trims and collapses interior whitespace. It does not change
// case; case normalization happens per stage where it matters.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// queryTerms splits a query into lowercase terms longer than two characters.
// Short connective words carry no signal for matching.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `.,;:!?"'()[]{}`)
		if len(f) > 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

// containsTerm reports whether term occurs in the haystack, case-insensitively.
func containsTerm(haystack, term string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(term))
}
