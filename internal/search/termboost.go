package search

const (
	termBoostStep = 0.05
	termBoostCap  = 0.15
)

// ApplyTermBoost rewards candidates whose code or description contains the
// query's meaningful terms: +0.05 per matched term, at most +0.15, never
// pushing confidence past 1.0. Pure function; the input slice is not
// modified.
func ApplyTermBoost(query string, candidates []Candidate) []Candidate {
	terms := queryTerms(query)
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	if len(terms) == 0 {
		return out
	}
	for i := range out {
		boost := 0.0
		for _, term := range terms {
			if containsTerm(out[i].Code, term) || containsTerm(out[i].Description, term) {
				boost += termBoostStep
			}
		}
		if boost > termBoostCap {
			boost = termBoostCap
		}
		out[i].Confidence = clampScore(out[i].Confidence + boost)
	}
	return out
}
