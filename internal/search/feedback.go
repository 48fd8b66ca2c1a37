package search

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/Aman-CERP/tcodefinder/internal/cache"
	"github.com/Aman-CERP/tcodefinder/internal/catalog"
)

const (
	feedbackStep  = 0.15
	feedbackFloor = 0.7
	feedbackCeil  = 1.5
)

// FeedbackBooster adjusts confidences from accumulated up/down votes. Vote
// sums are cached briefly per code; a failed lookup leaves scores neutral.
type FeedbackBooster struct {
	feedback catalog.FeedbackStore
	cache    cache.Store
	ttl      time.Duration
	logger   *slog.Logger
}

// NewFeedbackBooster builds a booster. A nil store disables the stage.
func NewFeedbackBooster(feedback catalog.FeedbackStore, store cache.Store, ttl time.Duration, logger *slog.Logger) *FeedbackBooster {
	return &FeedbackBooster{feedback: feedback, cache: store, ttl: ttl, logger: logger}
}

// BoostFactor maps a net vote count to a confidence multiplier. It grows
// logarithmically, is monotonic in the net count, and is clamped to
// [0.7, 1.5]. Zero net votes is exactly neutral.
func BoostFactor(net int) float64 {
	if net == 0 {
		return 1.0
	}
	sign := 1.0
	if net < 0 {
		sign = -1.0
	}
	factor := 1.0 + feedbackStep*math.Log(1+math.Abs(float64(net)))*sign
	if factor < feedbackFloor {
		return feedbackFloor
	}
	if factor > feedbackCeil {
		return feedbackCeil
	}
	return factor
}

// Boost multiplies each candidate's confidence by its feedback factor,
// capped at 0.99. Returns a new slice; on any lookup failure candidates
// pass through unchanged.
func (b *FeedbackBooster) Boost(ctx context.Context, candidates []Candidate) []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	if b.feedback == nil || len(out) == 0 {
		return out
	}

	counts := make(map[string]catalog.VoteCount, len(out))
	var missing []string
	for _, c := range out {
		if vc, ok := cache.GetJSON[catalog.VoteCount](ctx, b.cache, cache.NamespaceFeedback, c.Code); ok {
			counts[c.Code] = vc
		} else {
			missing = append(missing, c.Code)
		}
	}
	if len(missing) > 0 {
		fetched, err := b.feedback.SumVotes(ctx, missing)
		if err != nil {
			b.logger.Warn("feedback lookup failed, scores unchanged", "error", err)
			return out
		}
		for _, code := range missing {
			vc := fetched[code]
			vc.Code = code
			counts[code] = vc
			cache.SetJSON(ctx, b.cache, cache.NamespaceFeedback, code, vc, b.ttl)
		}
	}

	for i := range out {
		factor := BoostFactor(counts[out[i].Code].Net())
		if factor == 1.0 {
			continue
		}
		out[i].Confidence = min(out[i].Confidence*factor, 0.99)
	}
	return out
}
