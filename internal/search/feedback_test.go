package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/tcodefinder/internal/catalog"
)

func TestBoostFactorNeutralAtZero(t *testing.T) {
	assert.Equal(t, 1.0, BoostFactor(0))
}

func TestBoostFactorMonotonicAndClamped(t *testing.T) {
	prev := BoostFactor(-1000)
	for net := -999; net <= 1000; net++ {
		f := BoostFactor(net)
		assert.GreaterOrEqual(t, f, prev, "factor must be monotonic in net votes (net=%d)", net)
		assert.GreaterOrEqual(t, f, 0.7)
		assert.LessOrEqual(t, f, 1.5)
		prev = f
	}
}

func TestBoostFactorSymmetry(t *testing.T) {
	up := BoostFactor(5)
	down := BoostFactor(-5)
	assert.Greater(t, up, 1.0)
	assert.Less(t, down, 1.0)
	assert.InDelta(t, up-1.0, 1.0-down, 1e-9)
}

func TestFeedbackBoostAppliesVotes(t *testing.T) {
	store := &fakeStore{votes: map[string]catalog.VoteCount{
		"ME21N": {Code: "ME21N", Upvotes: 4, Downvotes: 1},
		"VA01":  {Code: "VA01", Upvotes: 0, Downvotes: 3},
	}}
	b := NewFeedbackBooster(store, testCache(), time.Minute, testLogger())

	got := b.Boost(context.Background(), []Candidate{
		{Code: "ME21N", Confidence: 0.6},
		{Code: "VA01", Confidence: 0.6},
		{Code: "FB60", Confidence: 0.6},
	})
	require.Len(t, got, 3)
	assert.InDelta(t, 0.6*BoostFactor(3), got[0].Confidence, 1e-9)
	assert.InDelta(t, 0.6*BoostFactor(-3), got[1].Confidence, 1e-9)
	assert.Equal(t, 0.6, got[2].Confidence, "no votes leaves confidence untouched")
}

func TestFeedbackBoostCapped(t *testing.T) {
	store := &fakeStore{votes: map[string]catalog.VoteCount{
		"ME21N": {Code: "ME21N", Upvotes: 500},
	}}
	b := NewFeedbackBooster(store, testCache(), time.Minute, testLogger())
	got := b.Boost(context.Background(), []Candidate{{Code: "ME21N", Confidence: 0.95}})
	assert.InDelta(t, 0.99, got[0].Confidence, 1e-9)
}

func TestFeedbackBoostLookupFailureIsNeutral(t *testing.T) {
	store := &fakeStore{err: assert.AnError}
	b := NewFeedbackBooster(store, testCache(), time.Minute, testLogger())
	input := []Candidate{{Code: "ME21N", Confidence: 0.6}}
	got := b.Boost(context.Background(), input)
	assert.Equal(t, input, got)
}

func TestFeedbackBoostUsesCache(t *testing.T) {
	store := &fakeStore{votes: map[string]catalog.VoteCount{
		"ME21N": {Code: "ME21N", Upvotes: 2},
	}}
	b := NewFeedbackBooster(store, testCache(), time.Minute, testLogger())
	ctx := context.Background()

	first := b.Boost(ctx, []Candidate{{Code: "ME21N", Confidence: 0.6}})
	// Break the store; cached vote sums must keep serving.
	store.err = assert.AnError
	second := b.Boost(ctx, []Candidate{{Code: "ME21N", Confidence: 0.6}})
	assert.Equal(t, first[0].Confidence, second[0].Confidence)
}

func TestFeedbackBoostDisabledWithoutStore(t *testing.T) {
	b := NewFeedbackBooster(nil, testCache(), time.Minute, testLogger())
	input := []Candidate{{Code: "ME21N", Confidence: 0.6}}
	got := b.Boost(context.Background(), input)
	assert.Equal(t, input, got)
}
