package search

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/Aman-CERP/tcodefinder/internal/cache"
	"github.com/Aman-CERP/tcodefinder/internal/catalog"
	"github.com/Aman-CERP/tcodefinder/internal/websearch"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCache() cache.Store {
	return cache.NewMemoryStore(128)
}

// fakeStore is an in-memory catalog for pipeline tests. It also serves the
// feedback and locale interfaces.
type fakeStore struct {
	entries []*catalog.Entry
	votes   map[string]catalog.VoteCount
	locales []catalog.Locale
	err     error
}

func (f *fakeStore) FindExact(_ context.Context, code string) (*catalog.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.entries {
		if strings.EqualFold(e.Code, code) && !e.Deprecated {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindByPrefix(_ context.Context, prefix string, limit int) ([]*catalog.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*catalog.Entry
	for _, e := range f.entries {
		if len(out) == limit {
			break
		}
		if !e.Deprecated && strings.HasPrefix(strings.ToUpper(e.Code), strings.ToUpper(prefix)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) FindBySubstring(_ context.Context, fragment string, limit int) ([]*catalog.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*catalog.Entry
	for _, e := range f.entries {
		if len(out) == limit {
			break
		}
		if !e.Deprecated && strings.Contains(strings.ToUpper(e.Code), strings.ToUpper(fragment)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) FindByIn(_ context.Context, codes []string) ([]*catalog.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[strings.ToUpper(c)] = true
	}
	var out []*catalog.Entry
	for _, e := range f.entries {
		if !e.Deprecated && want[strings.ToUpper(e.Code)] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]*catalog.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*catalog.Entry
	for _, e := range f.entries {
		if !e.Deprecated {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) SumVotes(_ context.Context, codes []string) (map[string]catalog.VoteCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]catalog.VoteCount)
	for _, c := range codes {
		if vc, ok := f.votes[strings.ToUpper(c)]; ok {
			out[strings.ToUpper(c)] = vc
		}
	}
	return out, nil
}

func (f *fakeStore) ListLocales(_ context.Context) ([]catalog.Locale, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.locales, nil
}

// fakeLLM answers every completion with a fixed function. calls counts
// invocations.
type fakeLLM struct {
	respond func(system, user string, jsonMode bool) (string, error)
	calls   atomic.Int64
}

func (f *fakeLLM) Complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	f.calls.Add(1)
	if f.respond == nil {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.respond(system, user, jsonMode)
}

// stuckLLM never answers; it forces the deadline path.
type stuckLLM struct{}

func (stuckLLM) Complete(ctx context.Context, _, _ string, _ bool) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// fakeEmbedder returns fixed vectors per exact text, falling back to a unit
// vector for unknown inputs.
type fakeEmbedder struct {
	dims    int
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	v := make([]float32, f.dims)
	v[0] = 1
	return v, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int                { return f.dims }
func (f *fakeEmbedder) ModelName() string              { return "fake-embed" }
func (f *fakeEmbedder) Available(context.Context) bool { return true }
func (f *fakeEmbedder) Close() error                   { return nil }

// fakeProvider returns canned web results and remembers the query it was
// asked.
type fakeProvider struct {
	name    string
	results []websearch.Result
	err     error

	lastQuery string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(_ context.Context, query string) ([]websearch.Result, error) {
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}
