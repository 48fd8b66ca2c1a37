package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tferrors "github.com/Aman-CERP/tcodefinder/internal/errors"
	"github.com/Aman-CERP/tcodefinder/internal/llm"
)

const rerankSystemPrompt = `You rank ERP transaction codes against a user query.
You receive the query and a JSON array of candidate codes with descriptions.
For every candidate return an object with fields "code", "confidence" (a
number between 0 and 1 for how well it answers the query) and "explanation"
(one short sentence for an end user). Respond with a JSON array only.`

// fallbackExplanation is used whenever no model-written justification exists.
const fallbackExplanation = "Matches based on description similarity."

// Reranker asks the reasoning model to assign confidences and explanations
// to fused candidates. The whole stage is budgeted; on any failure every
// candidate falls back deterministically to its retrieval relevance score.
type Reranker struct {
	client llm.Client
	budget time.Duration
	logger *slog.Logger
}

// NewReranker builds a reranker. A nil client makes Rerank apply the
// deterministic fallback to all candidates.
func NewReranker(client llm.Client, budget time.Duration, logger *slog.Logger) *Reranker {
	return &Reranker{client: client, budget: budget, logger: logger}
}

type rerankItem struct {
	Code        string  `json:"code"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// Rerank returns a new slice with Confidence and Explanation populated for
// every input candidate. Candidates the model omits, and all candidates when
// the model fails or exceeds its budget, keep their relevance score as the
// confidence with a generic explanation. Input order is preserved.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []Candidate) []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		out[i].Confidence = out[i].RelevanceScore
		out[i].Explanation = fallbackExplanation
	}
	if r.client == nil || len(out) == 0 {
		return out
	}

	payload := make([]map[string]string, len(candidates))
	for i, c := range candidates {
		payload[i] = map[string]string{"code": c.Code, "description": c.Description}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return out
	}
	userPrompt := fmt.Sprintf("Query: %s\n\nCandidates:\n%s", query, encoded)

	raw, ok := boundedCall(ctx, r.logger, "rerank", r.budget, "", func(callCtx context.Context) (string, error) {
		return r.client.Complete(callCtx, rerankSystemPrompt, userPrompt, true)
	})
	if !ok {
		return out
	}

	var items []rerankItem
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &items); err != nil {
		r.logger.Warn("rerank response unparseable, using fallback scores",
			"error", tferrors.MalformedError("rerank response", err))
		return out
	}
	byCode := make(map[string]rerankItem, len(items))
	for _, item := range items {
		byCode[strings.ToUpper(item.Code)] = item
	}
	for i := range out {
		item, found := byCode[strings.ToUpper(out[i].Code)]
		if !found {
			continue
		}
		out[i].Confidence = clampScore(item.Confidence)
		if strings.TrimSpace(item.Explanation) != "" {
			out[i].Explanation = strings.TrimSpace(item.Explanation)
		}
	}
	return out
}
