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

const judgeSystemPrompt = `You audit ranked ERP transaction-code results.
You receive a query and the top candidates with their confidences and
explanations. For each candidate that needs correction, return an object with
"code" and the fields to change: "confidence" (number between 0 and 1) and/or
"explanation". Leave out any field you would keep. Candidates you agree with
may be omitted entirely. Respond with a JSON array only.`

// judgeTopN is how many of the leading candidates get audited.
const judgeTopN = 5

// Judge runs a second, shorter model pass over the top-ranked candidates to
// correct implausible confidences or explanations. Field-level: a null or
// missing field leaves the current value untouched. On failure the pre-judge
// ranking stands.
type Judge struct {
	client llm.Client
	budget time.Duration
	logger *slog.Logger
}

// NewJudge builds a judge. A nil client makes Audit a no-op copy.
func NewJudge(client llm.Client, budget time.Duration, logger *slog.Logger) *Judge {
	return &Judge{client: client, budget: budget, logger: logger}
}

type judgeItem struct {
	Code        string   `json:"code"`
	Confidence  *float64 `json:"confidence"`
	Explanation *string  `json:"explanation"`
}

// Audit returns a new slice with any model corrections applied to the top
// candidates. The rest pass through unchanged.
func (j *Judge) Audit(ctx context.Context, query string, candidates []Candidate) []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	if j.client == nil || len(out) == 0 {
		return out
	}

	top := out
	if len(top) > judgeTopN {
		top = top[:judgeTopN]
	}
	payload := make([]map[string]any, len(top))
	for i, c := range top {
		payload[i] = map[string]any{
			"code":        c.Code,
			"description": c.Description,
			"confidence":  c.Confidence,
			"explanation": c.Explanation,
		}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return out
	}
	userPrompt := fmt.Sprintf("Query: %s\n\nRanked candidates:\n%s", query, encoded)

	raw, ok := boundedCall(ctx, j.logger, "judge", j.budget, "", func(callCtx context.Context) (string, error) {
		return j.client.Complete(callCtx, judgeSystemPrompt, userPrompt, true)
	})
	if !ok {
		return out
	}

	var items []judgeItem
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &items); err != nil {
		j.logger.Warn("judge response unparseable, keeping ranking",
			"error", tferrors.MalformedError("judge response", err))
		return out
	}
	byCode := make(map[string]judgeItem, len(items))
	for _, item := range items {
		byCode[strings.ToUpper(item.Code)] = item
	}
	audited := len(top)
	for i := 0; i < audited; i++ {
		item, found := byCode[strings.ToUpper(out[i].Code)]
		if !found {
			continue
		}
		if item.Confidence != nil {
			out[i].Confidence = clampScore(*item.Confidence)
		}
		if item.Explanation != nil && strings.TrimSpace(*item.Explanation) != "" {
			out[i].Explanation = strings.TrimSpace(*item.Explanation)
		}
	}
	return out
}
