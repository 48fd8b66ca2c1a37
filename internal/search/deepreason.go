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
	"github.com/Aman-CERP/tcodefinder/internal/websearch"
)

const reasoningSystemPrompt = `You are an ERP transaction-code expert.
The catalog search produced nothing useful for the user's query. Using your
own knowledge of transaction codes, and the web snippets if provided,
propose the most likely codes. For each, return an object with "code",
"description", "module" (the owning application module, or empty),
"confidence" (number between 0 and 1) and "explanation" (one sentence).
Only propose codes you genuinely believe exist. Respond with a JSON array
only; return [] if you have no credible proposal.`

// reasoningCeiling caps confidence for proposals that never touched the
// catalog.
const reasoningCeiling = 0.85

// DeepReasoner is the last-resort stage: when retrieval yields nothing, ask
// the model to propose codes from its own knowledge. Proposals are marked
// unverified and capped below catalog-backed confidence levels.
type DeepReasoner struct {
	client llm.Client
	budget time.Duration
	logger *slog.Logger
}

// NewDeepReasoner builds a reasoner. A nil client disables the stage.
func NewDeepReasoner(client llm.Client, budget time.Duration, logger *slog.Logger) *DeepReasoner {
	return &DeepReasoner{client: client, budget: budget, logger: logger}
}

// Enabled reports whether the stage can run.
func (d *DeepReasoner) Enabled() bool {
	return d.client != nil
}

type reasoningItem struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Module      string  `json:"module"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// Propose asks the model for candidates outside the catalog's reach. Web
// snippets, when available from a prior validation attempt, ground the
// prompt; a proposal named by one of them is tagged web-corroborated, the
// rest stay knowledge-only. Returns an empty list on any failure.
func (d *DeepReasoner) Propose(ctx context.Context, query string, snippets []websearch.Result) []Candidate {
	if !d.Enabled() {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Query: %s\n", query)
	if len(snippets) > 0 {
		sb.WriteString("\nWeb snippets:\n")
		for _, s := range snippets {
			fmt.Fprintf(&sb, "- %s: %s\n", s.Title, s.Snippet)
		}
	}

	raw, ok := boundedCall(ctx, d.logger, "deep-reasoning", d.budget, "", func(callCtx context.Context) (string, error) {
		return d.client.Complete(callCtx, reasoningSystemPrompt, sb.String(), true)
	})
	if !ok {
		return nil
	}

	var items []reasoningItem
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &items); err != nil {
		d.logger.Warn("reasoning response unparseable",
			"error", tferrors.MalformedError("reasoning response", err))
		return nil
	}

	seen := make(map[string]bool, len(items))
	out := make([]Candidate, 0, len(items))
	for _, item := range items {
		code := strings.ToUpper(strings.TrimSpace(item.Code))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		confidence := clampScore(item.Confidence)
		if confidence > reasoningCeiling {
			confidence = reasoningCeiling
		}
		explanation := strings.TrimSpace(item.Explanation)
		if explanation == "" {
			explanation = fallbackExplanation
		}
		matchType := MatchKnowledge
		if snippetsMention(snippets, code) {
			matchType = MatchWeb
		}
		out = append(out, Candidate{
			Code:            code,
			Description:     strings.TrimSpace(item.Description),
			Module:          strings.ToUpper(strings.TrimSpace(item.Module)),
			RelevanceScore:  confidence,
			Confidence:      confidence,
			MatchType:       matchType,
			Explanation:     explanation,
			CatalogVerified: false,
		})
	}
	return out
}

// snippetsMention reports whether any fetched snippet names the code. The
// check is textual, not a model claim, so the web-corroborated tag stays
// deterministic.
func snippetsMention(snippets []websearch.Result, code string) bool {
	for _, s := range snippets {
		if strings.Contains(strings.ToUpper(s.Title+" "+s.Snippet), code) {
			return true
		}
	}
	return false
}
