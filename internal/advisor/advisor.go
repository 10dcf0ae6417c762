// Package advisor implements the weekly LLM Advisor Loop (spec.md
// §4.10): aggregate last week's usage metrics against the week before,
// ask an LLM (or a heuristic fallback) which whitelisted parameters to
// adjust, persist the proposal for admin review, then apply whatever
// subset the admin approves to the Parameter Store.
package advisor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vocab-amas/internal/amaserr"
	"vocab-amas/internal/config"
	"vocab-amas/internal/llm"
	"vocab-amas/internal/obslog"
	"vocab-amas/internal/paramstore"
	"vocab-amas/internal/types"
)

// Loop wires the metrics source, the LLM client (nil means always use
// the heuristic fallback), the suggestion store, and the Parameter
// Store.
type Loop struct {
	LLM         llm.Client
	Metrics     MetricsSource
	Suggestions Store
	Params      paramstore.Store
	// Timeout bounds a single LLM call; zero means no deadline beyond
	// the caller's context.
	Timeout time.Duration
}

// RunWeekly computes the metrics snapshot for [weekEnd-7d, weekEnd),
// asks the LLM for tuning suggestions, falls back to the heuristic
// advisor on any failure, and persists the resulting suggestion batch
// with status pending (spec.md §4.10 steps 1-3).
func (l *Loop) RunWeekly(ctx context.Context, weekEnd time.Time) (types.AdvisorSuggestion, error) {
	weekStart := weekEnd.Add(-7 * 24 * time.Hour)

	metrics, err := l.Metrics.ComputeWeeklyMetrics(ctx, weekEnd)
	if err != nil {
		return types.AdvisorSuggestion{}, err
	}

	items, raw, heuristic := l.propose(ctx, metrics)

	sug := types.AdvisorSuggestion{
		ID:               uuid.NewString(),
		WeekStart:        weekStart,
		WeekEnd:          weekEnd,
		StatsSnapshot:    snapshotMetadata(metrics),
		ParsedSuggestion: items,
		RawLLMResponse:   raw,
		Status:           types.SuggestionPending,
		Heuristic:        heuristic,
	}
	if err := l.Suggestions.Record(ctx, sug); err != nil {
		return types.AdvisorSuggestion{}, err
	}
	return sug, nil
}

// propose calls the LLM and falls back to the heuristic advisor on any
// failure -- a call error, an empty response, or unparseable JSON all
// trigger the fallback, per spec.md §4.10 step 2/§7 AdvisorParseError:
// "LLM failures never abort the weekly job."
func (l *Loop) propose(ctx context.Context, metrics WeeklyMetrics) (items []types.SuggestionItem, raw string, heuristic bool) {
	if l.LLM == nil {
		return heuristicSuggestions(metrics), "", true
	}

	callCtx := ctx
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	resp, err := l.LLM.Complete(callCtx, llm.CompletionRequest{
		System: systemPrompt(),
		User:   userPrompt(metrics),
	})
	if err != nil {
		obslog.Warnf(ctx, "advisor: LLM call failed, using heuristic fallback: %v", err)
		return heuristicSuggestions(metrics), "", true
	}

	parsed, err := parseSuggestions(resp)
	if err != nil {
		obslog.Warnf(ctx, "advisor: %v: %v", amaserr.AdvisorParse(err), err)
		return heuristicSuggestions(metrics), resp, true
	}
	return parsed, resp, false
}

// Approve applies the subset of a pending suggestion's items named by
// approvedItemIDs to the Parameter Store (spec.md §4.10 step 4):
// reject targets outside the whitelist, read the real current value,
// write the suggested value, append history. The final status --
// approved/partial/rejected -- is written atomically in one Save call.
func (l *Loop) Approve(ctx context.Context, suggestionID string, approvedItemIDs []string, changedBy string) (types.AdvisorSuggestion, error) {
	sug, err := l.Suggestions.Get(ctx, suggestionID)
	if err != nil {
		return types.AdvisorSuggestion{}, err
	}

	approved := make(map[string]bool, len(approvedItemIDs))
	for _, id := range approvedItemIDs {
		approved[id] = true
	}

	var applied []string
	var skipped []types.SkippedItem
	var failed []types.FailedItem

	for _, item := range sug.ParsedSuggestion {
		if !approved[item.ID] {
			continue
		}
		if !config.IsWhitelisted(item.Target) {
			// Reason string matches the original Rust service's
			// SkippedItem.reason literally (original_source/
			// routes/llm_advisor.rs apply_suggestions_to_config), which
			// spec.md §8 scenario 6 requires verbatim.
			skipped = append(skipped, types.SkippedItem{ID: item.ID, Reason: "不支持的参数名"})
			continue
		}
		value, ok := toFloat64(item.Value)
		if !ok {
			failed = append(failed, types.FailedItem{ID: item.ID, Error: "suggestion value is not numeric"})
			continue
		}
		if _, err := l.Params.Update(ctx, item.Target, value, changedBy, item.Rationale, sug.ID); err != nil {
			failed = append(failed, types.FailedItem{ID: item.ID, Error: err.Error()})
			continue
		}
		applied = append(applied, item.ID)
	}

	sug.AppliedItems = applied
	sug.SkippedItems = skipped
	sug.FailedItems = failed
	switch {
	case len(applied) == 0:
		sug.Status = types.SuggestionRejected
	case len(skipped) == 0 && len(failed) == 0:
		sug.Status = types.SuggestionApproved
	default:
		sug.Status = types.SuggestionPartial
	}

	if err := l.Suggestions.Save(ctx, sug); err != nil {
		return types.AdvisorSuggestion{}, err
	}
	return sug, nil
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func snapshotMetadata(m WeeklyMetrics) types.Metadata {
	return types.Metadata{
		"week_start":       m.WeekStart,
		"week_end":         m.WeekEnd,
		"current_users":    m.Current.TotalUsers,
		"current_active":   m.Current.ActiveUsers,
		"current_new":      m.Current.NewUsers,
		"current_churned":  m.Current.ChurnedUsers,
		"current_accuracy": m.Current.LearningAccuracy,
		"current_avg_rt":   m.Current.AvgResponseTimeMs,
		"current_alert":    m.Current.AlertRatio,
		"prior_users":      m.Prior.TotalUsers,
		"prior_active":     m.Prior.ActiveUsers,
		"prior_accuracy":   m.Prior.LearningAccuracy,
		"prior_alert":      m.Prior.AlertRatio,
	}
}
