package advisor

import (
	"fmt"
	"sort"
	"strings"

	"vocab-amas/internal/config"
)

// systemPrompt enumerates the closed whitelist of tunable parameter
// keys and their valid ranges, so the model only ever proposes targets
// the Parameter Store is willing to accept (spec.md §4.10 step 2:
// "allowed parameter keys (a closed whitelist) and their semantics").
func systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a tuning advisor for an adaptive vocabulary-learning scheduler. ")
	b.WriteString("Given aggregate usage metrics for the past week versus the prior week, ")
	b.WriteString("propose adjustments to the scheduler's tunable parameters ONLY from the ")
	b.WriteString("following whitelist. Each entry is key: [min, max].\n\n")

	keys := make([]string, 0, len(config.Whitelist))
	for k := range config.Whitelist {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		spec := config.Whitelist[config.ParameterKey(k)]
		b.WriteString(fmt.Sprintf("- %s: [%v, %v] (current default %v)\n", k, spec.Min, spec.Max, spec.Default))
	}

	b.WriteString("\nRespond with ONLY a JSON object of this shape, no prose:\n")
	b.WriteString(`{"suggestions": [{"target": "<whitelisted key>", "value": <number>, "rationale": "<one sentence>"}]}`)
	b.WriteString("\nPropose at most 5 changes. If nothing needs to change, return an empty suggestions array.")
	return b.String()
}

// userPrompt renders the aggregate metrics the advisor is reasoning
// over.
func userPrompt(m WeeklyMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Week: %s to %s\n\n", m.WeekStart.Format("2006-01-02"), m.WeekEnd.Format("2006-01-02"))
	fmt.Fprintf(&b, "Current week: %s\n", formatPeriod(m.Current))
	fmt.Fprintf(&b, "Prior week:   %s\n", formatPeriod(m.Prior))
	return b.String()
}

func formatPeriod(p PeriodMetrics) string {
	return fmt.Sprintf(
		"users=%d active=%d new=%d churned=%d accuracy=%.3f avg_rt_ms=%.0f "+
			"fatigue(low/mid/high)=%.2f/%.2f/%.2f motivation(low/mid/high)=%.2f/%.2f/%.2f alert_ratio=%.3f",
		p.TotalUsers, p.ActiveUsers, p.NewUsers, p.ChurnedUsers, p.LearningAccuracy, p.AvgResponseTimeMs,
		p.FatigueDistribution.Low, p.FatigueDistribution.Mid, p.FatigueDistribution.High,
		p.MotivationDist.Low, p.MotivationDist.Mid, p.MotivationDist.High,
		p.AlertRatio,
	)
}
