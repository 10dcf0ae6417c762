package storage

import (
	"context"
	"encoding/json"
	"time"

	"vocab-amas/internal/advisor"
	"vocab-amas/internal/amaserr"
)

// MetricsSource implements advisor.MetricsSource over the
// decision_traces table: each trace is one scheduling decision for one
// user, so a 7-day window's traces are the aggregate signal the
// advisor's weekly job reduces over (spec.md §4.10 step 1). DurationMs
// stands in for "avg RT" since this codebase does not persist a
// separate raw per-answer response-time log distinct from the decision
// trace that consumed it.
type MetricsSource struct {
	db *DB
}

var _ advisor.MetricsSource = (*MetricsSource)(nil)

func NewMetricsSource(db *DB) *MetricsSource {
	return &MetricsSource{db: db}
}

func (m *MetricsSource) ComputeWeeklyMetrics(ctx context.Context, weekEnd time.Time) (advisor.WeeklyMetrics, error) {
	weekStart := weekEnd.Add(-7 * 24 * time.Hour)
	priorStart := weekStart.Add(-7 * 24 * time.Hour)

	current, currentUsers, err := m.periodMetrics(ctx, weekStart, weekEnd)
	if err != nil {
		return advisor.WeeklyMetrics{}, err
	}
	prior, priorUsers, err := m.periodMetrics(ctx, priorStart, weekStart)
	if err != nil {
		return advisor.WeeklyMetrics{}, err
	}

	newUsers := 0
	for u := range currentUsers {
		firstSeen, err := m.firstSeen(ctx, u)
		if err != nil {
			return advisor.WeeklyMetrics{}, err
		}
		if !firstSeen.Before(weekStart) {
			newUsers++
		}
	}
	churned := 0
	for u := range priorUsers {
		if !currentUsers[u] {
			churned++
		}
	}
	current.NewUsers = newUsers
	current.ChurnedUsers = churned

	return advisor.WeeklyMetrics{
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Current:   current,
		Prior:     prior,
	}, nil
}

func (m *MetricsSource) firstSeen(ctx context.Context, userID string) (time.Time, error) {
	var ms int64
	err := m.db.conn.QueryRowContext(ctx,
		`SELECT MIN(ts) FROM decision_traces WHERE user_id = ?`, userID).Scan(&ms)
	if err != nil {
		return time.Time{}, amaserr.DbUnavailable(err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

func (m *MetricsSource) periodMetrics(ctx context.Context, start, end time.Time) (advisor.PeriodMetrics, map[string]bool, error) {
	rows, err := m.db.conn.QueryContext(ctx,
		`SELECT user_id, payload FROM decision_traces WHERE ts >= ? AND ts < ?`,
		start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return advisor.PeriodMetrics{}, nil, amaserr.DbUnavailable(err)
	}
	defer rows.Close()

	users := make(map[string]bool)
	var (
		rewardSum, rewardCount   float64
		durationSum              float64
		durationCount            float64
		fatigueLow, fatigueMid   int
		fatigueHigh              int
		motivLow, motivMid       int
		motivHigh                int
		total                    int
		alerts                   int
	)

	for rows.Next() {
		var userID, payload string
		if err := rows.Scan(&userID, &payload); err != nil {
			return advisor.PeriodMetrics{}, nil, amaserr.DbUnavailable(err)
		}
		users[userID] = true
		total++

		var trace struct {
			Reward     *float64 `json:"reward"`
			DurationMs float64  `json:"duration_ms"`
			InputState struct {
				Fatigue    float64 `json:"fatigue"`
				Motivation float64 `json:"motivation"`
			} `json:"input_state"`
			StageDetails []struct {
				OverBudget bool `json:"over_budget"`
			} `json:"stage_details"`
		}
		if err := json.Unmarshal([]byte(payload), &trace); err != nil {
			return advisor.PeriodMetrics{}, nil, amaserr.DbUnavailable(err)
		}

		if trace.Reward != nil {
			rewardSum += *trace.Reward
			rewardCount++
		}
		durationSum += trace.DurationMs
		durationCount++

		switch {
		case trace.InputState.Fatigue < 0.33:
			fatigueLow++
		case trace.InputState.Fatigue < 0.67:
			fatigueMid++
		default:
			fatigueHigh++
		}

		switch {
		case trace.InputState.Motivation < -0.33:
			motivLow++
		case trace.InputState.Motivation < 0.33:
			motivMid++
		default:
			motivHigh++
		}

		for _, sd := range trace.StageDetails {
			if sd.OverBudget {
				alerts++
				break
			}
		}
	}
	if err := rows.Err(); err != nil {
		return advisor.PeriodMetrics{}, nil, amaserr.DbUnavailable(err)
	}

	pm := advisor.PeriodMetrics{
		TotalUsers:  len(users),
		ActiveUsers: len(users),
	}
	if rewardCount > 0 {
		pm.LearningAccuracy = rewardSum / rewardCount
	}
	if durationCount > 0 {
		pm.AvgResponseTimeMs = durationSum / durationCount
	}
	if total > 0 {
		pm.FatigueDistribution = advisor.TierDistribution{
			Low: float64(fatigueLow) / float64(total), Mid: float64(fatigueMid) / float64(total), High: float64(fatigueHigh) / float64(total),
		}
		pm.MotivationDist = advisor.TierDistribution{
			Low: float64(motivLow) / float64(total), Mid: float64(motivMid) / float64(total), High: float64(motivHigh) / float64(total),
		}
		pm.AlertRatio = float64(alerts) / float64(total)
	}
	return pm, users, nil
}
