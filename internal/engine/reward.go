package engine

import (
	"context"

	"vocab-amas/internal/coldstart"
	"vocab-amas/internal/explain"
	"vocab-amas/internal/members"
	"vocab-amas/internal/obslog"
	"vocab-amas/internal/types"
)

// TraceAdapter implements rewardqueue.TraceSource by wrapping an
// explain.Store, the trivial shape spec.md §4.8 step "(a) fetches the
// original decision trace" describes.
type TraceAdapter struct {
	Store explain.Store
}

func (a *TraceAdapter) GetTrace(ctx context.Context, decisionID string) (types.DecisionTrace, error) {
	return a.Store.Get(ctx, decisionID)
}

// MemberAdapter implements rewardqueue.MemberUpdater by routing a
// delivered reward to every online-learning member's posterior update
// (spec.md §4.8 step "(b) calls each member's update hook"). ACT-R and
// the heuristic member have no online posterior and are no-ops here.
type MemberAdapter struct {
	Members []members.Member
}

func (a *MemberAdapter) ApplyReward(ctx context.Context, trace types.DecisionTrace, reward float64) error {
	gate := coldstart.GateFor(trace.Phase)
	if !gate.UpdatePosteriors {
		// Classify-phase decisions never touch bandit posteriors
		// (spec.md §4.3 "bandit posteriors untouched").
		return nil
	}
	for _, m := range a.Members {
		switch mm := m.(type) {
		case *members.Thompson:
			// ContextFeature is canonically UserState.Conf (SPEC_FULL.md
			// §9.2); the trace doesn't store it separately, so it's
			// recomputed from the same canonical field.
			mm.RecordReward(trace.InputState.Conf, trace.Strategy, reward)
		case *members.LinUCB:
			mm.RecordReward(trace.InputState, trace.Strategy, reward)
		default:
			// ACTRMember and Heuristic have no online posterior.
		}
	}
	obslog.Infof(ctx, "engine: applied reward %.3f from decision %s to %d members", reward, trace.DecisionID, len(a.Members))
	return nil
}
