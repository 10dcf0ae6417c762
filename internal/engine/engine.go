// Package engine wires the decision pipeline (spec.md §4.1-4.9, §5):
// state estimation, cold-start gating, strategy members, ensemble
// fusion, multi-objective evaluation, word selection, explainability
// recording, and delayed-reward enqueueing, serialized per user. It is
// the cross-cutting component named in SPEC_FULL.md §2's component map
// ("(cross-cutting) decision pipeline wiring"); every sub-package above
// stays independently testable and engine only composes them.
package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"vocab-amas/internal/actr"
	"vocab-amas/internal/amaserr"
	"vocab-amas/internal/coldstart"
	"vocab-amas/internal/ensemble"
	"vocab-amas/internal/estimator"
	"vocab-amas/internal/evaluator"
	"vocab-amas/internal/explain"
	"vocab-amas/internal/members"
	"vocab-amas/internal/obslog"
	"vocab-amas/internal/rewardqueue"
	"vocab-amas/internal/selector"
	"vocab-amas/internal/types"
	"vocab-amas/internal/userlock"
)

// Stage budget targets in milliseconds (spec.md §5: "Timeouts are
// per-stage (estimator 50 ms, ensemble 100 ms, word selector 500 ms
// target budgets; violations log but do not fail)"). Stages the
// distilled spec doesn't name a budget for get one sized to what that
// stage actually does, so the instrumentation still records their
// duration with a meaningful overrun threshold.
const (
	BudgetEstimatorMs  = 50
	BudgetColdStartMs  = 10
	BudgetMembersMs    = 30
	BudgetEnsembleMs   = 100
	BudgetEvaluatorMs  = 30
	BudgetSelectorMs   = 500
	BudgetPersistMs = 50
	BudgetRewardMs  = 20
)

// MemoryStateSource reads one (user, word) ACT-R bookkeeping record,
// satisfied by internal/storage.WordMemoryStore. The evaluator needs a
// long_term_recall input (spec.md §4.6); this is how the engine reads
// the per-word history that feeds internal/actr.
type MemoryStateSource interface {
	Get(ctx context.Context, userID, wordID string) (types.WordMemoryState, error)
}

// InteractionCounter returns a user's lifetime interaction count, the N
// the Cold-Start Manager derives a phase from (spec.md §4.3).
type InteractionCounter interface {
	LifetimeInteractions(ctx context.Context, userID string) (int, error)
}

// StageObserver receives one stage's duration after every Decide call,
// supplementing spec.md §5's log-only overrun requirement with an
// operator-facing metric (SPEC_FULL.md §8a). Nil is a valid Engine
// field; observations are skipped rather than panicking.
type StageObserver interface {
	Observe(stage string, durationMs float64, overBudget bool)
}

// WeightObserver receives a member's ensemble weight drift between two
// consecutive decisions for the same user (SPEC_FULL.md §8a). Nil is a
// valid Engine field.
type WeightObserver interface {
	ObserveWeightDrift(member string, previous, current float64)
}

// RewardObserver receives delayed-reward delivery outcomes (SPEC_FULL.md
// §8a: reward delivery lag). Nil is a valid Engine field.
type RewardObserver interface {
	ObserveRewardDelivered(enqueuedAt, deliveredAt time.Time)
	ObserveRewardFailure()
}

// Request bundles one decision request (spec.md §4.7's "(user_id,
// target_count, strategy, user_state)" plus the estimator's own inputs).
type Request struct {
	UserID      string
	Event       types.RawEvent
	PriorState  *types.UserState
	History     []types.RawEvent
	TargetCount int
	WordbookIDs []string
	Demand      *selector.DemandSignal
	// ExcludeIDs are word ids the caller has already shown this session
	// and that must not reappear in the selected batch (spec.md §8),
	// forwarded to selector.Request.ExcludeIDs unchanged.
	ExcludeIDs []string
}

// Response is one completed decision: the trace recorded for it and the
// word batch the Selector produced from its (possibly repaired)
// strategy.
type Response struct {
	Trace     types.DecisionTrace
	Selection selector.Result
}

// Engine composes every pipeline stage behind one per-user-serialized
// Decide call (spec.md §5 "concurrent requests for the same user queue
// behind a fair per-user lock").
type Engine struct {
	EstimatorConfig     estimator.Config
	ColdStart           *coldstart.Manager
	Members             []members.Member
	EvalWeights         evaluator.Weights
	EvalConstraints     evaluator.Constraints
	ACTRBaseDecay       float64
	ACTRTargetRetention float64
	// RecallSampleSize bounds how many of the user's due words feed the
	// long_term_recall input; spec.md §4.6 scores the whole-decision
	// candidate, not one word, so this is an average over a capped
	// sample of the due pool rather than every due word (see
	// DESIGN.md's "long_term_recall wiring" entry).
	RecallSampleSize int

	Selector      *selector.Selector
	Review        selector.ReviewSource
	WordMemory    MemoryStateSource
	Interactions  InteractionCounter
	Explain       explain.Store
	Rewards       rewardqueue.Queue
	RewardWindow  time.Duration
	Locks         *userlock.Table
	Metrics       StageObserver
	WeightMetrics WeightObserver
	RewardMetrics RewardObserver

	mu          sync.Mutex
	lastParams  map[string]types.StrategyParams
	lastWeights map[string]map[types.MemberID]float64
}

// New builds an Engine with the documented defaults (spec.md §4.6's
// weights/constraints, §4.1's ACT-R decay/retention).
func New() *Engine {
	return &Engine{
		EstimatorConfig:     estimator.DefaultConfig(),
		ColdStart:           coldstart.NewManager(),
		EvalWeights:         evaluator.DefaultWeights(),
		EvalConstraints:     evaluator.DefaultConstraints(),
		ACTRBaseDecay:       0.5,
		ACTRTargetRetention: 0.9,
		RecallSampleSize:    5,
		RewardWindow:        5 * time.Minute,
		Locks:               userlock.New(64),
		lastParams:          make(map[string]types.StrategyParams),
		lastWeights:         make(map[string]map[types.MemberID]float64),
	}
}

// baselineParams seeds a user's first decision before any strategy has
// ever been chosen for them (spec.md §4.4 "current_params" has no
// defined origin for a brand-new user).
func baselineParams() types.StrategyParams {
	p := types.StrategyParams{
		IntervalScale: 1.0,
		NewRatio:      0.2,
		Difficulty:    types.DifficultyMid,
		BatchSize:     10,
		HintLevel:     1,
	}
	p.Clamp()
	return p
}

func (e *Engine) currentParams(userID string) types.StrategyParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.lastParams[userID]; ok {
		return p
	}
	return baselineParams()
}

func (e *Engine) setCurrentParams(userID string, p types.StrategyParams) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastParams[userID] = p
}

// recordWeightDrift reports, per member, how much its ensemble weight
// moved since this user's last decision (SPEC_FULL.md §8a).
func (e *Engine) recordWeightDrift(userID string, weights map[types.MemberID]float64) {
	if e.WeightMetrics == nil {
		return
	}
	e.mu.Lock()
	prev := e.lastWeights[userID]
	next := make(map[types.MemberID]float64, len(weights))
	for id, w := range weights {
		next[id] = w
	}
	e.lastWeights[userID] = next
	e.mu.Unlock()

	for id, w := range weights {
		e.WeightMetrics.ObserveWeightDrift(string(id), prev[id], w)
	}
}

type stageTimer struct {
	obs   StageObserver
	stage string
	start time.Time
	budget float64
}

func (e *Engine) timeStage(stage string, budget float64) stageTimer {
	return stageTimer{obs: e.Metrics, stage: stage, start: time.Now(), budget: budget}
}

func (t stageTimer) stop(ctx context.Context) types.StageDetail {
	durMs := float64(time.Since(t.start)) / float64(time.Millisecond)
	over := durMs > t.budget
	if over {
		obslog.Warnf(ctx, "engine: stage %s took %.1fms, budget %.1fms", t.stage, durMs, t.budget)
	}
	if t.obs != nil {
		t.obs.Observe(t.stage, durMs, over)
	}
	return types.StageDetail{Stage: t.stage, DurationMs: durMs, BudgetMs: t.budget, OverBudget: over}
}

// Decide runs one full pipeline pass for userID and returns the
// selected word batch plus the trace recorded for it (spec.md §4.1-4.9).
func (e *Engine) Decide(ctx context.Context, req Request) (Response, error) {
	var resp Response
	var err error
	e.Locks.WithLock(req.UserID, func() {
		resp, err = e.decideLocked(ctx, req)
	})
	return resp, err
}

func (e *Engine) decideLocked(ctx context.Context, req Request) (Response, error) {
	var stages []types.StageDetail

	// 1. State Estimator (spec.md §4.2).
	est := e.timeStage("estimator", BudgetEstimatorMs)
	state := estimator.Estimate(e.EstimatorConfig, estimator.Input{
		Prior:   req.PriorState,
		Event:   req.Event,
		History: req.History,
	})
	state.UserID = req.UserID
	stages = append(stages, est.stop(ctx))

	// 2. Cold-Start Manager (spec.md §4.3).
	cs := e.timeStage("coldstart", BudgetColdStartMs)
	n := 0
	if e.Interactions != nil {
		if count, cerr := e.Interactions.LifetimeInteractions(ctx, req.UserID); cerr == nil {
			n = count
		} else {
			obslog.Warnf(ctx, "engine: interaction count lookup failed for %s: %v", req.UserID, cerr)
		}
	}
	phase, transition := e.ColdStart.Phase(req.UserID, n)
	gate := coldstart.GateFor(phase)
	if transition != nil {
		obslog.Infof(ctx, "engine: user %s phase %s -> %s", req.UserID, transition.From, transition.To)
	}
	stages = append(stages, cs.stop(ctx))

	// 3. Strategy Members, gated (spec.md §4.3, §4.4).
	mem := e.timeStage("members", BudgetMembersMs)
	current := e.currentParams(req.UserID)
	memberCtx := members.Context{State: *state, ContextFeature: state.Conf, CurrentParams: current}
	consult := map[types.MemberID]bool{}
	for _, id := range gate.ConsultMembers {
		consult[id] = true
	}
	votes := make([]types.MemberVote, 0, len(e.Members))
	for _, m := range e.Members {
		if !consult[m.ID()] {
			continue
		}
		vote := m.Propose(memberCtx)
		votes = append(votes, vote)
	}
	if len(votes) == 0 {
		// No gated member produced a vote (misconfigured Members slice);
		// fall back to the current params rather than combining over
		// an empty set, which ensemble.Combine does not support.
		votes = append(votes, types.MemberVote{MemberID: types.MemberHeuristic, Action: current, Confidence: 0.5})
	}
	stages = append(stages, mem.stop(ctx))

	// 4. Ensemble Coordinator (spec.md §4.5).
	ens := e.timeStage("ensemble", BudgetEnsembleMs)
	combined := ensemble.Combine(phase, votes)
	e.recordWeightDrift(req.UserID, combined.Weights)
	stages = append(stages, ens.stop(ctx))

	// 5. Multi-Objective Evaluator (spec.md §4.6).
	eva := e.timeStage("evaluator", BudgetEvaluatorMs)
	shortTerm := e.predictedReward(*state, combined.Strategy)
	longTerm := e.longTermRecall(ctx, req.UserID, combined.Strategy, state.Cognitive)
	evalResult := evaluator.Evaluate(*state, combined.Strategy, evaluator.Inputs{
		ShortTermAccuracy: shortTerm,
		LongTermRecall:    longTerm,
	}, e.EvalWeights, e.EvalConstraints)
	finalStrategy := evalResult.Repaired
	stages = append(stages, eva.stop(ctx))

	e.setCurrentParams(req.UserID, finalStrategy)

	// 6. Word Selector (spec.md §4.7).
	var selection selector.Result
	if e.Selector != nil {
		sel := e.timeStage("selector", BudgetSelectorMs)
		result, serr := e.Selector.Select(ctx, selector.Request{
			UserID:      req.UserID,
			TargetCount: req.TargetCount,
			Strategy:    finalStrategy,
			State:       *state,
			WordbookIDs: req.WordbookIDs,
			Demand:      req.Demand,
			ExcludeIDs:  req.ExcludeIDs,
		})
		stages = append(stages, sel.stop(ctx))
		if serr != nil {
			obslog.Warnf(ctx, "engine: selector failed for %s: %v", req.UserID, serr)
		} else {
			selection = result
		}
	}

	source := gate.Source
	decisionID := uuid.NewString()
	trace := types.DecisionTrace{
		TraceVersion: types.CurrentTraceVersion,
		DecisionID:   decisionID,
		UserID:       req.UserID,
		Ts:           state.Ts,
		InputState:   *state,
		Phase:        phase,
		Weights:      combined.Weights,
		Votes:        combined.Votes,
		Strategy:     finalStrategy,
		Source:       source,
		FeatureHash:  featureHash(*state),
		StageDetails: stages,
	}

	// 7. Explainability Recorder (spec.md §4.9). A persistence failure
	// aborts this decision: no batch is returned and the error surfaces
	// as DbUnavailable (SPEC_FULL.md §7b propagation policy).
	if e.Explain != nil {
		persist := e.timeStage("persist", BudgetPersistMs)
		if perr := e.Explain.Record(ctx, trace); perr != nil {
			obslog.Errorf(ctx, "engine: trace record failed for decision %s: %v", decisionID, perr)
			persist.stop(ctx)
			return Response{}, amaserr.DbUnavailable(perr)
		}
		trace.StageDetails = append(trace.StageDetails, persist.stop(ctx))
	}

	// 8. Delayed Reward Queue enqueue (spec.md §4.8). Only meaningful
	// once the answer this decision produced is graded, which happens
	// out of band, so Decide enqueues nothing; callers call
	// EnqueueReward once the learner's answer is graded.
	return Response{Trace: trace, Selection: selection}, nil
}

// EnqueueReward buffers a graded answer's reward for delayed delivery
// to the bandit members (spec.md §4.8). decisionID must name a trace
// already recorded via Decide.
func (e *Engine) EnqueueReward(ctx context.Context, userID, answerRecordID, sessionID, decisionID string, reward float64) error {
	if e.Rewards == nil {
		return nil
	}
	now := time.Now()
	idempotencyKey := fmt.Sprintf("%s:%s", decisionID, answerRecordID)
	queueStage := e.timeStage("reward_enqueue", BudgetRewardMs)
	err := e.Rewards.Enqueue(ctx, types.DelayedReward{
		UserID:         userID,
		AnswerRecordID: answerRecordID,
		SessionID:      sessionID,
		DecisionID:     decisionID,
		Reward:         reward,
		EnqueuedAt:     now,
		DueTs:          rewardqueue.NewDueTs(now, e.RewardWindow),
		IdempotencyKey: idempotencyKey,
	})
	queueStage.stop(ctx)
	if err != nil {
		return amaserr.DbUnavailable(err)
	}
	return nil
}

// DeliverDueRewards scans up to limit due DelayedReward rows and
// applies each to the strategy members' posteriors (spec.md §4.8's
// background tick). Delivery is at-least-once: a row is only marked
// delivered after its member update succeeds, so a crash mid-tick
// redelivers it next time rather than silently dropping it.
func (e *Engine) DeliverDueRewards(ctx context.Context, now time.Time, limit int) (int, error) {
	if e.Rewards == nil || e.Explain == nil {
		return 0, nil
	}
	due, err := e.Rewards.Due(ctx, now, limit)
	if err != nil {
		return 0, amaserr.DbUnavailable(err)
	}

	traces := &TraceAdapter{Store: e.Explain}
	updater := &MemberAdapter{Members: e.Members}

	delivered := 0
	for _, r := range due {
		trace, terr := traces.GetTrace(ctx, r.DecisionID)
		if terr != nil {
			obslog.Warnf(ctx, "engine: reward delivery skipped, trace %s unavailable: %v", r.DecisionID, terr)
			continue
		}
		if uerr := updater.ApplyReward(ctx, trace, r.Reward); uerr != nil {
			obslog.Warnf(ctx, "engine: reward delivery failed for %s: %v", r.IdempotencyKey, uerr)
			if e.RewardMetrics != nil {
				e.RewardMetrics.ObserveRewardFailure()
			}
			continue
		}
		if merr := e.Rewards.MarkDelivered(ctx, r.IdempotencyKey); merr != nil {
			obslog.Warnf(ctx, "engine: mark-delivered failed for %s: %v", r.IdempotencyKey, merr)
			continue
		}
		if e.RewardMetrics != nil {
			e.RewardMetrics.ObserveRewardDelivered(r.EnqueuedAt, now)
		}
		delivered++
	}
	return delivered, nil
}

// predictedReward reads LinUCB's pure value estimate for the
// short_term_accuracy evaluator input (spec.md §4.6), 0.5 (neutral
// prior) when no LinUCB member is wired.
func (e *Engine) predictedReward(state types.UserState, strategy types.StrategyParams) float64 {
	for _, m := range e.Members {
		if lu, ok := m.(*members.LinUCB); ok {
			return lu.PredictedReward(state, strategy)
		}
	}
	return 0.5
}

// longTermRecall estimates E[recall@next_review | strategy] (spec.md
// §4.6's long_term input) by sampling up to RecallSampleSize of the
// user's due words, synthesizing each one's ACT-R review trace from its
// stored WordMemoryState (reps/lapses/last_review, since this codebase
// persists aggregate memory-state counters rather than a per-review
// event log -- see DESIGN.md), and averaging the resulting recall
// probabilities at the interval the candidate strategy implies. A user
// with no due words has no review debt to forget yet, so recall
// defaults to 1.0 rather than penalizing brand-new learners.
func (e *Engine) longTermRecall(ctx context.Context, userID string, strategy types.StrategyParams, profile types.CognitiveProfile) float64 {
	if e.Review == nil || e.WordMemory == nil {
		return 1.0
	}
	due, err := e.Review.DueWords(ctx, userID, time.Now(), nil)
	if err != nil || len(due) == 0 {
		return 1.0
	}
	n := len(due)
	if n > e.RecallSampleSize {
		n = e.RecallSampleSize
	}

	var sum float64
	var count int
	for _, cand := range due[:n] {
		state, serr := e.WordMemory.Get(ctx, userID, cand.WordID)
		if serr != nil {
			continue
		}
		trace := synthesizeTrace(state, time.Now(), strategy)
		result := actr.Compute(trace, profile, e.ACTRBaseDecay, e.ACTRTargetRetention)
		sum += result.RecallProbability
		count++
	}
	if count == 0 {
		return 1.0
	}
	return sum / float64(count)
}

// synthesizeTrace approximates a word's past-review history from its
// aggregate WordMemoryState counters: reps total reviews, lapses of
// them incorrect, spaced backward from last_review_ms at the interval
// implied by scheduled_days (1 day when unset). This is an
// approximation grounded on what the schema actually stores, not a
// replay of real review timestamps -- see DESIGN.md.
func synthesizeTrace(state types.WordMemoryState, now time.Time, strategy types.StrategyParams) []actr.TraceEntry {
	if state.Reps == 0 {
		return nil
	}
	spacingDays := state.ScheduledDays
	if spacingDays <= 0 {
		spacingDays = 1
	}
	spacingSeconds := spacingDays * 24 * 3600 * strategy.IntervalScale

	lastReview := time.UnixMilli(state.LastReviewMs)
	baseAge := now.Sub(lastReview).Seconds()
	if baseAge < 0 {
		baseAge = 0
	}

	lapses := state.Lapses
	if lapses > state.Reps {
		lapses = state.Reps
	}

	trace := make([]actr.TraceEntry, 0, state.Reps)
	for i := 0; i < state.Reps; i++ {
		age := baseAge + float64(i)*spacingSeconds
		// Lapses are modeled as the oldest reviews: a learner's most
		// recent attempts are weighted toward success by construction
		// of scheduled review (if they kept lapsing, the word wouldn't
		// have advanced to its current stability).
		isCorrect := i < state.Reps-lapses
		trace = append(trace, actr.TraceEntry{AgeSeconds: age, IsCorrect: isCorrect})
	}
	return trace
}

// featureHash derives a short de-dup fingerprint from a user's decision
// inputs (spec.md §4.9 "DecisionInsight... numeric feature hash for
// de-dup").
func featureHash(state types.UserState) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%.4f:%.4f:%.4f:%.4f:%.4f:%.4f", state.Attention, state.Fatigue, state.Motivation, state.Cognitive.Mem, state.Cognitive.Speed, state.Cognitive.Stability)
	return fmt.Sprintf("%x", h.Sum64())
}
