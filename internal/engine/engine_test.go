package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocab-amas/internal/confusion"
	"vocab-amas/internal/explain"
	"vocab-amas/internal/members"
	"vocab-amas/internal/metrics"
	"vocab-amas/internal/selector"
	"vocab-amas/internal/types"
)

// fakeReview is a minimal selector.ReviewSource/MemoryStateSource pair
// backed by an in-process map, enough to exercise the engine without a
// real storage backend.
type fakeReview struct {
	due   []selector.WordCandidate
	state map[string]types.WordMemoryState
}

func (f *fakeReview) DueWords(ctx context.Context, userID string, now time.Time, exclude map[string]bool) ([]selector.WordCandidate, error) {
	return f.due, nil
}

func (f *fakeReview) Get(ctx context.Context, userID, wordID string) (types.WordMemoryState, error) {
	s, ok := f.state[wordID]
	if !ok {
		return types.WordMemoryState{}, assert.AnError
	}
	return s, nil
}

type fakeNewSource struct{}

func (fakeNewSource) CandidateWords(ctx context.Context, userID string, wordbookIDs []string, exclude map[string]bool) ([]selector.WordCandidate, error) {
	return nil, nil
}

type fakeEloSource struct{}

func (fakeEloSource) UserElo(ctx context.Context, userID string) (float64, error) { return 1200, nil }

type fakeRandomSource struct{}

func (fakeRandomSource) RandomWords(ctx context.Context, userID string, exclude map[string]bool, n int) ([]string, error) {
	return nil, nil
}

type fakeInteractions struct{ n int }

func (f fakeInteractions) LifetimeInteractions(ctx context.Context, userID string) (int, error) {
	return f.n, nil
}

// fakeQueue is an in-process rewardqueue.Queue, enough to test enqueue
// and delivery without a Redis dependency.
type fakeQueue struct {
	mu   sync.Mutex
	rows map[string]types.DelayedReward
}

func newFakeQueue() *fakeQueue { return &fakeQueue{rows: map[string]types.DelayedReward{}} }

func (q *fakeQueue) Enqueue(ctx context.Context, reward types.DelayedReward) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.rows[reward.IdempotencyKey]; ok {
		return nil
	}
	q.rows[reward.IdempotencyKey] = reward
	return nil
}

func (q *fakeQueue) Due(ctx context.Context, now time.Time, limit int) ([]types.DelayedReward, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []types.DelayedReward
	for _, r := range q.rows {
		if r.Delivered {
			continue
		}
		if r.DueTs.After(now) {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (q *fakeQueue) MarkDelivered(ctx context.Context, idempotencyKey string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if r, ok := q.rows[idempotencyKey]; ok {
		r.Delivered = true
		q.rows[idempotencyKey] = r
	}
	return nil
}

func testEngine(t *testing.T, review *fakeReview) (*Engine, *fakeQueue, explain.Store) {
	t.Helper()
	e := New()
	e.Members = []members.Member{
		members.NewHeuristic(),
		members.NewThompson(1, 10, 0.3),
		members.NewLinUCB(0.5),
		members.NewACTRMember(),
	}
	e.Review = review
	e.WordMemory = review
	e.Interactions = fakeInteractions{n: 20}

	graphCache := confusion.NewGraphCache()
	e.Selector = &selector.Selector{
		Review:    review,
		New:       fakeNewSource{},
		Elo:       fakeEloSource{},
		Random:    fakeRandomSource{},
		Confusion: graphCache,
		Config:    selector.DefaultConfig(),
	}

	store := explain.NewInMemoryStore()
	e.Explain = store

	queue := newFakeQueue()
	e.Rewards = queue

	return e, queue, store
}

func baseRequest(userID string) Request {
	return Request{
		UserID: userID,
		Event: types.RawEvent{
			IsCorrect:      true,
			ResponseTimeMs: 1200,
			Timestamp:      time.Now(),
		},
		TargetCount: 10,
		WordbookIDs: []string{"book1"},
	}
}

func TestDecideProducesTraceAndPersistsIt(t *testing.T) {
	review := &fakeReview{
		due: []selector.WordCandidate{
			{WordID: "w1", Elo: 1200, DifficultyBand: 0.5, NextReviewMs: time.Now().Add(-time.Hour).UnixMilli()},
		},
		state: map[string]types.WordMemoryState{
			"w1": {UserID: "u1", WordID: "w1", Stability: 5, Reps: 4, Lapses: 1, LastReviewMs: time.Now().Add(-24 * time.Hour).UnixMilli(), ScheduledDays: 2},
		},
	}
	e, _, store := testEngine(t, review)

	resp, err := e.Decide(context.Background(), baseRequest("u1"))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Trace.DecisionID)
	assert.Equal(t, "u1", resp.Trace.UserID)
	assert.NotEmpty(t, resp.Trace.StageDetails)
	assert.Equal(t, types.PhaseNormal, resp.Trace.Phase)

	got, gerr := store.Get(context.Background(), resp.Trace.DecisionID)
	require.NoError(t, gerr)
	assert.Equal(t, resp.Trace.DecisionID, got.DecisionID)
}

func TestDecideClassifyPhaseOnlyConsultsHeuristic(t *testing.T) {
	review := &fakeReview{state: map[string]types.WordMemoryState{}}
	e, _, _ := testEngine(t, review)
	e.Interactions = fakeInteractions{n: 1}

	resp, err := e.Decide(context.Background(), baseRequest("u-new"))
	require.NoError(t, err)
	assert.Equal(t, types.PhaseClassify, resp.Trace.Phase)
	assert.Equal(t, types.SourceColdStart, resp.Trace.Source)
	require.Len(t, resp.Trace.Votes, 1)
	assert.Equal(t, types.MemberHeuristic, resp.Trace.Votes[0].MemberID)
}

func TestDecideRepairsConstraintViolatingStrategy(t *testing.T) {
	review := &fakeReview{state: map[string]types.WordMemoryState{}}
	e, _, _ := testEngine(t, review)

	req := baseRequest("u-tired")
	req.Event = types.RawEvent{IsCorrect: false, ResponseTimeMs: 9000, Timestamp: time.Now()}
	req.PriorState = &types.UserState{Fatigue: 0.95, Attention: 0.1, Motivation: -0.8, Conf: 0.2, Cognitive: types.CognitiveProfile{Mem: 0.5, Speed: 0.5, Stability: 0.5}}

	resp, err := e.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Trace.Strategy.Difficulty)
}

func TestEnqueueAndDeliverRewardAppliesToMembers(t *testing.T) {
	review := &fakeReview{state: map[string]types.WordMemoryState{}}
	e, queue, _ := testEngine(t, review)

	resp, err := e.Decide(context.Background(), baseRequest("u1"))
	require.NoError(t, err)

	require.NoError(t, e.EnqueueReward(context.Background(), "u1", "answer1", "sess1", resp.Trace.DecisionID, 0.8))
	assert.Len(t, queue.rows, 1)

	delivered, derr := e.DeliverDueRewards(context.Background(), time.Now().Add(time.Hour), 10)
	require.NoError(t, derr)
	assert.Equal(t, 1, delivered)

	for _, r := range queue.rows {
		assert.True(t, r.Delivered)
	}
}

func TestDeliverDueRewardsSkipsWhenNotDue(t *testing.T) {
	review := &fakeReview{state: map[string]types.WordMemoryState{}}
	e, _, _ := testEngine(t, review)

	resp, err := e.Decide(context.Background(), baseRequest("u1"))
	require.NoError(t, err)
	require.NoError(t, e.EnqueueReward(context.Background(), "u1", "answer1", "sess1", resp.Trace.DecisionID, 0.8))

	delivered, derr := e.DeliverDueRewards(context.Background(), time.Now().Add(-time.Hour), 10)
	require.NoError(t, derr)
	assert.Equal(t, 0, delivered)
}

func TestConcurrentDecidesForDifferentUsersDoNotDeadlock(t *testing.T) {
	review := &fakeReview{state: map[string]types.WordMemoryState{}}
	e, _, _ := testEngine(t, review)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			uid := "user-" + string(rune('a'+n))
			_, err := e.Decide(context.Background(), baseRequest(uid))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

func TestLongTermRecallDefaultsToOneWithNoDueWords(t *testing.T) {
	review := &fakeReview{}
	e, _, _ := testEngine(t, review)
	got := e.longTermRecall(context.Background(), "u1", baselineParams(), types.CognitiveProfile{Mem: 0.5, Speed: 0.5, Stability: 0.5})
	assert.Equal(t, 1.0, got)
}

func TestSynthesizeTraceNoReviewsReturnsNil(t *testing.T) {
	trace := synthesizeTrace(types.WordMemoryState{Reps: 0}, time.Now(), baselineParams())
	assert.Nil(t, trace)
}

func TestSynthesizeTraceMarksOldestAsLapses(t *testing.T) {
	state := types.WordMemoryState{Reps: 4, Lapses: 1, LastReviewMs: time.Now().Add(-time.Hour).UnixMilli(), ScheduledDays: 1}
	trace := synthesizeTrace(state, time.Now(), baselineParams())
	require.Len(t, trace, 4)
	assert.False(t, trace[3].IsCorrect) // oldest entry is the lapse
	assert.True(t, trace[0].IsCorrect)
}

func TestDecideForwardsExcludeIDsToSelector(t *testing.T) {
	due := []selector.WordCandidate{
		{WordID: "w1", DifficultyBand: 0.5},
		{WordID: "w2", DifficultyBand: 0.5},
	}
	review := &fakeReview{due: due, state: map[string]types.WordMemoryState{}}
	e, _, _ := testEngine(t, review)

	req := baseRequest("u-exclude")
	req.ExcludeIDs = []string{"w1"}

	resp, err := e.Decide(context.Background(), req)
	require.NoError(t, err)

	for _, item := range resp.Selection.Items {
		assert.NotEqual(t, "w1", item.WordID)
	}
}

func TestDecideWithMetricsRecorderWiredDoesNotError(t *testing.T) {
	review := &fakeReview{state: map[string]types.WordMemoryState{}}
	e, queue, _ := testEngine(t, review)
	rec := metrics.NewRecorder()
	e.Metrics = rec
	e.WeightMetrics = rec
	e.RewardMetrics = rec

	resp, err := e.Decide(context.Background(), baseRequest("u-metrics"))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Trace.StageDetails)

	require.NoError(t, e.EnqueueReward(context.Background(), "u-metrics", "answer1", "sess1", resp.Trace.DecisionID, 0.5))
	delivered, derr := e.DeliverDueRewards(context.Background(), time.Now().Add(time.Hour), 10)
	require.NoError(t, derr)
	assert.Equal(t, 1, delivered)
	assert.Len(t, queue.rows, 1)
}
