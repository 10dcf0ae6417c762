// Package selector implements the Word Selector (spec.md §4.7): given a
// strategy and the learner's current state, it picks the next batch of
// words to present (a mix of due reviews and new words) and attaches a
// distractor pool to each.
package selector

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"vocab-amas/internal/confusion"
	"vocab-amas/internal/obslog"
	"vocab-amas/internal/types"
)

// WordCandidate is one word as seen by the selector, assembled by the
// caller's ReviewSource/NewSource implementations from whatever
// persistence backend is wired in (spec.md §6 "external interfaces are
// Go interfaces").
type WordCandidate struct {
	WordID          string
	Elo             float64 // word's own difficulty rating, same scale as the user's
	DifficultyBand  float64 // [0,1], where the strategy's difficulty range is matched against
	Score           float64 // [0,100] mastery score, 0 if never attempted
	TotalAttempts   int
	CorrectAttempts int
	NextReviewMs    int64 // review pool only; 0 for new-pool candidates
	HasScore        bool  // distinguishes "never attempted" from score == 0
}

// DemandSignal is an optional short-window-demand recommendation the
// engine may attach (spec.md §4.7 step 2); Confidence below 0.5 is
// ignored.
type DemandSignal struct {
	Count      int
	Confidence float64
}

// ReviewSource fetches the user's due review pool (spec.md §4.7 step 4).
type ReviewSource interface {
	DueWords(ctx context.Context, userID string, now time.Time, exclude map[string]bool) ([]WordCandidate, error)
}

// NewSource fetches the user's not-yet-learned candidate pool from
// their selected wordbooks (spec.md §4.7 step 5).
type NewSource interface {
	CandidateWords(ctx context.Context, userID string, wordbookIDs []string, exclude map[string]bool) ([]WordCandidate, error)
}

// EloSource supplies the user's own Elo rating for the ZPD adjustment
// (spec.md §4.7 step 4, Glossary "ZPD").
type EloSource interface {
	UserElo(ctx context.Context, userID string) (float64, error)
}

// RandomSource fetches a random pool of words for distractor generation
// (spec.md §4.7 step 7, "then a random pool of 20").
type RandomSource interface {
	RandomWords(ctx context.Context, userID string, exclude map[string]bool, n int) ([]string, error)
}

// Request bundles everything Select needs (spec.md §4.7's
// "(user_id, target_count, strategy, user_state)").
type Request struct {
	UserID      string
	TargetCount int
	Strategy    types.StrategyParams
	State       types.UserState
	WordbookIDs []string
	Demand      *DemandSignal
	// ExcludeIDs are word ids the caller already showed (e.g. earlier
	// in the same session) that must never reappear in Result.Items
	// (spec.md §8, and original_source/services/mastery_learning.rs's
	// exclude_ids parameter threaded through fetch_words_with_strategy).
	ExcludeIDs []string
}

// Item is one selected word plus its distractor pool.
type Item struct {
	WordID          string
	IsNew           bool
	MeaningOptions  []string // word ids, length 4, correct word included
	SpellingOptions []string // word ids, length 4, correct word included
}

// Result is the selector's output.
type Result struct {
	Items         []Item
	Cap           float64
	EffectiveSize int
}

// Selector wires the ports above plus a confusion cache and fallback
// distractor list into one Select operation.
type Selector struct {
	Review    ReviewSource
	New       NewSource
	Elo       EloSource
	Random    RandomSource
	Confusion confusion.Cache
	Config    Config
	// Seed derives the per-call deterministic shuffle RNG (spec.md
	// §4.7 step 7 "deterministic-per-call RNG"); the caller supplies a
	// fresh seed (e.g. a request id hash) per call so results are
	// reproducible for a given request but vary call to call.
	Seed func() int64
}

// Select implements spec.md §4.7 steps 1-7. Never returns an error for
// empty wordbooks/unavailable learning state (step "failure semantics")
// -- it returns an empty Result instead.
func (s *Selector) Select(ctx context.Context, req Request) (Result, error) {
	sessionCap := dynamicCap(req.State)
	target := applyDemand(req.TargetCount, req.Demand, sessionCap)
	effective := clampInt(minInt(req.Strategy.BatchSize, target), 1, 20)

	exclude := map[string]bool{}
	for _, id := range req.ExcludeIDs {
		exclude[id] = true
	}

	var reviewPool []WordCandidate
	var newPool []WordCandidate
	var userElo float64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pool, err := s.Review.DueWords(gctx, req.UserID, now(), exclude)
		if err != nil {
			obslog.Warnf(gctx, "selector: due-words fetch failed for %s: %v", req.UserID, err)
			return nil
		}
		reviewPool = pool
		return nil
	})
	g.Go(func() error {
		elo, err := s.Elo.UserElo(gctx, req.UserID)
		if err != nil {
			userElo = defaultElo
			return nil
		}
		userElo = elo
		return nil
	})
	_ = g.Wait()

	reviewPool = filterExcluded(reviewPool, exclude)
	reviewPool = rankReviewPool(reviewPool, userElo, req.Strategy)

	reviewShare := clampInt(int(math.Ceil(float64(effective)*(1-req.Strategy.NewRatio))), 0, effective)
	if reviewShare > len(reviewPool) {
		reviewShare = len(reviewPool)
	}
	chosenReview := reviewPool[:reviewShare]

	newCount := effective - len(chosenReview)
	excludeForNew := map[string]bool{}
	for id := range exclude {
		excludeForNew[id] = true
	}
	for _, c := range chosenReview {
		excludeForNew[c.WordID] = true
	}

	if newCount > 0 && len(req.WordbookIDs) > 0 {
		pool, err := s.New.CandidateWords(ctx, req.UserID, req.WordbookIDs, excludeForNew)
		if err != nil {
			obslog.Warnf(ctx, "selector: new-pool fetch failed for %s: %v", req.UserID, err)
		} else {
			newPool = pool
		}
	}
	newPool = filterExcluded(newPool, excludeForNew)
	chosenNew := pickNewPool(newPool, req.Strategy, newCount)

	chosen := make([]WordCandidate, 0, len(chosenReview)+len(chosenNew))
	chosen = append(chosen, chosenReview...)
	chosen = append(chosen, chosenNew...)

	if len(chosen) == 0 {
		return Result{Cap: sessionCap, EffectiveSize: effective}, nil
	}

	targetIDs := make([]string, len(chosen))
	for i, c := range chosen {
		targetIDs[i] = c.WordID
	}

	seed := defaultSeed
	if s.Seed != nil {
		seed = s.Seed()
	}
	builder := newDistractorBuilder(ctx, s.Confusion, s.Random, s.Config, req.UserID, targetIDs, seed)

	items := make([]Item, 0, len(chosen))
	for i, c := range chosen {
		meaning, spelling := builder.build(ctx, c.WordID, i)
		items = append(items, Item{
			WordID:          c.WordID,
			IsNew:           i >= len(chosenReview),
			MeaningOptions:  meaning,
			SpellingOptions: spelling,
		})
	}

	return Result{Items: items, Cap: sessionCap, EffectiveSize: effective}, nil
}

// filterExcluded drops candidates whose id is excluded, defensively:
// sources are expected to honor their own exclude parameter, but
// Select never returns an excluded word_id regardless (spec.md §8).
func filterExcluded(pool []WordCandidate, exclude map[string]bool) []WordCandidate {
	if len(exclude) == 0 {
		return pool
	}
	out := pool[:0]
	for _, c := range pool {
		if !exclude[c.WordID] {
			out = append(out, c)
		}
	}
	return out
}

const defaultElo = 1200.0
const defaultSeed = int64(1)

// now is a seam so tests can't flake on wall-clock skew; production
// always uses the real clock.
var now = time.Now

func dynamicCap(state types.UserState) float64 {
	normMotiv := (state.Motivation + 1) / 2
	raw := 20 + 80*(0.35*state.Attention+0.30*normMotiv+0.20*state.Cognitive.Stability+
		0.15*state.Cognitive.Speed-0.5*state.EffectiveFatigue())
	return clampFloat(raw, 20, 100)
}

func applyDemand(target int, demand *DemandSignal, sessionCap float64) int {
	sum := target
	if demand != nil && demand.Confidence >= 0.5 {
		sum += demand.Count
	}
	return clampInt(sum, 1, int(sessionCap))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// sortStableByPriorityDesc preserves input order among equal priorities
// (spec.md §4.7 step 4 "sort stable").
func sortStableByPriorityDesc(items []WordCandidate, priority func(WordCandidate) float64) {
	sort.SliceStable(items, func(i, j int) bool {
		return priority(items[i]) > priority(items[j])
	})
}
