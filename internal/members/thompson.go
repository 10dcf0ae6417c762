package members

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"vocab-amas/internal/types"
)

// Thompson is the Thompson-sampling bandit member (spec.md §4.4): Beta
// posteriors over a discretized (difficulty x new_ratio) action grid,
// shrunk toward a context-less global posterior by contextWeight.
// Context is discretized into contextBins buckets over ContextFeature.
//
// Sampling is grounded on the teacher's Marsaglia-Tsang Gamma-based Beta
// sampler (teacher:internal/reinforcement/beta_sampling.go); the
// posterior bookkeeping is grounded on teacher:internal/reinforcement/
// thompson.go's ThompsonSelector, generalized from a flat strategy map
// to a two-level (contextual, global) posterior store so the same
// update path can shrink sparse per-context data toward the population
// baseline, per spec.md §4.4's discretized-context requirement.
type Thompson struct {
	mu sync.Mutex
	// rng is intentionally unseeded-random-unsafe for concurrent direct
	// use; all access goes through mu.
	rng *rand.Rand

	contextBins   int
	contextWeight float64
	ratioBins     int

	global     map[string]*betaPosterior
	contextual map[string]*betaPosterior
}

type betaPosterior struct {
	Alpha float64
	Beta  float64
}

// NewThompson builds a Thompson member. contextBins and contextWeight
// correspond to the whitelisted parameters thompsonContextBins and
// thompsonContextWeight (internal/config.Whitelist).
func NewThompson(seed int64, contextBins int, contextWeight float64) *Thompson {
	if contextBins < 1 {
		contextBins = 10
	}
	return &Thompson{
		rng:           rand.New(rand.NewSource(seed)),
		contextBins:   contextBins,
		contextWeight: clamp(contextWeight, 0, 1),
		ratioBins:     5,
		global:        make(map[string]*betaPosterior),
		contextual:    make(map[string]*betaPosterior),
	}
}

func (t *Thompson) ID() types.MemberID { return types.MemberThompson }

// Propose samples every arm's blended posterior and returns the best.
func (t *Thompson) Propose(ctx Context) types.MemberVote {
	t.mu.Lock()
	defer t.mu.Unlock()

	bin := contextBin(ctx.ContextFeature, t.contextBins)

	var bestArm arm
	var bestSample float64
	first := true
	var bestTrials float64

	for _, d := range []types.DifficultyLevel{types.DifficultyEasy, types.DifficultyMid, types.DifficultyHard} {
		for i := 0; i < t.ratioBins; i++ {
			a := arm{Difficulty: d, RatioBin: i}
			sample, trials := t.blendedSample(bin, a)
			if first || sample > bestSample {
				bestSample = sample
				bestArm = a
				bestTrials = trials
				first = false
			}
		}
	}

	action := ctx.CurrentParams
	action.Difficulty = bestArm.Difficulty
	action.NewRatio = ratioBinCenter(bestArm.RatioBin, t.ratioBins)
	action.Clamp()

	// Confidence grows with how many trials informed the winning arm;
	// an untried arm (trials==0) reports low confidence since its
	// sample was effectively a coin flip from the uniform prior.
	confidence := clamp(trials01(bestTrials), 0.05, 0.95)

	return types.MemberVote{
		MemberID:   types.MemberThompson,
		Action:     action,
		Confidence: confidence,
	}
}

// RecordReward updates both the context-specific and global posteriors
// for the arm implied by (contextFeature, action). Called by whatever
// drains the Delayed Reward Queue once a reward matures (spec.md §4.8);
// contextFeature and action should come from the original DecisionTrace
// so the update targets the arm that was actually chosen.
func (t *Thompson) RecordReward(contextFeature float64, action types.StrategyParams, reward float64) {
	reward = clamp(reward, 0, 1)
	bin := contextBin(contextFeature, t.contextBins)
	a := arm{Difficulty: action.Difficulty, RatioBin: ratioBinIndex(action.NewRatio, t.ratioBins)}

	t.mu.Lock()
	defer t.mu.Unlock()

	updatePosterior(t.global, globalKey(a), reward)
	updatePosterior(t.contextual, contextualKey(bin, a), reward)
}

func updatePosterior(store map[string]*betaPosterior, key string, reward float64) {
	p, ok := store[key]
	if !ok {
		p = &betaPosterior{Alpha: 1, Beta: 1}
		store[key] = p
	}
	p.Alpha += reward
	p.Beta += 1 - reward
}

// blendedSample draws one global sample and one contextual sample and
// blends them by contextWeight, returning the blended value and the
// contextual posterior's trial count (used for the confidence report).
func (t *Thompson) blendedSample(bin int, a arm) (sample, trials float64) {
	g := t.global[globalKey(a)]
	if g == nil {
		g = &betaPosterior{Alpha: 1, Beta: 1}
	}
	c := t.contextual[contextualKey(bin, a)]
	if c == nil {
		c = &betaPosterior{Alpha: 1, Beta: 1}
	}

	gSample := sampleBeta(g.Alpha, g.Beta, t.rng)
	cSample := sampleBeta(c.Alpha, c.Beta, t.rng)

	blended := t.contextWeight*cSample + (1-t.contextWeight)*gSample
	return blended, (c.Alpha - 1) + (c.Beta - 1)
}

func trials01(trials float64) float64 {
	// Saturating map of trial count to a [0,1] confidence scalar; 20
	// trials is treated as "fully informed" for this arm.
	return clamp(trials/20.0, 0, 1)
}

type arm struct {
	Difficulty types.DifficultyLevel
	RatioBin   int
}

func globalKey(a arm) string { return fmt.Sprintf("%s:%d", a.Difficulty, a.RatioBin) }

func contextualKey(bin int, a arm) string { return fmt.Sprintf("%d:%s:%d", bin, a.Difficulty, a.RatioBin) }

func contextBin(feature float64, bins int) int {
	feature = clamp(feature, 0, 1)
	idx := int(feature * float64(bins))
	if idx >= bins {
		idx = bins - 1
	}
	return idx
}

func ratioBinCenter(bin, bins int) float64 {
	width := (newRatioMax - newRatioMin) / float64(bins)
	return newRatioMin + width*(float64(bin)+0.5)
}

func ratioBinIndex(ratio float64, bins int) int {
	ratio = clamp(ratio, newRatioMin, newRatioMax)
	width := (newRatioMax - newRatioMin) / float64(bins)
	idx := int((ratio - newRatioMin) / width)
	if idx >= bins {
		idx = bins - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// sampleBeta draws from Beta(alpha, beta) via X/(X+Y), X ~ Gamma(alpha,1),
// Y ~ Gamma(beta,1) (teacher:internal/reinforcement/beta_sampling.go).
func sampleBeta(alpha, beta float64, rng *rand.Rand) float64 {
	if alpha <= 0 || beta <= 0 {
		return rng.Float64()
	}
	x := sampleGamma(alpha, rng)
	y := sampleGamma(beta, rng)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}

// sampleGamma draws from Gamma(alpha, 1) via Marsaglia-Tsang for
// alpha >= 1, recursing through the alpha+1 transform below that.
func sampleGamma(alpha float64, rng *rand.Rand) float64 {
	if alpha >= 1.0 {
		d := alpha - 1.0/3.0
		c := 1.0 / math.Sqrt(9.0*d)
		for {
			x := rng.NormFloat64()
			v := 1.0 + c*x
			if v <= 0 {
				continue
			}
			v = v * v * v
			u := rng.Float64()
			if u < 1.0-0.0331*x*x*x*x {
				return d * v
			}
			if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
				return d * v
			}
		}
	}
	g := sampleGamma(alpha+1.0, rng)
	u := rng.Float64()
	return g * math.Pow(u, 1.0/alpha)
}
