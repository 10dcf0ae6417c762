package selector

import (
	"math"
	"sort"

	"vocab-amas/internal/types"
)

// zpdSpread controls how quickly the ZPD multiplier decays away from
// delta == 0 (user Elo == word Elo). spec.md §4.7/Glossary names the
// inverted-U shape but not its numeric width; 250 Elo points (a quarter of the
// spread of a typical 1000-2000 scale) is this package's implementation
// choice, recorded in DESIGN.md rather than spec.md's Open Questions
// list.
const zpdSpread = 250.0

// zpdPeakBoost is how much priority a perfectly-matched word gets over
// one far outside the user's current ability.
const zpdPeakBoost = 0.3

// zpdFactor is the inverted-U curve: 1+zpdPeakBoost at delta==0, decaying
// toward 1 as |delta| grows (spec.md Glossary "ZPD").
func zpdFactor(userElo, wordElo float64) float64 {
	delta := wordElo - userElo
	return 1 + zpdPeakBoost*math.Exp(-(delta*delta)/(2*zpdSpread*zpdSpread))
}

// errorRateBonus mirrors the teacher-domain rust reference's priority
// term: a word with more than 50% error rate gets a flat high bonus
// rather than letting the linear term run away past it.
func errorRateBonus(c WordCandidate) float64 {
	if c.TotalAttempts == 0 {
		return 0
	}
	errorRate := 1 - float64(c.CorrectAttempts)/float64(c.TotalAttempts)
	if errorRate > 0.5 {
		return 30
	}
	return errorRate * 60
}

func scoreBonus(c WordCandidate) float64 {
	if !c.HasScore {
		return 30 // no score yet, treated like a middling-low score
	}
	return (100 - c.Score) * 0.3
}

func overdueDays(nextReviewMs int64) float64 {
	if nextReviewMs == 0 {
		return 0
	}
	days := float64(nowMs()-nextReviewMs) / 86_400_000.0
	if days < 0 {
		return 0
	}
	return days
}

func nowMs() int64 { return now().UnixMilli() }

func basePriority(c WordCandidate) float64 {
	return math.Min(overdueDays(c.NextReviewMs), 8)*5 + errorRateBonus(c) + scoreBonus(c)
}

func priority(c WordCandidate, userElo float64) float64 {
	return basePriority(c) * zpdFactor(userElo, c.Elo)
}

// difficultyRange maps a strategy difficulty tier to the [0,1]
// DifficultyBand window words in that tier should fall in.
func difficultyRange(d types.DifficultyLevel) (lo, hi float64) {
	switch d {
	case types.DifficultyEasy:
		return 0.0, 0.35
	case types.DifficultyHard:
		return 0.65, 1.0
	default:
		return 0.3, 0.7
	}
}

func inRange(v, lo, hi float64) bool { return v >= lo && v <= hi }

// rankReviewPool applies spec.md §4.7 step 4: priority (with ZPD
// adjustment) descending, stable, with difficulty-range matches
// preferred ahead of out-of-range ones.
func rankReviewPool(pool []WordCandidate, userElo float64, strategy types.StrategyParams) []WordCandidate {
	if len(pool) == 0 {
		return pool
	}
	lo, hi := difficultyRange(strategy.Difficulty)

	var inBand, outBand []WordCandidate
	for _, c := range pool {
		if inRange(c.DifficultyBand, lo, hi) {
			inBand = append(inBand, c)
		} else {
			outBand = append(outBand, c)
		}
	}

	rank := func(c WordCandidate) float64 { return priority(c, userElo) }
	sortStableByPriorityDesc(inBand, rank)
	sortStableByPriorityDesc(outBand, rank)

	return append(inBand, outBand...)
}

// pickNewPool applies spec.md §4.7 step 5: difficulty-filter to the
// strategy's range, then if under-filled relax toward the range center
// by absolute distance, until count is reached or the pool is
// exhausted.
func pickNewPool(pool []WordCandidate, strategy types.StrategyParams, count int) []WordCandidate {
	if count <= 0 || len(pool) == 0 {
		return nil
	}
	lo, hi := difficultyRange(strategy.Difficulty)
	center := (lo + hi) / 2

	var inBand, outBand []WordCandidate
	for _, c := range pool {
		if inRange(c.DifficultyBand, lo, hi) {
			inBand = append(inBand, c)
		} else {
			outBand = append(outBand, c)
		}
	}

	sort.SliceStable(outBand, func(i, j int) bool {
		return math.Abs(outBand[i].DifficultyBand-center) < math.Abs(outBand[j].DifficultyBand-center)
	})

	chosen := make([]WordCandidate, 0, count)
	chosen = append(chosen, inBand...)
	if len(chosen) > count {
		return chosen[:count]
	}
	for _, c := range outBand {
		if len(chosen) >= count {
			break
		}
		chosen = append(chosen, c)
	}
	return chosen
}
