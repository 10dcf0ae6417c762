package forgetting

import (
	"math"
	"time"
)

// ln2 is ln(2), used to turn a half-life into an exponential decay
// rate (original's `0.693147 / half_life_secs`).
const ln2 = 0.6931471805599453

// Retention estimates recall probability at elapsed time since last
// review given a stability (the memory model's half-life, in days):
// R = exp(-ln(2) * elapsed / stability), the same exponential
// forgetting curve as original_source/workers/forgetting_alert.rs's
// calculate_retention, generalized from seconds to the stability-in-days
// unit this codebase's WordMemoryState already stores (spec.md §3).
//
// A non-positive stability is treated as already fully forgotten,
// matching the original's "half_life_secs <= 0.0 => 0.0" guard.
func Retention(stabilityDays float64, elapsed time.Duration) float64 {
	if stabilityDays <= 0 {
		return 0
	}
	elapsedDays := elapsed.Hours() / 24
	decayRate := ln2 / stabilityDays
	return math.Exp(-decayRate * elapsedDays)
}
