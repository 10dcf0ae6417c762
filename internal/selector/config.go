package selector

// Config holds the selector's tunable pool sizes and the small fallback
// distractor list spec.md §4.7 step 7 falls back to when the confusion
// cache, random pool, and other target words still leave an option set
// short of four.
type Config struct {
	SemanticDistance     float64 // max distance to count as confusable (spec.md: 0.5)
	SemanticLimit        int     // per-word cap on semantic confusables (spec.md: 10)
	RandomPoolSize       int     // size of the random distractor pool (spec.md: 20)
	OptionsPerQuestion   int     // options per meaning/spelling question, including the correct one (spec.md: 4)
	FallbackWords        []string
}

// DefaultConfig matches spec.md §4.7 step 7 verbatim, plus a small
// fixed fallback pool for the "distractor pool exhausted" edge case
// (spec.md §8 scenario 5).
func DefaultConfig() Config {
	return Config{
		SemanticDistance:   0.5,
		SemanticLimit:      10,
		RandomPoolSize:     20,
		OptionsPerQuestion: 4,
		FallbackWords: []string{
			"__fallback_1__", "__fallback_2__", "__fallback_3__",
			"__fallback_4__", "__fallback_5__", "__fallback_6__",
		},
	}
}
