package selector

import (
	"context"
	"math/rand"

	"vocab-amas/internal/confusion"
	"vocab-amas/internal/obslog"
)

// distractorBuilder assembles spec.md §4.7 step 7's option pools for a
// batch of chosen words: semantic confusables first, then a shared
// random pool, then the batch's own other words, then a small fallback
// list -- deduplicated and shuffled with a per-call deterministic RNG.
type distractorBuilder struct {
	cfg       Config
	targetIDs []string
	semantic  map[string][]confusion.Pair
	random    []string
	rng       *rand.Rand
}

func newDistractorBuilder(ctx context.Context, cache confusion.Cache, randomSrc RandomSource, cfg Config, userID string, targetIDs []string, seed int64) *distractorBuilder {
	b := &distractorBuilder{cfg: cfg, targetIDs: targetIDs, rng: rand.New(rand.NewSource(seed))}

	if cache != nil {
		sem, err := cache.FindConfusableBatch(ctx, targetIDs, cfg.SemanticDistance, cfg.SemanticLimit)
		if err != nil {
			obslog.Warnf(ctx, "selector: confusion cache lookup failed: %v", err)
		} else {
			b.semantic = sem
		}
	}

	if randomSrc != nil {
		exclude := make(map[string]bool, len(targetIDs))
		for _, id := range targetIDs {
			exclude[id] = true
		}
		pool, err := randomSrc.RandomWords(ctx, userID, exclude, cfg.RandomPoolSize)
		if err != nil {
			obslog.Warnf(ctx, "selector: random distractor pool fetch failed: %v", err)
		} else {
			b.random = pool
		}
	}

	return b
}

// build returns the meaning- and spelling-option pools for one word.
// index is unused beyond documenting call order; the RNG advances
// naturally across successive calls on the same builder.
func (b *distractorBuilder) build(ctx context.Context, wordID string, index int) (meaning, spelling []string) {
	return b.buildOptions(wordID), b.buildOptions(wordID)
}

func (b *distractorBuilder) buildOptions(wordID string) []string {
	seen := map[string]bool{wordID: true}
	options := []string{wordID}

	add := func(id string) {
		if len(options) >= b.cfg.OptionsPerQuestion || seen[id] {
			return
		}
		seen[id] = true
		options = append(options, id)
	}

	for _, p := range b.semantic[wordID] {
		if len(options) >= b.cfg.OptionsPerQuestion {
			break
		}
		add(p.OtherID)
	}
	for _, id := range b.random {
		if len(options) >= b.cfg.OptionsPerQuestion {
			break
		}
		add(id)
	}
	for _, id := range b.targetIDs {
		if len(options) >= b.cfg.OptionsPerQuestion {
			break
		}
		add(id)
	}
	for _, id := range b.cfg.FallbackWords {
		if len(options) >= b.cfg.OptionsPerQuestion {
			break
		}
		add(id)
	}

	shuffle(options, b.rng)
	return options
}

func shuffle(items []string, rng *rand.Rand) {
	rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
}
