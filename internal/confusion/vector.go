package confusion

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"vocab-amas/internal/embeddings"
	"vocab-amas/internal/obslog"
	"vocab-amas/internal/types"
	"vocab-amas/pkg/cache"
)

const wordCollection = "word_confusables"

// VectorCache is the optional nearest-neighbor confusion store, used
// when the deployment has an embeddings.Embedder configured. Grounded
// on the teacher's internal/knowledge.VectorStore (same chromem-go
// collection/query pattern), generalized from entity descriptions to
// word definitions/example sentences.
type VectorCache struct {
	mu       sync.RWMutex
	db       *chromem.DB
	embedder embeddings.Embedder
	vectors  map[string][]float32

	// queryCache holds recent FindConfusableBatch results per
	// (wordID, threshold, limit), since the word selector re-queries
	// the same high-traffic words across many users' decisions
	// (spec.md §5's 500ms word-selector budget). Read-mostly,
	// short-TTL: a stale hit just means a slightly out-of-date
	// confusable set, never a decision error (teacher:
	// pkg/cache/lru.go's generic LRU[K,V] with TTL).
	queryCache *cache.LRU[string, []Pair]
}

// VectorCacheConfig mirrors the teacher's VectorStoreConfig.
type VectorCacheConfig struct {
	PersistPath string
	Embedder    embeddings.Embedder

	// QueryCacheSize and QueryCacheTTL configure the ANN query result
	// cache. Zero values fall back to cache.DefaultConfig()'s 1000
	// entries / 1 hour.
	QueryCacheSize int
	QueryCacheTTL  time.Duration
}

// NewVectorCache creates a chromem-go backed store, persistent when
// PersistPath is set, in-memory otherwise (teacher:
// internal/knowledge/vector_store.go NewVectorStore).
func NewVectorCache(cfg VectorCacheConfig) (*VectorCache, error) {
	var db *chromem.DB
	var err error
	if cfg.PersistPath != "" {
		db, err = chromem.NewPersistentDB(cfg.PersistPath, false)
		if err != nil {
			return nil, fmt.Errorf("confusion vector cache: persistent db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	cacheCfg := cache.DefaultConfig()
	if cfg.QueryCacheSize > 0 {
		cacheCfg.MaxEntries = cfg.QueryCacheSize
	}
	if cfg.QueryCacheTTL > 0 {
		cacheCfg.TTL = cfg.QueryCacheTTL
	}

	return &VectorCache{
		db:         db,
		embedder:   cfg.Embedder,
		vectors:    make(map[string][]float32),
		queryCache: cache.New[string, []Pair](cacheCfg),
	}, nil
}

func queryCacheKey(wordID string, distanceThreshold float64, limit int) string {
	return wordID + "|" + strconv.FormatFloat(distanceThreshold, 'g', -1, 64) + "|" + strconv.Itoa(limit)
}

func (v *VectorCache) collection() (*chromem.Collection, error) {
	if col := v.db.GetCollection(wordCollection, nil); col != nil {
		return col, nil
	}
	return v.db.CreateCollection(wordCollection, nil, nil)
}

// IndexWord embeds text (the word's definition or a usage example) and
// stores it for future nearest-neighbor lookups. Re-indexing the same
// wordID replaces its prior embedding.
func (v *VectorCache) IndexWord(ctx context.Context, wordID, text string) error {
	col, err := v.collection()
	if err != nil {
		return fmt.Errorf("confusion vector cache: collection: %w", err)
	}

	emb, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("confusion vector cache: embed %q: %w", wordID, err)
	}

	if err := col.AddDocument(ctx, chromem.Document{ID: wordID, Content: text, Embedding: emb}); err != nil {
		return fmt.Errorf("confusion vector cache: index %q: %w", wordID, err)
	}

	v.mu.Lock()
	v.vectors[wordID] = emb
	v.mu.Unlock()

	// A new embedding invalidates every cached result that might have
	// included wordID as a neighbor; the cache has no reverse index, so
	// drop the whole thing rather than serve stale neighbor sets.
	v.queryCache.Clear()
	return nil
}

// FindConfusableBatch implements the Cache interface over the vector
// store. Words that were never indexed return a nil (not error) entry,
// matching spec.md §4.7's "never throw" failure semantics.
func (v *VectorCache) FindConfusableBatch(ctx context.Context, wordIDs []string, distanceThreshold float64, perWordLimit int) (map[string][]Pair, error) {
	limit := perWordLimit
	if limit <= 0 {
		limit = 10
	}

	col := v.db.GetCollection(wordCollection, nil)
	out := make(map[string][]Pair, len(wordIDs))
	if col == nil {
		for _, id := range wordIDs {
			out[id] = nil
		}
		return out, nil
	}

	for _, id := range wordIDs {
		cacheKey := queryCacheKey(id, distanceThreshold, limit)
		if cached, ok := v.queryCache.Get(cacheKey); ok {
			out[id] = cached
			continue
		}

		v.mu.RLock()
		query, ok := v.vectors[id]
		v.mu.RUnlock()
		if !ok {
			out[id] = nil
			continue
		}

		n := limit + 1
		if c := col.Count(); n > c {
			n = c
		}
		results, err := col.QueryEmbedding(ctx, query, n, nil, nil)
		if err != nil {
			out[id] = nil
			continue
		}

		pairs := make([]Pair, 0, len(results))
		for _, r := range results {
			if r.ID == id {
				obslog.Warnf(ctx, "confusion vector cache: word %q confusable with itself, skipped", id)
				continue
			}
			distance := types.Clamp01(1 - float64(r.Similarity))
			if distance <= distanceThreshold {
				pairs = append(pairs, Pair{OtherID: r.ID, Distance: distance})
			}
			if len(pairs) >= limit {
				break
			}
		}
		v.queryCache.Set(cacheKey, pairs)
		out[id] = pairs
	}
	return out, nil
}
