package actr

import (
	"context"

	"golang.org/x/sync/errgroup"

	"vocab-amas/internal/types"
)

// BatchRequest is one word's trace plus the cognitive profile to
// personalize its decay with.
type BatchRequest struct {
	WordID          string
	Trace           []TraceEntry
	Profile         types.CognitiveProfile
	BaseDecay       float64
	TargetRetention float64
}

// BatchCompute runs Compute for many words in parallel, one goroutine
// per request, matching spec.md §5's "batch memory-model... subqueries
// are computed in parallel across items." Pure math, so a bounded
// worker count isn't required for correctness; errgroup still bounds
// goroutine lifetime to the call and propagates the first error (none
// of these computations can themselves fail, but ctx cancellation is
// still honored between items).
func BatchCompute(ctx context.Context, requests []BatchRequest) (map[string]Result, error) {
	results := make(map[string]Result, len(requests))
	if len(requests) == 0 {
		return results, nil
	}

	type kv struct {
		id  string
		res Result
	}
	out := make(chan kv, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	for _, req := range requests {
		req := req
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			out <- kv{id: req.WordID, res: Compute(req.Trace, req.Profile, req.BaseDecay, req.TargetRetention)}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(out)
	}()

	for item := range out {
		results[item.id] = item.res
	}
	return results, g.Wait()
}
