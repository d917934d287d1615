package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/fetchplan/fetchplan/internal/eventbus"
	"github.com/fetchplan/fetchplan/internal/events"
	"github.com/fetchplan/fetchplan/internal/future"
	"github.com/fetchplan/fetchplan/internal/pool"
	"github.com/fetchplan/fetchplan/internal/runid"
)

// Options configures a Run/Execute call.
type Options struct {
	// Env is an opaque value threaded unchanged to every Fetch/FetchMulti
	// call. Not interpreted by the runner.
	Env any

	// Cache seeds the run. If nil, a fresh empty Cache is used. See Seed.
	Cache *Cache

	// Executor schedules fetch dispatch. If nil, pool.Unbounded{} is used —
	// one goroutine per dispatched fetch, appropriate since a run only
	// ever has one iteration's frontier groups in flight at a time.
	Executor pool.Executor
}

func (o Options) withDefaults() Options {
	if o.Cache == nil {
		o.Cache = NewCache()
	}
	if o.Executor == nil {
		o.Executor = pool.Unbounded{}
	}
	return o
}

// ExecuteResult is the (value, cache) pair Execute/ExecuteAsync produce.
type ExecuteResult struct {
	Value any
	Cache *Cache
}

// Run resolves ast to its final value, blocking the calling goroutine. See
// RunAsync for composing with this package's own Future type without
// blocking.
func Run(ctx context.Context, ast Node, opts Options) (any, error) {
	res, err := Execute(ctx, ast, opts)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// RunAsync is Run's Future-returning counterpart.
func RunAsync(ctx context.Context, ast Node, opts Options) *future.Future[any] {
	return future.Go(pool.Unbounded{}, func() (any, error) {
		return Run(ctx, ast, opts)
	})
}

// Execute resolves ast and returns its value alongside the final cache. The
// final cache is always a superset of opts.Cache's seed.
func Execute(ctx context.Context, ast Node, opts Options) (ExecuteResult, error) {
	return executeLoop(ctx, ast, opts.withDefaults())
}

// ExecuteAsync is Execute's Future-returning counterpart.
func ExecuteAsync(ctx context.Context, ast Node, opts Options) *future.Future[ExecuteResult] {
	return future.Go(pool.Unbounded{}, func() (ExecuteResult, error) {
		return Execute(ctx, ast, opts)
	})
}

// executeLoop implements the level-synchronous dispatch-then-plant runner
// loop: each iteration dispatches the current frontier's misses, merges the
// results into the cache, replants the AST against the cache, and checks
// that the run is making progress before looping.
func executeLoop(ctx context.Context, ast Node, opts Options) (ExecuteResult, error) {
	ctx, runID := runid.NewContext(ctx)
	start := time.Now()
	eventbus.Publish(ctx, events.RunStart{RunID: runID})

	finish := func(iteration int, err error) (ExecuteResult, error) {
		eventbus.Publish(ctx, events.RunFinish{
			RunID:      runID,
			Iterations: iteration,
			Err:        err,
			Duration:   time.Since(start),
		})
		if err != nil {
			return ExecuteResult{}, err
		}
		v, _ := valueOf(ast)
		return ExecuteResult{Value: v, Cache: opts.Cache}, nil
	}

	n := ast
	for iteration := 0; ; iteration++ {
		if _, ok := valueOf(n); ok {
			ast = n
			return finish(iteration, nil)
		}

		if err := ctx.Err(); err != nil {
			ast = n
			return finish(iteration, err)
		}

		iterStart := time.Now()
		eventbus.Publish(ctx, events.IterationStart{RunID: runID, Index: iteration})

		beforeSize := frontierSize(n)
		groups := analyzeFrontier(n)

		dispatched, err := dispatchGroups(ctx, runID, groups, opts)
		if err != nil {
			ast = n
			return finish(iteration, err)
		}

		for _, r := range dispatched {
			opts.Cache.Insert(r.sourceName, r.identity, r.value)
		}

		planted, expanded, err := plant(n, func(sourceName string, identity any) (any, bool) {
			return opts.Cache.Lookup(sourceName, identity)
		})
		if err != nil {
			ast = n
			return finish(iteration, err)
		}

		if _, isValue := valueOf(planted); !isValue {
			afterSize := frontierSize(planted)
			if afterSize >= beforeSize && !expanded {
				err := fmt.Errorf("%w: frontier had %d identities before this iteration and %d after, with no Bind expansion",
					ErrNoProgress, beforeSize, afterSize)
				ast = n
				return finish(iteration, err)
			}
		}

		eventbus.Publish(ctx, events.IterationFinish{
			RunID:          runID,
			Index:          iteration,
			GroupCount:     len(groups),
			DispatchedSize: len(dispatched),
			Duration:       time.Since(iterStart),
		})

		n = planted
	}
}

// dispatchResult is one (sourceName, identity) -> value outcome from a
// single iteration's dispatch.
type dispatchResult struct {
	sourceName string
	identity   any
	value      any
}

// groupOutcome is what one source-name group's dispatch produces once its
// fetch(es) settle.
type groupOutcome struct {
	results []dispatchResult
	err     error
}

// dispatchGroups partitions every frontier group into hit/miss against the
// cache, dispatches misses (batched or singly) on opts.Executor, and joins
// every group's outcome.
// All dispatches of this iteration run concurrently; the next iteration
// does not begin until every one of them has settled.
func dispatchGroups(ctx context.Context, runID string, groups map[string]*frontierGroup, opts Options) ([]dispatchResult, error) {
	outcomes := make(chan groupOutcome, len(groups))
	pending := 0

	for _, g := range groups {
		g := g
		missDS := missesFor(g, opts.Cache)
		if len(missDS) == 0 {
			// Every identity in this group is already cached: the planter
			// will consume the hits, no dispatch needed.
			continue
		}
		pending++

		var batched BatchedSource
		if bs, ok := missDS[0].(BatchedSource); ok && len(missDS) >= 2 {
			batched = bs
		}

		submitErr := opts.Executor.Execute(func() {
			dispatchStart := time.Now()
			eventbus.Publish(ctx, events.DispatchStart{
				RunID:      runID,
				SourceName: g.sourceName,
				MissCount:  len(missDS),
				Batched:    batched != nil,
			})

			var results []dispatchResult
			var err error
			if batched != nil {
				results, err = fetchBatch(ctx, g.sourceName, batched, missDS, opts.Env)
			} else {
				results, err = fetchSingles(ctx, g.sourceName, missDS, opts.Env)
			}

			eventbus.Publish(ctx, events.DispatchFinish{
				RunID:      runID,
				SourceName: g.sourceName,
				MissCount:  len(missDS),
				Batched:    batched != nil,
				Err:        err,
				Duration:   time.Since(dispatchStart),
			})
			outcomes <- groupOutcome{results: results, err: err}
		})
		if submitErr != nil {
			outcomes <- groupOutcome{err: &ExecutorError{SourceName: g.sourceName, Err: submitErr}}
		}
	}

	var all []dispatchResult
	var firstErr error
	for i := 0; i < pending; i++ {
		o := <-outcomes
		if o.err != nil {
			if firstErr == nil {
				firstErr = o.err
			}
			continue
		}
		all = append(all, o.results...)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return all, nil
}

// missesFor returns the DataSource instances in g whose identity is not
// already cached.
func missesFor(g *frontierGroup, cache *Cache) []DataSource {
	misses := make([]DataSource, 0, g.size())
	for id, ds := range g.byIdentity {
		if _, hit := cache.Lookup(g.sourceName, id); !hit {
			misses = append(misses, ds)
		}
	}
	return misses
}

// fetchSingles dispatches one Fetch call per source concurrently and joins
// the results via future.All, preferring this path whenever the group has
// fewer than two misses or its DataSource does not implement BatchedSource.
//
// Each Fetch runs on its own bare goroutine via future.Spawn rather than
// being resubmitted to opts.Executor: this call already runs inside a task
// dispatched on that executor (see dispatchGroups), so routing nested work
// back through it would self-occupy every worker of a bounded pool and
// deadlock waiting for a free slot that can never open up.
func fetchSingles(ctx context.Context, sourceName string, sources []DataSource, env any) ([]dispatchResult, error) {
	futures := make([]*future.Future[dispatchResult], len(sources))
	for i, ds := range sources {
		ds := ds
		futures[i] = future.Spawn(func() (dispatchResult, error) {
			v, err := ds.Fetch(ctx, env)
			if err != nil {
				return dispatchResult{}, &FetchError{SourceName: sourceName, Identity: ds.Identity(), Err: err}
			}
			return dispatchResult{sourceName: sourceName, identity: ds.Identity(), value: v}, nil
		})
	}
	return future.All(futures).Wait()
}

// fetchBatch dispatches a single FetchMulti call for the group and validates
// that the response covers every requested identity. Results for identities
// outside the requested set are silently discarded.
func fetchBatch(ctx context.Context, sourceName string, bs BatchedSource, sources []DataSource, env any) ([]dispatchResult, error) {
	resp, err := bs.FetchMulti(ctx, sources, env)
	if err != nil {
		return nil, &FetchError{SourceName: sourceName, Err: err}
	}
	out := make([]dispatchResult, 0, len(sources))
	var missing []any
	for _, ds := range sources {
		v, ok := resp[ds.Identity()]
		if !ok {
			missing = append(missing, ds.Identity())
			continue
		}
		out = append(out, dispatchResult{sourceName: sourceName, identity: ds.Identity(), value: v})
	}
	if len(missing) > 0 {
		return nil, &BatchShapeError{SourceName: sourceName, Missing: missing}
	}
	return out, nil
}
