// Package fetch implements a declarative, remote-data-fetching
// orchestrator. Application code builds a fetch description — a tree of
// Source leaves and pure combinators (Map, Bind, Product) — and hands it to
// Run or Execute. The runner walks the tree, discovers the current
// frontier of ready-to-fetch Source nodes, groups them by source name,
// dispatches batched or single fetches concurrently, plants the results
// back into the tree, and repeats until the tree collapses to a Value.
//
// # Execution model
//
// The runner is level-synchronous: each iteration collects the whole
// current frontier before dispatching anything, so every sibling inside a
// Product is co-dispatched and every (source name, identity) pair is
// fetched at most once per run. A Bind is the only node that can introduce
// new fetches mid-run — its continuation is not evaluated until its child
// resolves — and is therefore the only barrier that splits a run into
// sequential phases.
//
//	A. Frontier analysis — walk the AST, collect every reachable Source not
//	   behind an unresolved Bind, grouped by source name.
//	B. Cache partition — split each group's identities into cache hits (no
//	   dispatch needed) and misses.
//	C. Dispatch — for >=2 distinct misses of a BatchedSource, call
//	   FetchMulti once; otherwise call Fetch once per miss. All dispatches
//	   of one iteration run concurrently via the configured pool.Executor.
//	D. Merge — write every returned value into the Cache.
//	E. Plant — substitute resolved Source nodes with Value nodes and
//	   collapse Map/Product/Bind wherever every child became a Value.
//	F. Repeat from A until the AST is a Value, or a fetch/bind/executor
//	   failure ends the run.
//
// See internal/eventbus, internal/otel and internal/runid for the
// run/iteration/dispatch instrumentation published around this cycle.
package fetch
