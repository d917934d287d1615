// Package events defines the typed payloads published on the eventbus during
// a fetchplan run. They carry no behavior; internal/otel subscribes to them
// to produce spans.
package events

import "time"

// RunStart is emitted once per Run/Execute call, before the first iteration.
type RunStart struct {
	RunID string
}

// RunFinish is emitted once a run's AST has collapsed to a value, or failed.
type RunFinish struct {
	RunID      string
	Iterations int
	Err        error
	Duration   time.Duration
}

// IterationStart is emitted at the top of each runner-loop iteration, before
// the frontier is analyzed.
type IterationStart struct {
	RunID string
	Index int
}

// IterationFinish is emitted after an iteration's dispatched fetches have
// been merged into the cache and the AST replanted.
type IterationFinish struct {
	RunID          string
	Index          int
	GroupCount     int
	DispatchedSize int
	Duration       time.Duration
}

// DispatchStart is emitted once per source-name group that has cache misses,
// from inside that group's dispatch task on the executor, before its
// fetch(es) are started. Groups whose identities are all cached emit none.
type DispatchStart struct {
	RunID      string
	SourceName string
	MissCount  int
	Batched    bool
}

// DispatchFinish is emitted once a source-name group's fetch(es) settle.
type DispatchFinish struct {
	RunID      string
	SourceName string
	MissCount  int
	Batched    bool
	Err        error
	Duration   time.Duration
}
