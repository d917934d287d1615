package fetch

import (
	"context"
	"fmt"
	"sync"
)

// MockResolver computes the value for one identity; MockSource adapts it to
// DataSource for tests.
type MockResolver func(ctx context.Context, identity any) (any, error)

// NewMockValueResolver returns a MockResolver that always succeeds with val.
func NewMockValueResolver(val any) MockResolver {
	return func(ctx context.Context, identity any) (any, error) {
		return val, nil
	}
}

// NewMockErrorResolver returns a MockResolver that always fails with err.
func NewMockErrorResolver(err error) MockResolver {
	return func(ctx context.Context, identity any) (any, error) {
		return nil, err
	}
}

// MockCall is one task-level invocation record. Fetch and FetchMulti both
// record one Call per identity; FetchMulti calls share a non-zero BatchID.
type MockCall struct {
	SourceName string
	Identity   any
	BatchID    int // >0 for identities resolved together via FetchMulti, 0 for Fetch
}

// MockSource is a DataSource backed by a single resolver and a call log, for
// exercising the runner in tests without a real backend. It deliberately
// does not implement BatchedSource — see WithBatching — so the runner's
// batched-vs-single selection can itself be exercised by tests.
type MockSource struct {
	name     string
	identity any
	resolve  MockResolver
	log      *mockLog
}

type mockLog struct {
	mu       sync.Mutex
	calls    []MockCall
	batchSeq int
}

// NewMockSource returns a single-item DataSource named name, identified by
// identity, resolving via resolve.
func NewMockSource(name string, identity any, resolve MockResolver) *MockSource {
	return &MockSource{name: name, identity: identity, resolve: resolve, log: &mockLog{}}
}

// Sharing returns a new MockSource with a different identity, sharing this
// instance's resolver and call log — the usual way to build a family of
// sibling sources for a test.
func (m *MockSource) Sharing(identity any) *MockSource {
	return &MockSource{name: m.name, identity: identity, resolve: m.resolve, log: m.log}
}

func (m *MockSource) SourceName() string { return m.name }
func (m *MockSource) Identity() any      { return m.identity }

func (m *MockSource) Fetch(ctx context.Context, env any) (any, error) {
	v, err := m.resolve(ctx, m.identity)
	m.log.record(MockCall{SourceName: m.name, Identity: m.identity, BatchID: 0})
	return v, err
}

// Calls returns a copy of every call recorded against this source's shared
// log, in invocation order.
func (m *MockSource) Calls() []MockCall {
	return m.log.snapshot()
}

// MockBatchedSource wraps a MockSource to additionally implement
// BatchedSource, so the runner dispatches it via FetchMulti whenever two or
// more of its siblings are on the same frontier. Kept as a separate type
// from MockSource (rather than a flag) so that a plain MockSource never
// structurally satisfies BatchedSource by accident.
type MockBatchedSource struct {
	*MockSource
}

// WithBatching wraps m as a MockBatchedSource.
func (m *MockSource) WithBatching() *MockBatchedSource {
	return &MockBatchedSource{MockSource: m}
}

// Sharing returns a new MockBatchedSource with a different identity, sharing
// the underlying resolver and call log.
func (b *MockBatchedSource) Sharing(identity any) *MockBatchedSource {
	return &MockBatchedSource{MockSource: b.MockSource.Sharing(identity)}
}

func (b *MockBatchedSource) FetchMulti(ctx context.Context, sources []DataSource, env any) (map[any]any, error) {
	batchID := b.log.nextBatchID()
	out := make(map[any]any, len(sources))
	for _, ds := range sources {
		ms, ok := ds.(*MockBatchedSource)
		if !ok {
			return nil, fmt.Errorf("fetch: mock batch received non-MockBatchedSource %T", ds)
		}
		v, err := ms.resolve(ctx, ms.identity)
		if err != nil {
			return nil, err
		}
		out[ms.identity] = v
		b.log.record(MockCall{SourceName: b.name, Identity: ms.identity, BatchID: batchID})
	}
	return out, nil
}

func (l *mockLog) record(c MockCall) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, c)
}

func (l *mockLog) nextBatchID() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.batchSeq++
	return l.batchSeq
}

func (l *mockLog) snapshot() []MockCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]MockCall, len(l.calls))
	copy(out, l.calls)
	return out
}
