package fetch

// Node is a fetch description: the closed five-variant sum type the runner
// walks. The only implementations are the ones this package constructs via
// Value, Source, Map, Bind, and Product/Collect — application code never
// implements Node itself.
//
// Invariants:
//  1. A Node is immutable; every combinator here produces a new Node.
//  2. A fully-resolved Node is exactly a Value.
//  3. Source equality for caching/dedup purposes is (SourceName, Identity),
//     never object identity — see DataSource.
type Node interface {
	isNode()
}

type valueNode struct {
	v any
}

func (*valueNode) isNode() {}

type sourceNode struct {
	ds DataSource
}

func (*sourceNode) isNode() {}

type mapNode struct {
	f     func(any) any
	child Node
}

func (*mapNode) isNode() {}

type bindNode struct {
	f     func(any) Node
	child Node
}

func (*bindNode) isNode() {}

type productNode struct {
	children []Node
}

func (*productNode) isNode() {}

// Value lifts a pure, already-resolved value into the AST. It adds no
// fetches: run(Value(v)) = v.
func Value(v any) Node {
	return &valueNode{v: v}
}

// Source wraps an unresolved DataSource instance as a fetch leaf. Two
// Source nodes are the same fetch, for caching purposes, iff their
// (SourceName, Identity) pairs are equal.
func Source(ds DataSource) Node {
	return &sourceNode{ds: ds}
}

// Map applies a pure transform f to a once it resolves. If a is already a
// Value, f is applied eagerly: for an f that returns normally,
// map(f, value(x)) and a deferred map(f, a) yield the same result. A panic
// in f over an already-resolved Value escapes from Map itself; it is not
// reported as ErrMapFailed by the runner.
func Map(f func(any) any, a Node) Node {
	if vn, ok := a.(*valueNode); ok {
		return &valueNode{v: f(vn.v)}
	}
	return &mapNode{f: f, child: a}
}

// Bind is monadic bind: f receives a's resolved value and returns the AST
// to resolve next. Evaluation of f is deferred until the runner observes a
// has collapsed to a Value — never at construction time — so that a
// misbehaving f (a panic, or a bad type assertion over the resolved value)
// is caught and reported as ErrBindFailed by the runner instead of
// escaping as an ordinary Go panic.
func Bind(f func(any) Node, a Node) Node {
	return &bindNode{f: f, child: a}
}

// Product resolves every child concurrently and yields their values as an
// ordered []any, in child order regardless of completion order.
func Product(children ...Node) Node {
	cp := make([]Node, len(children))
	copy(cp, children)
	return &productNode{children: cp}
}

// Collect is Product over an existing slice.
func Collect(children []Node) Node {
	return Product(children...)
}

// Traverse resolves a to a slice of items, applies f to each, and collects
// the results: traverse(f, a) = bind(xs -> collect(map(f, xs)), a).
func Traverse(f func(any) Node, a Node) Node {
	return Bind(func(v any) Node {
		xs := v.([]any)
		children := make([]Node, len(xs))
		for i, x := range xs {
			children[i] = f(x)
		}
		return Collect(children)
	}, a)
}

// valueOf returns the carried value and true if n is a Value, else
// (nil, false).
func valueOf(n Node) (any, bool) {
	vn, ok := n.(*valueNode)
	if !ok {
		return nil, false
	}
	return vn.v, true
}
