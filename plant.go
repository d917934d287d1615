package fetch

import "fmt"

// resolver answers (sourceName, identity) -> (value, found) against the
// current cache.
type resolver func(sourceName string, identity any) (any, bool)

// plant substitutes every resolvable Source node in n and collapses pure
// combinators whose children all became Value nodes. It returns the
// planted node, whether a Bind collapsed into a freshly materialized
// continuation during this pass (used for the runner's progress
// invariant), and any error from a misbehaving Map/Bind function.
//
// Planting is pure and terminates in O(tree size).
func plant(n Node, r resolver) (Node, bool, error) {
	switch t := n.(type) {
	case *valueNode:
		return t, false, nil

	case *sourceNode:
		if v, ok := r(t.ds.SourceName(), t.ds.Identity()); ok {
			return &valueNode{v: v}, false, nil
		}
		return t, false, nil

	case *mapNode:
		child, expanded, err := plant(t.child, r)
		if err != nil {
			return nil, false, err
		}
		if v, ok := valueOf(child); ok {
			result, err := applyMap(t.f, v)
			if err != nil {
				return nil, false, err
			}
			return &valueNode{v: result}, expanded, nil
		}
		return &mapNode{f: t.f, child: child}, expanded, nil

	case *productNode:
		planted := make([]Node, len(t.children))
		anyExpanded := false
		allValues := true
		for i, c := range t.children {
			pc, expanded, err := plant(c, r)
			if err != nil {
				return nil, false, err
			}
			planted[i] = pc
			anyExpanded = anyExpanded || expanded
			if _, ok := valueOf(pc); !ok {
				allValues = false
			}
		}
		if allValues {
			vals := make([]any, len(planted))
			for i, pc := range planted {
				vals[i], _ = valueOf(pc)
			}
			return &valueNode{v: vals}, anyExpanded, nil
		}
		return &productNode{children: planted}, anyExpanded, nil

	case *bindNode:
		child, expanded, err := plant(t.child, r)
		if err != nil {
			return nil, false, err
		}
		if v, ok := valueOf(child); ok {
			next, err := applyBind(t.f, v)
			if err != nil {
				return nil, false, err
			}
			// The continuation just materialized: report this as
			// expansion regardless of its size, satisfying the progress
			// invariant's allowance for a Bind revealing new fetches at a
			// position that previously had none.
			return next, true, nil
		}
		return &bindNode{f: t.f, child: child}, expanded, nil

	default:
		panic(fmt.Sprintf("fetch: unknown Node variant %T", n))
	}
}

// applyMap invokes f, converting a panic into ErrMapFailed instead of
// crashing the run.
func applyMap(f func(any) any, v any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMapFailed, r)
		}
	}()
	return f(v), nil
}

// applyBind invokes f, converting a panic or a nil return into
// ErrBindFailed instead of crashing the run or corrupting the tree.
func applyBind(f func(any) Node, v any) (next Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrBindFailed, r)
		}
	}()
	next = f(v)
	if next == nil {
		return nil, fmt.Errorf("%w: continuation returned a nil Node", ErrBindFailed)
	}
	return next, nil
}
