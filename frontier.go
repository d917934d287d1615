package fetch

import "fmt"

// frontierGroup holds the distinct identities requested for one source name
// on the current frontier, together with one representative DataSource
// instance per identity (used to invoke Fetch/FetchMulti). When the same
// identity appears in more than one subtree, the instance last seen during
// the walk wins — DataSource instances are assumed referentially
// transparent for a given (SourceName, Identity), so which one is kept
// does not change the fetched result.
type frontierGroup struct {
	sourceName string
	byIdentity map[any]DataSource
}

// size returns the number of distinct identities in the group.
func (g *frontierGroup) size() int { return len(g.byIdentity) }

// analyzeFrontier walks n and returns the Source nodes ready to be fetched
// now, grouped by source name and deduplicated by identity within each
// group:
//
//  1. Value contributes nothing.
//  2. Source contributes itself.
//  3. Map recurses into its child.
//  4. Product recurses into every child and unions the results — this is
//     what makes siblings concurrent.
//  5. Bind recurses into its child only; its continuation is untouched
//     since the subsequent AST is not yet known.
func analyzeFrontier(n Node) map[string]*frontierGroup {
	groups := make(map[string]*frontierGroup)
	walkFrontier(n, groups)
	return groups
}

// frontierSize is the total number of distinct (sourceName, identity)
// pairs reachable without crossing an unresolved Bind. The runner uses this
// before/after planting to enforce its progress invariant.
func frontierSize(n Node) int {
	total := 0
	for _, g := range analyzeFrontier(n) {
		total += g.size()
	}
	return total
}

func walkFrontier(n Node, groups map[string]*frontierGroup) {
	switch t := n.(type) {
	case *valueNode:
		return
	case *sourceNode:
		name := t.ds.SourceName()
		g, ok := groups[name]
		if !ok {
			g = &frontierGroup{sourceName: name, byIdentity: make(map[any]DataSource)}
			groups[name] = g
		}
		g.byIdentity[t.ds.Identity()] = t.ds
	case *mapNode:
		walkFrontier(t.child, groups)
	case *productNode:
		for _, c := range t.children {
			walkFrontier(c, groups)
		}
	case *bindNode:
		walkFrontier(t.child, groups)
	default:
		panic(fmt.Sprintf("fetch: unknown Node variant %T", n))
	}
}
