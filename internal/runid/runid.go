// Package runid threads a per-run correlation id through context.Context.
// A long-lived process may run many fetch trees concurrently, so ids are
// minted as UUIDs to stay collision-free across them.
package runid

import (
	"context"

	"github.com/google/uuid"
)

type key struct{}

// NewContext returns a copy of parent carrying a freshly minted run id, and
// the id itself.
func NewContext(parent context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the run id from ctx, if any was attached.
func FromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(key{})
	id, ok := v.(string)
	return id, ok
}
