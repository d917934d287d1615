package fetch

import "context"

// DataSource is the user-implemented contract for a single fetchable item.
// SourceName and Identity must be deterministic and stable for the
// lifetime of the instance: SourceName is the stable type tag used as the
// outer cache key and batch-grouping key; Identity is a comparable key
// unique within that source type.
//
// Fetch performs the single-item fetch. The runner never calls Fetch
// concurrently with itself for the *same* DataSource instance, but may call
// it concurrently for different instances, including of the same
// SourceName; implementations are responsible for their own thread safety.
type DataSource interface {
	// SourceName identifies the concrete source type, e.g. "User" or
	// "FriendsOf". It is used as the outer cache key and as the
	// batch-grouping key.
	SourceName() string

	// Identity is a comparable key uniquely selecting this item within its
	// source type. It must be usable as a Go map key (no slices, maps, or
	// funcs) or the runner panics when building the frontier.
	Identity() any

	// Fetch performs the single-item fetch against env.
	Fetch(ctx context.Context, env any) (any, error)
}

// BatchedSource is the optional batching capability. The runner selects
// FetchMulti whenever two or more distinct, uncached identities of the same
// SourceName are on the frontier simultaneously; otherwise it calls Fetch
// once. Implementations that do not need batching simply do not implement
// this interface — the runner falls back to N parallel Fetch calls.
type BatchedSource interface {
	DataSource

	// FetchMulti fetches a homogeneous batch. sources all share SourceName()
	// with the receiver. The returned map's key set MUST equal the set of
	// sources' Identity() values; a missing entry is a fetch failure (a
	// malformed batch response, see ErrBatchShape).
	FetchMulti(ctx context.Context, sources []DataSource, env any) (map[any]any, error)
}

// ResourceName equals ds.SourceName(). It is exposed, alongside CacheID, so
// callers can preconstruct a seed Cache without round-tripping through a
// Source node: Seed(map[string]map[any]any{fetch.ResourceName(ds): {fetch.CacheID(ds): value}}).
func ResourceName(ds DataSource) string {
	return ds.SourceName()
}

// CacheID equals ds.Identity(). See ResourceName.
func CacheID(ds DataSource) any {
	return ds.Identity()
}
