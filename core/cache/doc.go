// Package cache is the in-memory JSON cache: key resolution over a single document and
// coordination across several independently loaded documents.
//
// # Key resolution
//
// Real-world sources often name properties with literal dots, for example a query map
// keyed by "B17R2010.select" under a "b17" module object. Resolve therefore tries an
// exact property first, then a split at the first dot, then a plain dot-path walk.
// KeyResolver layers a case-insensitive match over the flattened keys (see ExtractKeys)
// and an optional list of namespace prefixes that are added or stripped when a key
// does not match as given.
//
// # Sources
//
// SourceCache owns one document. Loads replace the document atomically; a failed load
// keeps the previous one. Sources are read through a Fetcher: local files by default,
// or s3://bucket/object URLs through the storage package.
//
// # Coordination
//
// Coordinator loads up to ten sources concurrently and tolerates partial failure:
// LoadAll fails only when every source failed. Queries without a source try the
// primary source first and then the others in declaration order.
//
// # Usage
//
//	coord := cache.NewCoordinator(cache.WithLogger(log))
//	if _, err := coord.LoadAll(ctx, cfg.Cache); err != nil {
//	    return err
//	}
//	res, err := coord.Query("Q1.select", "")
//	keys, err := coord.ListKeys("", "b17.", 2)
//	result := coord.Reload(ctx, "queries")
package cache
