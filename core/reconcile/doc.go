// Package reconcile compares two loads of the same JSON source key by key.
//
// A reload replaces a source's document as a whole, so without help a reader cannot
// tell what a file change actually did. The engine takes the previous and the current
// version, builds the union of their flat keys and reports for each key whether it
// was present before, is present now, and whether its value differs.
//
// # Architecture
//
// 1. Side: one version of a source, exposing its flat keys and a way to resolve them.
//    The cache snapshots implement it, so nothing is copied to compare.
//
// 2. Engine: ReconcileAll walks the key union and classifies every key; Summarize
//    condenses the results into counts plus a bounded sample of changed keys.
//
// # Usage Example
//
//	results := reconcile.ReconcileAll(previous, current)
//	summary := reconcile.Summarize(results, reconcile.DefaultSampleSize)
//	if summary.HasChanges() {
//	    log.Info("source changed", zap.Int("added", summary.Added))
//	}
package reconcile
