// Package metrics exposes cache activity to Prometheus.
//
// The Collector is handed to the cache coordinator as its recorder and counts
// lookups per source and result, load attempts and their duration, and the size of
// each loaded document. The dashboard mounts Handler at /metrics.
package metrics
