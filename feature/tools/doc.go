// Package tools exposes the cache to AI assistants as Model Context Protocol tools.
//
// # Tools
//
//   - query_json: look a key up, optionally in one source.
//   - list_keys: sorted flat keys, filtered by source, prefix and depth.
//   - get_cache_stats: global or per-source statistics.
//   - reload_source: reload one source, or all of them.
//   - list_sources: configured sources with their load state.
//
// Results are JSON text. Precondition failures (cache not loaded, missing key,
// unknown source) are reported as tool errors rather than protocol errors.
//
// The server speaks JSON-RPC over stdin/stdout, so nothing else may write to stdout
// while it runs; the logger writes to stderr.
package tools
