// Package dashboard serves the cache over HTTP and WebSocket.
//
// # HTTP Endpoints
//
//   - GET /                       : HTML dashboard.
//   - GET /api/health             : 200 once loaded, 503 before.
//   - GET /api/sources            : configured sources.
//   - GET /api/stats              : global statistics.
//   - GET /api/stats/:source      : statistics of one source.
//   - GET /api/query?key=&source= : key lookup.
//   - GET /api/keys?source=&prefix=&maxDepth= : sorted key listing.
//   - POST /api/reload/:source    : reload one source.
//   - POST /api/reload            : reload every source.
//   - GET /metrics                : Prometheus metrics, when a collector is configured.
//
// # Stream
//
// GET /ws upgrades to a WebSocket. The server sends {"type":"stats"} on connect and
// {"type":"reload"} after every reload, whether triggered by the file watcher, the
// API or an MCP tool. Clients may send {"type":"stats"} to request fresh statistics.
package dashboard
