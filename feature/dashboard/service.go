package dashboard

import (
	"context"

	"jsoncache/core/cache"

	"go.uber.org/zap"
)

// Service exposes the cache to the dashboard handlers.
type Service struct {
	coord  *cache.Coordinator
	hub    *Hub
	logger *zap.Logger
}

// NewService creates a new dashboard service.
func NewService(coord *cache.Coordinator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		coord:  coord,
		hub:    NewHub(coord.GlobalStats, logger),
		logger: logger,
	}
}

// Hub returns the WebSocket hub.
func (s *Service) Hub() *Hub {
	return s.hub
}

// Query looks a key up.
func (s *Service) Query(key, source string) (cache.QueryResult, error) {
	return s.coord.Query(key, source)
}

// Keys lists keys.
func (s *Service) Keys(source, prefix string, maxDepth int) ([]string, error) {
	return s.coord.ListKeys(source, prefix, maxDepth)
}

// Stats returns the global statistics.
func (s *Service) Stats() cache.GlobalStats {
	return s.coord.GlobalStats()
}

// SourceStats returns the statistics of one source.
func (s *Service) SourceStats(name string) (cache.SourceStats, bool) {
	return s.coord.SourceStats(name)
}

// Sources returns every configured source.
func (s *Service) Sources() []cache.SourceConfig {
	return s.coord.Sources()
}

// Ready reports whether the cache can answer queries.
func (s *Service) Ready() bool {
	return s.coord.IsLoaded()
}

// Reload reloads one source and pushes the result to dashboard clients. ok is false
// when the source does not exist.
func (s *Service) Reload(ctx context.Context, name string) (res cache.ReloadResult, ok bool) {
	if _, ok := s.coord.Cache(name); !ok {
		return cache.ReloadResult{Source: name, Error: "unknown source"}, false
	}
	res = s.coord.Reload(ctx, name)
	s.hub.BroadcastReload(res)
	return res, true
}

// ReloadAll reloads every source and pushes each result to dashboard clients.
func (s *Service) ReloadAll(ctx context.Context) []cache.ReloadResult {
	results := s.coord.ReloadAll(ctx)
	for _, res := range results {
		s.hub.BroadcastReload(res)
	}
	return results
}
