package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"jsoncache/core/cache"
	"jsoncache/core/utils"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Tool names.
const (
	QueryJSON     = "query_json"
	ListKeys      = "list_keys"
	GetCacheStats = "get_cache_stats"
	ReloadSource  = "reload_source"
	ListSources   = "list_sources"
)

// DefaultKeyLimit caps list_keys output when the caller gives no limit.
const DefaultKeyLimit = 500

// Service implements the MCP tools on top of a coordinator.
type Service struct {
	coord    *cache.Coordinator
	logger   *zap.Logger
	onReload []func(cache.ReloadResult)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReloadListener registers a callback for reloads requested through reload_source.
func WithReloadListener(fn func(cache.ReloadResult)) Option {
	return func(s *Service) {
		if fn != nil {
			s.onReload = append(s.onReload, fn)
		}
	}
}

// NewService creates the tool service.
func NewService(coord *cache.Coordinator, opts ...Option) *Service {
	s := &Service{coord: coord, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "mcp"))
	return s
}

// Register adds every tool to srv.
func (s *Service) Register(srv *server.MCPServer) {
	srv.AddTool(mcp.NewTool(QueryJSON,
		mcp.WithDescription("Look up a key in the cached JSON documents. Keys match case-insensitively, "+
			"with or without a configured namespace prefix, and dotted keys walk nested objects. "+
			"Without a source the primary source is searched first, then the others in order."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Key to look up, e.g. Q1.select")),
		mcp.WithString("source", mcp.Description("Restrict the lookup to one source")),
	), s.HandleQuery)

	srv.AddTool(mcp.NewTool(ListKeys,
		mcp.WithDescription("List the flattened keys of one source, or of all sources, sorted and deduplicated."),
		mcp.WithString("source", mcp.Description("Source name; all sources when empty")),
		mcp.WithString("prefix", mcp.Description("Only keys starting with this prefix")),
		mcp.WithNumber("max_depth", mcp.Description("Object levels to flatten (default from configuration)")),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum keys returned (default %d)", DefaultKeyLimit))),
	), s.HandleListKeys)

	srv.AddTool(mcp.NewTool(GetCacheStats,
		mcp.WithDescription("Cache statistics: sources, keys, sizes and lookup counters. "+
			"cacheHitRate is an approximation; totalFound and totalMissed give the real ratio."),
		mcp.WithString("source", mcp.Description("Statistics of one source only")),
	), s.HandleStats)

	srv.AddTool(mcp.NewTool(ReloadSource,
		mcp.WithDescription("Reload a source from disk or object storage. On failure the previous document stays cached."),
		mcp.WithString("source", mcp.Description("Source to reload; every source when empty")),
	), s.HandleReload)

	srv.AddTool(mcp.NewTool(ListSources,
		mcp.WithDescription("List the configured sources in search order with their load state."),
	), s.HandleListSources)
}

// HandleQuery implements query_json.
func (s *Service) HandleQuery(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.coord.Query(key, req.GetString("source", ""))
	if err != nil {
		return toolError(err), nil
	}
	if !res.Found {
		return jsonResult(NewQueryMiss(res, s.coord.LoadedSources()))
	}
	return jsonResult(res)
}

// QueryMiss is the answer to a lookup no source could satisfy. It is a normal
// result, not a tool error, so the caller can retry against another source.
type QueryMiss struct {
	cache.QueryResult
	Message          string   `json:"message"`
	AvailableSources []string `json:"availableSources"`
}

// NewQueryMiss describes res, which was not found, together with the loaded sources.
func NewQueryMiss(res cache.QueryResult, sources []string) QueryMiss {
	msg := fmt.Sprintf("key %q not found in any source", res.Key)
	switch {
	case res.Source == cache.UnknownSource:
		msg = fmt.Sprintf("key %q not found: unknown source", res.Key)
	case res.Source != "":
		msg = fmt.Sprintf("key %q not found in source %q", res.Key, res.Source)
	}
	if sources == nil {
		sources = []string{}
	}
	return QueryMiss{QueryResult: res, Message: msg, AvailableSources: sources}
}

// HandleListKeys implements list_keys.
func (s *Service) HandleListKeys(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	keys, err := s.coord.ListKeys(
		utils.ToString(args["source"]),
		utils.ToString(args["prefix"]),
		utils.ToInt(args["max_depth"], 0),
	)
	if err != nil {
		return toolError(err), nil
	}

	limit := utils.ToInt(args["limit"], DefaultKeyLimit)
	if limit <= 0 {
		limit = DefaultKeyLimit
	}
	total := len(keys)
	if total > limit {
		keys = keys[:limit]
	}
	return jsonResult(map[string]any{
		"count":     total,
		"keys":      keys,
		"truncated": total > limit,
	})
}

// HandleStats implements get_cache_stats.
func (s *Service) HandleStats(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if name := req.GetString("source", ""); name != "" {
		st, ok := s.coord.SourceStats(name)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown source %q", name)), nil
		}
		return jsonResult(st)
	}
	return jsonResult(s.coord.GlobalStats())
}

// HandleReload implements reload_source.
func (s *Service) HandleReload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("source", "")

	var results []cache.ReloadResult
	if name == "" {
		results = s.coord.ReloadAll(ctx)
	} else {
		if _, ok := s.coord.Cache(name); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown source %q", name)), nil
		}
		results = []cache.ReloadResult{s.coord.Reload(ctx, name)}
	}

	for _, res := range results {
		s.logger.Info("Reload requested",
			zap.String("source", res.Source),
			zap.Bool("success", res.Success),
		)
		for _, fn := range s.onReload {
			fn(res)
		}
	}

	if name != "" {
		if !results[0].Success {
			return errorJSONResult(results[0])
		}
		return jsonResult(results[0])
	}
	return jsonResult(results)
}

// sourceInfo is one entry of list_sources.
type sourceInfo struct {
	cache.SourceConfig
	Loaded bool `json:"loaded"`
	Keys   int  `json:"keys"`
}

// HandleListSources implements list_sources.
func (s *Service) HandleListSources(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out []sourceInfo
	for _, src := range s.coord.Sources() {
		info := sourceInfo{SourceConfig: src}
		if st, ok := s.coord.SourceStats(src.Name); ok {
			info.Loaded, info.Keys = st.Loaded, st.Keys
		}
		out = append(out, info)
	}
	return jsonResult(out)
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, cache.ErrCacheNotLoaded) {
		return mcp.NewToolResultError("cache is not loaded yet; check the server logs for load errors")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func errorJSONResult(v any) (*mcp.CallToolResult, error) {
	res, err := jsonResult(v)
	if err != nil {
		return nil, err
	}
	res.IsError = true
	return res, nil
}
