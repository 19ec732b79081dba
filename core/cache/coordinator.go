package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"jsoncache/core/reconcile"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// UnknownSource is reported as the source of a query naming a source that does not exist.
const UnknownSource = "unknown"

// hitRateFloor is the notional number of requests per loaded source assumed by
// GlobalStats.CacheHitRate.
const hitRateFloor = 10

// QueryResult is the outcome of a lookup. A miss is a normal result, not an error.
type QueryResult struct {
	Source string `json:"source"`
	Key    string `json:"key"`
	Value  any    `json:"value"`
	Found  bool   `json:"found"`
}

// LoadResult is the outcome of loading one source during LoadAll.
type LoadResult struct {
	Source   string        `json:"source"`
	Success  bool          `json:"success"`
	Keys     int           `json:"keys"`
	Size     int64         `json:"size"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// ReloadResult is the outcome of reloading one source.
type ReloadResult struct {
	Source   string        `json:"source"`
	Success  bool          `json:"success"`
	Keys     int           `json:"keys"`
	Size     int64         `json:"size"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	// Changes compares the new document with the one it replaced. It is absent when
	// the reload failed or the source had not been loaded before.
	Changes *reconcile.Summary `json:"changes,omitempty"`
}

// GlobalStats aggregates every source.
type GlobalStats struct {
	TotalSources  int    `json:"totalSources"`
	LoadedSources int    `json:"loadedSources"`
	PrimarySource string `json:"primarySource"`
	TotalKeys     int    `json:"totalKeys"`
	TotalSize     int64  `json:"totalSize"`
	TotalHits     int64  `json:"totalHits"`
	TotalFound    int64  `json:"totalFound"`
	TotalMissed   int64  `json:"totalMissed"`
	// CacheHitRate is an approximation, not a hit/miss ratio: hits divided by the
	// larger of hits and ten requests per loaded source, as a percentage. Use
	// TotalFound and TotalMissed for the real ratio.
	CacheHitRate float64       `json:"cacheHitRate"`
	Sources      []SourceStats `json:"sources"`
}

// Coordinator owns a fixed, ordered set of named sources and routes queries and
// reloads across them.
type Coordinator struct {
	logger   *zap.Logger
	fetcher  Fetcher
	recorder Recorder

	mu       sync.RWMutex
	loaded   bool
	order    []string
	sources  map[string]*SourceCache
	primary  string
	maxDepth int
	resolver *KeyResolver

	reloads singleflight.Group
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger used by the coordinator and its sources.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFetcher sets how sources are read.
func WithFetcher(f Fetcher) Option {
	return func(c *Coordinator) {
		if f != nil {
			c.fetcher = f
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.recorder = r
		}
	}
}

// NewCoordinator creates an empty coordinator. Call LoadAll before querying.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		logger:   zap.NewNop(),
		fetcher:  FileFetcher{},
		recorder: nopRecorder{},
		sources:  make(map[string]*SourceCache),
		maxDepth: DefaultMaxDepth,
		resolver: NewKeyResolver(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateConfig checks the source list without loading anything.
func ValidateConfig(cfg Config) error {
	switch {
	case len(cfg.Sources) == 0:
		return ErrNoSources
	case len(cfg.Sources) > MaxSources:
		return fmt.Errorf("%w: %d (maximum %d)", ErrTooManySources, len(cfg.Sources), MaxSources)
	}

	seen := make(map[string]struct{}, len(cfg.Sources))
	var problems []string
	for i, src := range cfg.Sources {
		name := strings.TrimSpace(src.Name)
		if name == "" {
			problems = append(problems, fmt.Sprintf("sources[%d]: name is required", i))
			continue
		}
		if strings.TrimSpace(src.Path) == "" {
			problems = append(problems, fmt.Sprintf("sources[%d] (%s): path is required", i, name))
		}
		if _, dup := seen[name]; dup {
			problems = append(problems, fmt.Sprintf("sources[%d]: duplicate name %q", i, name))
		}
		seen[name] = struct{}{}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidSource, strings.Join(problems, "\n  - "))
	}
	return nil
}

// primaryIndex returns the first source marked primary, or 0.
func primaryIndex(sources []SourceConfig) int {
	for i, src := range sources {
		if src.Primary {
			return i
		}
	}
	return 0
}

// LoadAll registers the configured sources and loads them concurrently. One source
// failing never stops the others. It fails only on invalid configuration or when every
// source failed; otherwise failed sources stay registered but unloaded and are logged.
func (c *Coordinator) LoadAll(ctx context.Context, cfg Config) ([]LoadResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil, ErrAlreadyLoaded
	}

	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	resolver := NewKeyResolver(cfg.NamespacePrefixes)
	primary := primaryIndex(cfg.Sources)

	order := make([]string, 0, len(cfg.Sources))
	sources := make(map[string]*SourceCache, len(cfg.Sources))
	for i, src := range cfg.Sources {
		src.Name = strings.TrimSpace(src.Name)
		src.Primary = i == primary
		order = append(order, src.Name)
		sources[src.Name] = NewSourceCache(src,
			WithSourceLogger(c.logger),
			WithSourceFetcher(c.fetcher),
			WithSourceRecorder(c.recorder),
			WithSourceResolver(resolver),
			WithSourceMaxDepth(maxDepth),
			WithSourceMaxFileSize(cfg.MaxFileSize),
		)
	}

	c.logger.Info("Loading sources",
		zap.Int("count", len(order)),
		zap.String("primary", order[primary]),
		zap.Strings("namespacePrefixes", resolver.Prefixes()),
	)

	results := make([]LoadResult, len(order))
	var g errgroup.Group
	for i, name := range order {
		sc := sources[name]
		g.Go(func() error {
			start := time.Now()
			err := sc.Load(ctx)
			st := sc.Stats()
			results[i] = LoadResult{
				Source:   name,
				Success:  err == nil,
				Keys:     st.Keys,
				Size:     st.Size,
				Duration: time.Since(start),
				Err:      err,
			}
			// Failures are collected in results, never returned to the group.
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	var errs []error
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r.Source)
			errs = append(errs, r.Err)
		}
	}
	if len(failed) == len(results) {
		return results, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
	}
	if len(failed) > 0 {
		c.logger.Warn("Some sources failed to load",
			zap.Strings("failed", failed),
			zap.Error(errors.Join(errs...)),
		)
	}

	c.order = order
	c.sources = sources
	c.primary = order[primary]
	c.maxDepth = maxDepth
	c.resolver = resolver
	c.loaded = true

	c.logger.Info("Sources loaded",
		zap.Int("loaded", len(results)-len(failed)),
		zap.Int("failed", len(failed)),
	)
	return results, nil
}

// IsLoaded reports whether LoadAll completed.
func (c *Coordinator) IsLoaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// PrimarySource returns the name of the primary source.
func (c *Coordinator) PrimarySource() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.primary
}

// DefaultMaxDepth returns the coordinator-wide key depth.
func (c *Coordinator) DefaultMaxDepth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxDepth
}

// Cache returns the named source.
func (c *Coordinator) Cache(name string) (*SourceCache, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sc, ok := c.sources[name]
	return sc, ok
}

// Sources returns the configuration of every source in declaration order.
func (c *Coordinator) Sources() []SourceConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]SourceConfig, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.sources[name].Config())
	}
	return out
}

// LoadedSources returns the names of sources currently holding a document, in
// declaration order.
func (c *Coordinator) LoadedSources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for _, name := range c.order {
		if c.sources[name].IsLoaded() {
			out = append(out, name)
		}
	}
	return out
}

// WatchedSources returns the configuration of sources with watch enabled.
func (c *Coordinator) WatchedSources() []SourceConfig {
	var out []SourceConfig
	for _, src := range c.Sources() {
		if src.Watch {
			out = append(out, src)
		}
	}
	return out
}

// searchOrder returns the primary followed by the other sources in declaration order.
func (c *Coordinator) searchOrder() []*SourceCache {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*SourceCache, 0, len(c.order))
	if sc, ok := c.sources[c.primary]; ok {
		out = append(out, sc)
	}
	for _, name := range c.order {
		if name != c.primary {
			out = append(out, c.sources[name])
		}
	}
	return out
}

// Query looks key up in source, or across all loaded sources primary-first when
// source is empty.
func (c *Coordinator) Query(key, source string) (QueryResult, error) {
	if !c.IsLoaded() {
		return QueryResult{}, ErrCacheNotLoaded
	}
	if key == "" {
		return QueryResult{}, ErrKeyRequired
	}

	if source != "" {
		sc, ok := c.Cache(source)
		if !ok {
			return QueryResult{Source: UnknownSource, Key: key}, nil
		}
		v, found := sc.Get(key)
		return QueryResult{Source: source, Key: key, Value: v, Found: found}, nil
	}

	for _, sc := range c.searchOrder() {
		if !sc.IsLoaded() {
			continue
		}
		if v, found := sc.Get(key); found {
			return QueryResult{Source: sc.Name(), Key: key, Value: v, Found: true}, nil
		}
	}
	return QueryResult{Key: key}, nil
}

// ListKeys returns the sorted, deduplicated keys of source (or every loaded source when
// empty) that start with prefix. maxDepth <= 0 uses the coordinator default. An unknown
// source yields no keys.
func (c *Coordinator) ListKeys(source, prefix string, maxDepth int) ([]string, error) {
	if !c.IsLoaded() {
		return nil, ErrCacheNotLoaded
	}
	if maxDepth <= 0 {
		maxDepth = c.DefaultMaxDepth()
	}

	var targets []*SourceCache
	if source != "" {
		if sc, ok := c.Cache(source); ok {
			targets = append(targets, sc)
		}
	} else {
		targets = c.searchOrder()
	}

	set := make(map[string]struct{})
	for _, sc := range targets {
		for key := range sc.KeySeq(maxDepth) {
			if strings.HasPrefix(key, prefix) {
				set[key] = struct{}{}
			}
		}
	}

	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}

// Reload reloads one source. It never fails: problems are reported in the result and
// the previously loaded document stays in place. Concurrent reloads of the same source
// share one load.
func (c *Coordinator) Reload(ctx context.Context, name string) ReloadResult {
	sc, ok := c.Cache(name)
	if !ok {
		return ReloadResult{Source: name, Error: fmt.Sprintf("unknown source %q", name)}
	}

	v, _, _ := c.reloads.Do(name, func() (any, error) {
		start := time.Now()
		changes, err := sc.Refresh(ctx)
		res := ReloadResult{
			Source:   name,
			Success:  err == nil,
			Duration: time.Since(start),
			Changes:  changes,
		}
		st := sc.Stats()
		res.Keys, res.Size = st.Keys, st.Size
		if err != nil {
			res.Error = err.Error()
			c.logger.Warn("Reload failed, keeping previous document",
				zap.String("source", name),
				zap.Bool("loaded", st.Loaded),
				zap.Error(err),
			)
		} else {
			fields := []zap.Field{
				zap.String("source", name),
				zap.Int("keys", res.Keys),
				zap.Duration("duration", res.Duration),
			}
			if changes != nil {
				fields = append(fields,
					zap.Int("added", changes.Added),
					zap.Int("removed", changes.Removed),
					zap.Int("changed", changes.Changed),
				)
			}
			c.logger.Info("Source reloaded", fields...)
		}
		return res, nil
	})
	return v.(ReloadResult)
}

// ReloadAll reloads every source concurrently and returns results in declaration order.
func (c *Coordinator) ReloadAll(ctx context.Context) []ReloadResult {
	sources := c.Sources()
	results := make([]ReloadResult, len(sources))
	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			results[i] = c.Reload(ctx, src.Name)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// SourceStats returns the statistics of one source.
func (c *Coordinator) SourceStats(name string) (SourceStats, bool) {
	sc, ok := c.Cache(name)
	if !ok {
		return SourceStats{}, false
	}
	return sc.Stats(), true
}

// GlobalStats aggregates statistics across every source.
func (c *Coordinator) GlobalStats() GlobalStats {
	gs := GlobalStats{PrimarySource: c.PrimarySource(), Sources: []SourceStats{}}
	for _, src := range c.Sources() {
		st, ok := c.SourceStats(src.Name)
		if !ok {
			continue
		}
		gs.TotalSources++
		if st.Loaded {
			gs.LoadedSources++
		}
		gs.TotalKeys += st.Keys
		gs.TotalSize += st.Size
		gs.TotalHits += st.Hits
		gs.TotalFound += st.Found
		gs.TotalMissed += st.Missed
		gs.Sources = append(gs.Sources, st)
	}
	gs.CacheHitRate = approximateHitRate(gs.TotalHits, gs.LoadedSources)
	return gs
}

func approximateHitRate(hits int64, loaded int) float64 {
	if hits <= 0 {
		return 0
	}
	requests := max(hits, int64(loaded*hitRateFloor))
	return float64(hits) / float64(requests) * 100
}
