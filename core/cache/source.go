package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"jsoncache/core/reconcile"

	"go.uber.org/zap"
)

// snapshot is one successfully loaded state of a source. It is replaced as a whole.
type snapshot struct {
	doc          *Document
	index        keyIndex
	keyCount     int
	maxDepth     int
	loadedAt     time.Time
	loadDuration time.Duration
}

// Keys yields every flat key of the snapshot at the depth it was indexed with.
func (sn *snapshot) Keys() iter.Seq[string] {
	return ExtractKeys(sn.doc, sn.maxDepth)
}

// Value resolves a flat key against the snapshot's document.
func (sn *snapshot) Value(key string) (any, bool) {
	return Resolve(key, sn.doc.Root())
}

// SourceCache holds one loaded JSON document and answers lookups against it.
//
// Readers never lock: the loaded state lives behind an atomic pointer, so a reader sees
// either the previous document or the new one in full. A failed Load leaves the
// current state in place.
type SourceCache struct {
	cfg      SourceConfig
	maxDepth int
	maxSize  int64
	resolver *KeyResolver
	fetcher  Fetcher
	recorder Recorder
	logger   *zap.Logger

	loadMu   sync.Mutex
	state    atomic.Pointer[snapshot]
	lastSize atomic.Int64

	hits   atomic.Int64
	found  atomic.Int64
	missed atomic.Int64
}

// SourceOption configures a SourceCache.
type SourceOption func(*SourceCache)

// WithSourceLogger sets the logger.
func WithSourceLogger(logger *zap.Logger) SourceOption {
	return func(s *SourceCache) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSourceFetcher sets how the source bytes are read.
func WithSourceFetcher(f Fetcher) SourceOption {
	return func(s *SourceCache) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithSourceMaxDepth sets the default flattening depth used for the key index and Keys.
func WithSourceMaxDepth(depth int) SourceOption {
	return func(s *SourceCache) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithSourceMaxFileSize sets the size ceiling in bytes.
func WithSourceMaxFileSize(limit int64) SourceOption {
	return func(s *SourceCache) {
		if limit > 0 {
			s.maxSize = limit
		}
	}
}

// WithSourceResolver sets the lookup cascade.
func WithSourceResolver(r *KeyResolver) SourceOption {
	return func(s *SourceCache) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithSourceRecorder sets the metrics recorder.
func WithSourceRecorder(r Recorder) SourceOption {
	return func(s *SourceCache) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewSourceCache creates an unloaded cache for cfg.
func NewSourceCache(cfg SourceConfig, opts ...SourceOption) *SourceCache {
	s := &SourceCache{
		cfg:      cfg,
		maxDepth: DefaultMaxDepth,
		maxSize:  DefaultMaxFileSize,
		resolver: NewKeyResolver(nil),
		fetcher:  FileFetcher{},
		recorder: nopRecorder{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("source", cfg.Name))
	return s
}

// Name returns the source name.
func (s *SourceCache) Name() string { return s.cfg.Name }

// Path returns the source path.
func (s *SourceCache) Path() string { return s.cfg.Path }

// Config returns the source configuration.
func (s *SourceCache) Config() SourceConfig { return s.cfg }

// IsLoaded reports whether a document is currently held.
func (s *SourceCache) IsLoaded() bool { return s.state.Load() != nil }

// LoadedAt returns when the current document was loaded, or the zero time.
func (s *SourceCache) LoadedAt() time.Time {
	if snap := s.state.Load(); snap != nil {
		return snap.loadedAt
	}
	return time.Time{}
}

// Document returns the current document, or nil when unloaded.
func (s *SourceCache) Document() *Document {
	if snap := s.state.Load(); snap != nil {
		return snap.doc
	}
	return nil
}

// Load reads, parses and indexes the source, then swaps the result in.
// Concurrent Loads of the same source run one at a time.
func (s *SourceCache) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	_, err := s.load(ctx)
	return err
}

// Refresh loads the source like Load and reports how the new document differs from
// the one it replaced. The summary is nil when nothing was loaded before.
func (s *SourceCache) Refresh(ctx context.Context) (*reconcile.Summary, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	prev := s.state.Load()
	next, err := s.load(ctx)
	if err != nil || prev == nil {
		return nil, err
	}
	summary := reconcile.Summarize(reconcile.ReconcileAll(prev, next), reconcile.DefaultSampleSize)
	return &summary, nil
}

func (s *SourceCache) load(ctx context.Context) (*snapshot, error) {
	start := time.Now()
	s.logger.Debug("Loading source", zap.String("path", s.cfg.Path))

	raw, err := s.fetcher.Fetch(ctx, s.cfg.Path, s.maxSize)
	var doc *Document
	if err == nil {
		doc, err = ParseDocument(raw)
	}
	if err != nil {
		s.recorder.Load(s.cfg.Name, time.Since(start), 0, 0, err)
		return nil, fmt.Errorf("source %q: %w", s.cfg.Name, err)
	}

	index, count := buildIndex(doc, s.maxDepth)
	elapsed := time.Since(start)
	next := &snapshot{
		doc:          doc,
		index:        index,
		keyCount:     count,
		maxDepth:     s.maxDepth,
		loadedAt:     time.Now(),
		loadDuration: elapsed,
	}
	s.state.Store(next)
	s.lastSize.Store(doc.Size())
	s.recorder.Load(s.cfg.Name, elapsed, count, doc.Size(), nil)

	s.logger.Info("Source loaded",
		zap.String("path", s.cfg.Path),
		zap.Int("keys", count),
		zap.Int64("size", doc.Size()),
		zap.Duration("duration", elapsed),
	)
	return next, nil
}

// Clear drops the loaded document. Hit counters are kept.
func (s *SourceCache) Clear() {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	s.state.Store(nil)
	s.logger.Info("Source cleared")
}

// Get resolves key through the lookup cascade. Every call counts as a hit in the
// source statistics, whether or not a value is found.
func (s *SourceCache) Get(key string) (any, bool) {
	s.hits.Add(1)

	var (
		v  any
		ok bool
	)
	if snap := s.state.Load(); snap != nil {
		v, ok = s.resolver.Get(snap.doc, snap.index, key)
	}

	if ok {
		s.found.Add(1)
	} else {
		s.missed.Add(1)
	}
	s.recorder.Lookup(s.cfg.Name, ok)
	return v, ok
}

// Has reports whether Get would find key. It counts as a hit.
func (s *SourceCache) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// KeySeq enumerates flat keys up to maxDepth, or the source default when maxDepth <= 0.
func (s *SourceCache) KeySeq(maxDepth int) iter.Seq[string] {
	if maxDepth <= 0 {
		maxDepth = s.maxDepth
	}
	return ExtractKeys(s.Document(), maxDepth)
}

// Keys collects KeySeq in document order.
func (s *SourceCache) Keys(maxDepth int) []string {
	return slices.Collect(s.KeySeq(maxDepth))
}

// EstimateMemoryUsage approximates the document's footprint by re-serializing it.
// When serialization fails the last loaded file size is returned.
func (s *SourceCache) EstimateMemoryUsage() int64 {
	doc := s.Document()
	if doc == nil {
		return 0
	}
	data, err := json.Marshal(doc.Root())
	if err != nil {
		return s.lastSize.Load()
	}
	return int64(len(data))
}

// Clone returns a deep copy of the document, or an empty map when unloaded or when
// the copy fails.
func (s *SourceCache) Clone() map[string]any {
	out := make(map[string]any)
	doc := s.Document()
	if doc == nil {
		return out
	}
	data, err := json.Marshal(doc.Root())
	if err != nil {
		s.logger.Warn("Clone failed", zap.Error(err))
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		s.logger.Warn("Clone failed", zap.Error(err))
		return make(map[string]any)
	}
	return out
}

// SourceStats describes one source.
type SourceStats struct {
	Name         string     `json:"name"`
	Path         string     `json:"path"`
	Primary      bool       `json:"primary"`
	Watch        bool       `json:"watch"`
	Loaded       bool       `json:"loaded"`
	Keys         int        `json:"keys"`
	Size         int64      `json:"size"`
	Hits         int64      `json:"hits"`
	Found        int64      `json:"found"`
	Missed       int64      `json:"missed"`
	LoadedAt     *time.Time `json:"loadedAt,omitempty"`
	LoadDuration string     `json:"loadDuration,omitempty"`
}

// Stats returns the current statistics. Keys and Size describe the current document
// and are zero when unloaded.
func (s *SourceCache) Stats() SourceStats {
	st := SourceStats{
		Name:    s.cfg.Name,
		Path:    s.cfg.Path,
		Primary: s.cfg.Primary,
		Watch:   s.cfg.Watch,
		Hits:    s.hits.Load(),
		Found:   s.found.Load(),
		Missed:  s.missed.Load(),
	}
	if snap := s.state.Load(); snap != nil {
		loadedAt := snap.loadedAt
		st.Loaded = true
		st.Keys = snap.keyCount
		st.Size = snap.doc.Size()
		st.LoadedAt = &loadedAt
		st.LoadDuration = snap.loadDuration.String()
	}
	return st
}
