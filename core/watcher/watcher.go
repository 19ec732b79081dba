package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"jsoncache/core/cache"

	"github.com/cenkalti/backoff/v5"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Reloader reloads a named source. *cache.Coordinator satisfies it.
type Reloader interface {
	Reload(ctx context.Context, name string) cache.ReloadResult
}

// Listener receives the final result of every reload the watcher performs.
type Listener func(cache.ReloadResult)

// Watcher reloads sources when their files change on disk.
//
// It watches the parent directory of each file so editors that save through a
// temporary file and rename are seen. Events for one source are debounced into a
// single reload; a failed reload is retried with a constant backoff.
type Watcher struct {
	cfg      Config
	reloader Reloader
	logger   *zap.Logger

	// files maps a cleaned absolute path to the sources reading it.
	files map[string][]string
	dirs  []string

	mu      sync.Mutex
	running bool
	fsw     *fsnotify.Watcher
	timers  map[string]*time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	listenersMu sync.RWMutex
	listeners   []Listener
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a watcher for the sources with Watch set. Object storage sources
// cannot be watched and are skipped with a warning.
func New(reloader Reloader, sources []cache.SourceConfig, cfg Config, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		cfg:      cfg.withDefaults(),
		reloader: reloader,
		logger:   zap.NewNop(),
		files:    make(map[string][]string),
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(zap.String("component", "watcher"))

	for _, src := range sources {
		if !src.Watch {
			continue
		}
		if cache.IsObjectPath(src.Path) {
			w.logger.Warn("Object storage sources cannot be watched",
				zap.String("source", src.Name),
				zap.String("path", src.Path),
			)
			continue
		}
		abs, err := filepath.Abs(src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path of source %q: %w", src.Name, err)
		}
		abs = filepath.Clean(abs)
		w.files[abs] = append(w.files[abs], src.Name)
		if dir := filepath.Dir(abs); !slices.Contains(w.dirs, dir) {
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Sources returns the names of the watched sources.
func (w *Watcher) Sources() []string {
	var out []string
	for _, names := range w.files {
		out = append(out, names...)
	}
	slices.Sort(out)
	return out
}

// OnReload registers a listener for reload results.
func (w *Watcher) OnReload(l Listener) {
	w.listenersMu.Lock()
	defer w.listenersMu.Unlock()
	w.listeners = append(w.listeners, l)
}

// Start begins watching. It returns once the directories are registered; events are
// handled in the background until ctx is cancelled or Close is called. With nothing to
// watch Start is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("watcher already running")
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.running = true

	if len(w.dirs) == 0 {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.loop(fsw)

	w.logger.Info("File watcher started",
		zap.Strings("sources", w.Sources()),
		zap.Strings("dirs", w.dirs),
		zap.Duration("debounce", w.cfg.Debounce),
	)
	return nil
}

// Close stops watching, cancels pending reloads and waits for running ones.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.cancel()
	for name, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, name)
	}
	var err error
	if w.fsw != nil {
		err = w.fsw.Close()
		w.fsw = nil
	}
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("File watcher stopped")
	return err
}

func (w *Watcher) loop(fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	// Remove and chmod alone never produce new content to load.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	names, ok := w.files[filepath.Clean(event.Name)]
	if !ok {
		return
	}
	for _, name := range names {
		w.logger.Debug("Source file changed",
			zap.String("source", name),
			zap.String("op", event.Op.String()),
		)
		w.Trigger(name)
	}
}

// Trigger schedules a reload of name after the debounce window. Triggering again
// within the window restarts it, so a burst of changes causes one reload.
func (w *Watcher) Trigger(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}

	// A stopped timer never runs its callback, so release its WaitGroup slot here.
	if old, ok := w.timers[name]; ok && old.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.cfg.Debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.timers[name] != t {
			w.mu.Unlock()
			return
		}
		delete(w.timers, name)
		ctx := w.ctx
		w.mu.Unlock()

		w.reload(ctx, name)
	})
	w.timers[name] = t
}

// reload runs one debounced reload with retries and notifies listeners.
func (w *Watcher) reload(ctx context.Context, name string) {
	var last cache.ReloadResult
	attempt := 0
	_, err := backoff.Retry(ctx, func() (cache.ReloadResult, error) {
		attempt++
		last = w.reloader.Reload(ctx, name)
		if last.Success {
			return last, nil
		}
		w.logger.Warn("Reload attempt failed",
			zap.String("source", name),
			zap.Int("attempt", attempt),
			zap.String("error", last.Error),
		)
		return last, errors.New(last.Error)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(w.cfg.RetryDelay)),
		backoff.WithMaxTries(w.cfg.RetryAttempts),
	)
	if err != nil && ctx.Err() != nil {
		return
	}
	if err != nil {
		w.logger.Error("Giving up reloading source, keeping previous document",
			zap.String("source", name),
			zap.Int("attempts", attempt),
			zap.String("error", last.Error),
		)
	}

	w.listenersMu.RLock()
	listeners := slices.Clone(w.listeners)
	w.listenersMu.RUnlock()
	for _, l := range listeners {
		l(last)
	}
}
