// Package watcher reloads cached sources when their files change.
//
// A Watcher registers the parent directory of every source marked watch: true with
// fsnotify and filters events down to the source files. Changes are debounced per
// source, so an editor writing a file in several steps causes one reload. A reload
// that fails (for example because the file was caught half written) is retried with
// a constant backoff; once attempts are exhausted the previous document stays
// cached. Listeners registered with OnReload see the final result of each reload.
//
// # Usage
//
//	w, err := watcher.New(coordinator, coordinator.WatchedSources(), cfg.Watch,
//	    watcher.WithLogger(log))
//	w.OnReload(hub.BroadcastReload)
//	err = w.Start(ctx)
//	defer w.Close()
package watcher
