package cache

import "time"

// Recorder receives cache events for metrics. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// Lookup records one Get against a source.
	Lookup(source string, found bool)
	// Load records a load attempt. keys and size are zero when err is non-nil.
	Load(source string, duration time.Duration, keys int, size int64, err error)
}

type nopRecorder struct{}

func (nopRecorder) Lookup(string, bool)                            {}
func (nopRecorder) Load(string, time.Duration, int, int64, error) {}
