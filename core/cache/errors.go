package cache

import "errors"

// Source load failures.
var (
	// ErrFileNotFound is returned when a source path does not exist.
	ErrFileNotFound = errors.New("source file not found")
	// ErrFileTooLarge is returned when a source exceeds the configured size ceiling.
	ErrFileTooLarge = errors.New("source file too large")
	// ErrParse is returned when a source is not valid JSON.
	ErrParse = errors.New("source is not valid JSON")
	// ErrInvalidShape is returned when a source's root is not a JSON object.
	ErrInvalidShape = errors.New("source root must be a JSON object")
	// ErrLoad covers every other I/O failure while reading a source.
	ErrLoad = errors.New("failed to load source")
)

// Coordinator configuration and aggregate failures.
var (
	ErrNoSources        = errors.New("no sources configured")
	ErrTooManySources   = errors.New("too many sources configured")
	ErrInvalidSource    = errors.New("invalid source configuration")
	ErrAllSourcesFailed = errors.New("all sources failed to load")
	ErrAlreadyLoaded    = errors.New("cache already loaded")
)

// Query-time precondition failures.
var (
	ErrCacheNotLoaded = errors.New("cache not loaded")
	ErrKeyRequired    = errors.New("key is required")
)

// IsPrecondition reports whether err signals caller misuse rather than a data problem.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrCacheNotLoaded) || errors.Is(err, ErrKeyRequired)
}
