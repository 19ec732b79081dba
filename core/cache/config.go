package cache

const (
	// DefaultMaxDepth is the number of object levels flattened into keys when no depth is given.
	DefaultMaxDepth = 2
	// DefaultMaxFileSize is the 50 MiB ceiling applied to every source.
	DefaultMaxFileSize int64 = 50 * 1024 * 1024
	// MaxSources is the largest number of sources a coordinator accepts.
	MaxSources = 10
)

// SourceConfig declares one named JSON source.
type SourceConfig struct {
	// Name identifies the source in queries and reloads.
	Name string `mapstructure:"name" json:"name" yaml:"name"`
	// Path is a filesystem path or an s3://bucket/object URL.
	Path string `mapstructure:"path" json:"path" yaml:"path"`
	// Watch enables reload on file change.
	Watch bool `mapstructure:"watch" json:"watch" yaml:"watch"`
	// Primary marks the source consulted first by unscoped queries.
	Primary bool `mapstructure:"primary" json:"primary" yaml:"primary"`
}

// Config holds configuration for the cache coordinator.
type Config struct {
	// Sources are loaded in declaration order; that order is also the query fallback order.
	Sources []SourceConfig `mapstructure:"sources"`
	// MaxDepth is the default key flattening depth.
	MaxDepth int `mapstructure:"max_depth" default:"2"`
	// NamespacePrefixes are tried, added or stripped, when a key does not match as given.
	NamespacePrefixes []string `mapstructure:"namespace_prefixes" default:""`
	// MaxFileSize is the per-source size ceiling in bytes.
	MaxFileSize int64 `mapstructure:"max_file_size" default:"52428800"`
}
