package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"jsoncache/core/cache"
	"jsoncache/core/logger"
	"jsoncache/core/server"
	"jsoncache/core/storage"
	"jsoncache/core/utils"
	"jsoncache/core/watcher"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName names the XDG configuration directory.
	AppName = "jsoncache"
	// FileName is the configuration file looked up in the working directory.
	FileName = "jsoncache.yaml"
	// SourcesEnv declares sources without a file: name=path,name2=path2.
	SourcesEnv = "CACHE_SOURCES"
	// WatchEnv turns watching on for every source declared through SourcesEnv.
	WatchEnv = "CACHE_WATCH"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP dashboard.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Cache holds the sources and lookup settings.
	Cache cache.Config `mapstructure:"cache"`
	// Watch holds configuration for reloading sources on change.
	Watch watcher.Config `mapstructure:"watch"`
	// Storage holds the object storage connection for s3:// sources.
	Storage storage.Config `mapstructure:"storage"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-"`
}

// LoadConfig loads configuration from the .env file in path, the environment and a
// YAML file. file names the YAML file explicitly; when empty FindConfigFile is used
// and a missing file is not an error. Environment variables win over the file.
func LoadConfig(path, file string) (*Config, error) {
	envPath := filepath.Join(path, ".env")
	if path == "." || path == "" {
		envPath = ".env"
	}
	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file == "" {
		file, _ = FindConfigFile(path)
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	// The shorthand is parsed here; viper would otherwise try to decode the raw
	// string into the source list.
	if value := strings.TrimSpace(os.Getenv(SourcesEnv)); value != "" {
		sources, err := ParseSources(value, utils.ToBool(os.Getenv(WatchEnv)))
		if err != nil {
			return nil, err
		}
		v.Set("cache.sources", sourcesToMaps(sources))
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.File = file
	config.Cache.NamespacePrefixes = compact(config.Cache.NamespacePrefixes)

	return &config, nil
}

// FindConfigFile returns the first existing configuration file: FileName in dir,
// then config.yaml in the XDG configuration directory.
func FindConfigFile(dir string) (string, bool) {
	if dir == "" {
		dir = "."
	}
	candidates := []string{
		filepath.Join(dir, FileName),
		filepath.Join(xdg.ConfigHome, AppName, "config.yaml"),
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// ParseSources parses the SourcesEnv shorthand. Entries are name=path; a bare path
// is named after its file without extension. The first entry is primary.
func ParseSources(value string, watch bool) ([]cache.SourceConfig, error) {
	var sources []cache.SourceConfig
	for i, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, path, ok := strings.Cut(entry, "=")
		if !ok {
			path = name
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		name, path = strings.TrimSpace(name), strings.TrimSpace(path)
		if name == "" || path == "" {
			return nil, fmt.Errorf("%w: %s entry %d (%q) must be name=path", cache.ErrInvalidSource, SourcesEnv, i+1, entry)
		}
		sources = append(sources, cache.SourceConfig{
			Name:    name,
			Path:    path,
			Watch:   watch,
			Primary: len(sources) == 0,
		})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", cache.ErrNoSources, SourcesEnv)
	}
	return sources, nil
}

// Validate checks the parts of the configuration that would otherwise only fail
// at startup.
func (c *Config) Validate() error {
	var errs []error
	if err := cache.ValidateConfig(c.Cache); err != nil {
		errs = append(errs, err)
	}
	if len(c.ObjectBuckets()) > 0 && !c.Storage.Enabled() {
		errs = append(errs, errors.New("s3:// sources require storage.endpoint"))
	}
	if c.Cache.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("cache.max_depth must not be negative, got %d", c.Cache.MaxDepth))
	}
	return errors.Join(errs...)
}

// ObjectBuckets returns the distinct buckets referenced by s3:// sources.
func (c *Config) ObjectBuckets() []string {
	var buckets []string
	for _, src := range c.Cache.Sources {
		if !cache.IsObjectPath(src.Path) {
			continue
		}
		bucket, _, err := cache.ParseObjectURL(src.Path)
		if err == nil && !slices.Contains(buckets, bucket) {
			buckets = append(buckets, bucket)
		}
	}
	return buckets
}

func sourcesToMaps(sources []cache.SourceConfig) []map[string]any {
	out := make([]map[string]any, 0, len(sources))
	for _, src := range sources {
		out = append(out, map[string]any{
			"name":    src.Name,
			"path":    src.Path,
			"watch":   src.Watch,
			"primary": src.Primary,
		})
	}
	return out
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" || tag == "-" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Lists of structs come only from the config file.
		if field.Type.Kind() == reflect.Slice && field.Type.Elem().Kind() == reflect.Struct {
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
