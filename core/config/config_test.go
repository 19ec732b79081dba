package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"jsoncache/core/cache"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every lookup location at empty temp directories.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	t.Setenv(SourcesEnv, "")
	t.Setenv(WatchEnv, "")
	return t.TempDir()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := LoadConfig(dir, "")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.True(t, cfg.Server.Dashboard)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 2, cfg.Cache.MaxDepth)
	assert.Equal(t, cache.DefaultMaxFileSize, cfg.Cache.MaxFileSize)
	assert.Empty(t, cfg.Cache.NamespacePrefixes)
	assert.Empty(t, cfg.Cache.Sources)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, uint(3), cfg.Watch.RetryAttempts)
	assert.Equal(t, time.Second, cfg.Watch.RetryDelay)
	assert.False(t, cfg.Storage.Enabled())
	assert.Empty(t, cfg.File)
}

func TestLoadConfig_File(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, FileName), `
server:
  port: "9090"
cache:
  max_depth: 3
  namespace_prefixes: [b17, q]
  sources:
    - name: second
      path: ./b.json
    - name: main
      path: ./a.json
      primary: true
      watch: true
watch:
  debounce: 1s
`)

	cfg, err := LoadConfig(dir, "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, FileName), cfg.File)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Cache.MaxDepth)
	assert.Equal(t, []string{"b17", "q"}, cfg.Cache.NamespacePrefixes)
	assert.Equal(t, []cache.SourceConfig{
		{Name: "second", Path: "./b.json"},
		{Name: "main", Path: "./a.json", Primary: true, Watch: true},
	}, cfg.Cache.Sources)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, uint(3), cfg.Watch.RetryAttempts)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, FileName), `
server:
  port: "9090"
cache:
  sources:
    - name: fromfile
      path: ./file.json
`)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("CACHE_NAMESPACE_PREFIXES", "b17,q")
	t.Setenv(SourcesEnv, "env=./env.json, other=./other.json")
	t.Setenv(WatchEnv, "true")

	cfg, err := LoadConfig(dir, "")
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, []string{"b17", "q"}, cfg.Cache.NamespacePrefixes)
	assert.Equal(t, []cache.SourceConfig{
		{Name: "env", Path: "./env.json", Primary: true, Watch: true},
		{Name: "other", Path: "./other.json", Watch: true},
	}, cfg.Cache.Sources)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "LOG_LEVEL=debug\n")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := LoadConfig(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "log:\n  format: json\n")

	cfg, err := LoadConfig(dir, path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, path, cfg.File)

	_, err = LoadConfig(dir, filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_XDGFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(xdg.ConfigHome, AppName, "config.yaml"), "server:\n  port: \"6060\"\n")

	cfg, err := LoadConfig(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "6060", cfg.Server.Port)
}

func TestFindConfigFile(t *testing.T) {
	dir := isolate(t)

	_, ok := FindConfigFile(dir)
	assert.False(t, ok)

	xdgFile := filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
	writeFile(t, xdgFile, "")
	path, ok := FindConfigFile(dir)
	assert.True(t, ok)
	assert.Equal(t, xdgFile, path)

	local := filepath.Join(dir, FileName)
	writeFile(t, local, "")
	path, ok = FindConfigFile(dir)
	assert.True(t, ok)
	assert.Equal(t, local, path)
}

func TestParseSources(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		watch   bool
		want    []cache.SourceConfig
		wantErr error
	}{
		{
			name:  "Pairs",
			value: "a=./a.json,b=s3://bucket/b.json",
			want: []cache.SourceConfig{
				{Name: "a", Path: "./a.json", Primary: true},
				{Name: "b", Path: "s3://bucket/b.json"},
			},
		},
		{
			name:  "BarePathAndWatch",
			value: "/data/queries.json",
			watch: true,
			want:  []cache.SourceConfig{{Name: "queries", Path: "/data/queries.json", Primary: true, Watch: true}},
		},
		{
			name:  "SkipsEmptyEntries",
			value: "a=./a.json,,",
			want: []cache.SourceConfig{{Name: "a", Path: "./a.json", Primary: true}},
		},
		{name: "MissingPath", value: "a=", wantErr: cache.ErrInvalidSource},
		{name: "Empty", value: " , ", wantErr: cache.ErrNoSources},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSources(tt.value, tt.watch)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.Validate(), cache.ErrNoSources)

	cfg.Cache.Sources = []cache.SourceConfig{{Name: "a", Path: "s3://bucket/a.json"}}
	assert.ErrorContains(t, cfg.Validate(), "storage.endpoint")

	cfg.Storage.Endpoint = "localhost:9000"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ObjectBuckets(t *testing.T) {
	cfg := &Config{}
	cfg.Cache.Sources = []cache.SourceConfig{
		{Name: "a", Path: "s3://one/a.json"},
		{Name: "b", Path: "./b.json"},
		{Name: "c", Path: "s3://two/c.json"},
		{Name: "d", Path: "s3://one/d.json"},
	}
	assert.Equal(t, []string{"one", "two"}, cfg.ObjectBuckets())
}

func TestBindValues_SkipsStructLists(t *testing.T) {
	isolate(t)
	cfg, err := LoadConfig(t.TempDir(), "")
	require.NoError(t, err)
	assert.Nil(t, cfg.Cache.Sources)
}
