package cache_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"jsoncache/core/cache"
	"jsoncache/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newLoadedSource(t *testing.T, content string, opts ...cache.SourceOption) (*cache.SourceCache, string) {
	t.Helper()
	path := writeJSON(t, t.TempDir(), "source.json", content)
	sc := cache.NewSourceCache(cache.SourceConfig{Name: "main", Path: path}, opts...)
	require.NoError(t, sc.Load(context.Background()))
	return sc, path
}

func TestSourceCache_Load(t *testing.T) {
	content := `{"a": {"b": 1}, "c": [1, 2]}`
	sc, path := newLoadedSource(t, content)

	assert.True(t, sc.IsLoaded())
	assert.False(t, sc.LoadedAt().IsZero())
	assert.Equal(t, []string{"a", "a.b", "c"}, sc.Keys(0))
	assert.Equal(t, []string{"a", "c"}, sc.Keys(1))

	st := sc.Stats()
	assert.Equal(t, "main", st.Name)
	assert.Equal(t, path, st.Path)
	assert.True(t, st.Loaded)
	assert.Equal(t, 3, st.Keys)
	assert.Equal(t, int64(len(content)), st.Size)
	assert.NotNil(t, st.LoadedAt)
}

func TestSourceCache_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		opts    []cache.SourceOption
		wantErr error
	}{
		{"FileNotFound", filepath.Join(dir, "missing.json"), nil, cache.ErrFileNotFound},
		{"FileTooLarge", writeJSON(t, dir, "large.json", `{"key": "a value longer than the limit"}`),
			[]cache.SourceOption{cache.WithSourceMaxFileSize(10)}, cache.ErrFileTooLarge},
		{"ParseError", writeJSON(t, dir, "broken.json", `{"a": `), nil, cache.ErrParse},
		{"ArrayRoot", writeJSON(t, dir, "array.json", `[{"a": 1}]`), nil, cache.ErrInvalidShape},
		{"ScalarRoot", writeJSON(t, dir, "scalar.json", `"text"`), nil, cache.ErrInvalidShape},
		{"Directory", dir, nil, cache.ErrLoad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := cache.NewSourceCache(cache.SourceConfig{Name: tt.name, Path: tt.path}, tt.opts...)
			err := sc.Load(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, sc.IsLoaded())
			assert.Empty(t, sc.Keys(0))
		})
	}
}

func TestSourceCache_FailedReloadKeepsDocument(t *testing.T) {
	sc, path := newLoadedSource(t, `{"k": "old"}`)
	loadedAt := sc.LoadedAt()

	require.NoError(t, os.WriteFile(path, []byte(`{"k": `), 0o644))
	assert.ErrorIs(t, sc.Load(context.Background()), cache.ErrParse)

	v, ok := sc.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "old", v)
	assert.Equal(t, loadedAt, sc.LoadedAt())

	require.NoError(t, os.Remove(path))
	assert.ErrorIs(t, sc.Load(context.Background()), cache.ErrFileNotFound)
	assert.True(t, sc.IsLoaded())
}

func TestSourceCache_ReloadReplacesDocument(t *testing.T) {
	sc, path := newLoadedSource(t, `{"k": "old", "gone": 1}`)

	require.NoError(t, os.WriteFile(path, []byte(`{"k": "new", "added": {"x": 1}}`), 0o644))
	require.NoError(t, sc.Load(context.Background()))

	v, ok := sc.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "new", v)
	assert.False(t, sc.Has("gone"))
	assert.Equal(t, []string{"k", "added", "added.x"}, sc.Keys(0))
	assert.Equal(t, 3, sc.Stats().Keys)
}

func TestSourceCache_EveryGetCountsAsHit(t *testing.T) {
	sc, _ := newLoadedSource(t, `{"k": 1}`)

	sc.Get("k")
	sc.Get("missing")
	sc.Get("")
	sc.Has("missing")

	st := sc.Stats()
	assert.Equal(t, int64(4), st.Hits)
	assert.Equal(t, int64(1), st.Found)
	assert.Equal(t, int64(3), st.Missed)

	// Hits survive a reload.
	require.NoError(t, sc.Load(context.Background()))
	assert.Equal(t, int64(4), sc.Stats().Hits)
}

func TestSourceCache_GetBeforeLoad(t *testing.T) {
	sc := cache.NewSourceCache(cache.SourceConfig{Name: "empty", Path: "unused.json"})

	v, ok := sc.Get("k")
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, int64(1), sc.Stats().Hits)
}

func TestSourceCache_Clear(t *testing.T) {
	sc, _ := newLoadedSource(t, `{"k": 1}`)
	sc.Get("k")

	sc.Clear()

	assert.False(t, sc.IsLoaded())
	assert.True(t, sc.LoadedAt().IsZero())
	assert.False(t, sc.Has("k"))
	assert.Empty(t, sc.Keys(0))

	st := sc.Stats()
	assert.Zero(t, st.Keys)
	assert.Zero(t, st.Size)
	assert.Nil(t, st.LoadedAt)
	assert.Equal(t, int64(2), st.Hits)

	require.NoError(t, sc.Load(context.Background()))
	assert.True(t, sc.Has("k"))
}

func TestSourceCache_EstimateMemoryUsage(t *testing.T) {
	sc, _ := newLoadedSource(t, `{
		"a": {"b": [1, 2, 3]},
		"c": "text"
	}`)

	expected, err := json.Marshal(sc.Document().Root())
	require.NoError(t, err)
	assert.Equal(t, int64(len(expected)), sc.EstimateMemoryUsage())

	sc.Clear()
	assert.Zero(t, sc.EstimateMemoryUsage())
}

func TestSourceCache_Clone(t *testing.T) {
	sc, _ := newLoadedSource(t, `{"a": {"b": 1}}`)

	clone := sc.Clone()
	clone["a"].(map[string]any)["b"] = "changed"
	clone["new"] = true

	v, ok := sc.Get("a.b")
	assert.True(t, ok)
	assert.Equal(t, float64(1), v)
	assert.False(t, sc.Has("new"))

	sc.Clear()
	assert.Equal(t, map[string]any{}, sc.Clone())
}

func TestSourceCache_NamespacePrefixes(t *testing.T) {
	sc, _ := newLoadedSource(t, `{"b17": {"Q1.select": {"id": "Q1.select"}}}`,
		cache.WithSourceResolver(cache.NewKeyResolver([]string{"b17"})))

	v, ok := sc.Get("q1.SELECT")
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"id": "Q1.select"}, v)
}

func TestSourceCache_ObjectStorage(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "sources", "queries/b17.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte(`{"b17": {"K": 1}}`))), nil)
	client.On("GetObject", mock.Anything, "sources", "missing.json", mock.Anything).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."})

	fetcher := cache.RoutingFetcher{Objects: cache.ObjectFetcher{Client: client}}

	sc := cache.NewSourceCache(
		cache.SourceConfig{Name: "remote", Path: "s3://sources/queries/b17.json"},
		cache.WithSourceFetcher(fetcher),
	)
	require.NoError(t, sc.Load(context.Background()))
	assert.True(t, sc.Has("b17.K"))

	missing := cache.NewSourceCache(
		cache.SourceConfig{Name: "missing", Path: "s3://sources/missing.json"},
		cache.WithSourceFetcher(fetcher),
	)
	assert.ErrorIs(t, missing.Load(context.Background()), cache.ErrFileNotFound)

	client.AssertExpectations(t)
}

func TestSourceCache_ObjectStorageNotConfigured(t *testing.T) {
	sc := cache.NewSourceCache(
		cache.SourceConfig{Name: "remote", Path: "s3://sources/b17.json"},
		cache.WithSourceFetcher(cache.RoutingFetcher{}),
	)
	assert.ErrorIs(t, sc.Load(context.Background()), cache.ErrLoad)
}

func TestParseObjectURL(t *testing.T) {
	bucket, object, err := cache.ParseObjectURL("s3://bucket/dir/file.json")
	assert.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, "dir/file.json", object)

	for _, bad := range []string{"bucket/file.json", "s3://bucket", "s3:///file.json", "s3://bucket/"} {
		_, _, err := cache.ParseObjectURL(bad)
		assert.ErrorIs(t, err, cache.ErrLoad, bad)
	}
}
