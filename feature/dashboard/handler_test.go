package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jsoncache/core/cache"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func loadedCoordinator(t *testing.T) (*cache.Coordinator, string) {
	t.Helper()
	dir := t.TempDir()
	main := filepath.Join(dir, "main.json")
	require.NoError(t, os.WriteFile(main, []byte(`{"b17":{"Q1.select":{"val":42}},"name":"main"}`), 0o644))
	extra := filepath.Join(dir, "extra.json")
	require.NoError(t, os.WriteFile(extra, []byte(`{"only":"extra"}`), 0o644))

	coord := cache.NewCoordinator()
	_, err := coord.LoadAll(context.Background(), cache.Config{
		Sources: []cache.SourceConfig{
			{Name: "main", Path: main, Primary: true},
			{Name: "extra", Path: extra},
		},
		NamespacePrefixes: []string{"b17"},
	})
	require.NoError(t, err)
	return coord, main
}

func setupTestApp(t *testing.T, coord *cache.Coordinator) *fiber.App {
	t.Helper()
	app := fiber.New()
	metrics := func(c *fiber.Ctx) error { return c.SendString("metrics") }
	feature := NewFeature(coord, zap.NewNop(), true, metrics)
	require.NoError(t, feature.Load(app))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHandleHealth(t *testing.T) {
	coord, _ := loadedCoordinator(t)
	var body map[string]any
	assert.Equal(t, 200, doJSON(t, setupTestApp(t, coord), "GET", "/api/health", &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["loadedSources"])

	assert.Equal(t, 503, doJSON(t, setupTestApp(t, cache.NewCoordinator()), "GET", "/api/health", &body))
	assert.Equal(t, "loading", body["status"])
}

func TestHandleQuery(t *testing.T) {
	coord, _ := loadedCoordinator(t)
	app := setupTestApp(t, coord)

	var res cache.QueryResult
	assert.Equal(t, 200, doJSON(t, app, "GET", "/api/query?key=q1.SELECT", &res))
	assert.True(t, res.Found)
	assert.Equal(t, "main", res.Source)
	assert.Equal(t, map[string]any{"val": float64(42)}, res.Value)

	assert.Equal(t, 200, doJSON(t, app, "GET", "/api/query?key=only", &res))
	assert.Equal(t, "extra", res.Source)

	assert.Equal(t, 200, doJSON(t, app, "GET", "/api/query?key=name&source=nope", &res))
	assert.False(t, res.Found)
	assert.Equal(t, cache.UnknownSource, res.Source)

	var errBody map[string]string
	assert.Equal(t, 400, doJSON(t, app, "GET", "/api/query", &errBody))
	assert.Equal(t, cache.ErrKeyRequired.Error(), errBody["error"])
}

func TestHandleQuery_NotLoaded(t *testing.T) {
	var errBody map[string]string
	status := doJSON(t, setupTestApp(t, cache.NewCoordinator()), "GET", "/api/query?key=x", &errBody)
	assert.Equal(t, 503, status)
	assert.Equal(t, cache.ErrCacheNotLoaded.Error(), errBody["error"])
}

func TestHandleKeys(t *testing.T) {
	coord, _ := loadedCoordinator(t)
	app := setupTestApp(t, coord)

	var body struct {
		Count int      `json:"count"`
		Keys  []string `json:"keys"`
	}
	assert.Equal(t, 200, doJSON(t, app, "GET", "/api/keys", &body))
	assert.Equal(t, []string{"b17", "b17.Q1.select", "name", "only"}, body.Keys)
	assert.Equal(t, 4, body.Count)

	assert.Equal(t, 200, doJSON(t, app, "GET", "/api/keys?source=main&prefix=b17&maxDepth=1", &body))
	assert.Equal(t, []string{"b17"}, body.Keys)
}

func TestHandleStats(t *testing.T) {
	coord, _ := loadedCoordinator(t)
	app := setupTestApp(t, coord)
	doJSON(t, app, "GET", "/api/query?key=name", &cache.QueryResult{})

	var gs cache.GlobalStats
	assert.Equal(t, 200, doJSON(t, app, "GET", "/api/stats", &gs))
	assert.Equal(t, 2, gs.TotalSources)
	assert.Equal(t, "main", gs.PrimarySource)
	assert.Equal(t, int64(1), gs.TotalHits)

	var st cache.SourceStats
	assert.Equal(t, 200, doJSON(t, app, "GET", "/api/stats/extra", &st))
	assert.Equal(t, "extra", st.Name)
	assert.True(t, st.Loaded)

	assert.Equal(t, 404, doJSON(t, app, "GET", "/api/stats/nope", nil))
}

func TestHandleSources(t *testing.T) {
	coord, _ := loadedCoordinator(t)
	var sources []cache.SourceConfig
	assert.Equal(t, 200, doJSON(t, setupTestApp(t, coord), "GET", "/api/sources", &sources))
	require.Len(t, sources, 2)
	assert.Equal(t, "main", sources[0].Name)
	assert.True(t, sources[0].Primary)
}

func TestHandleReload(t *testing.T) {
	coord, mainPath := loadedCoordinator(t)
	app := setupTestApp(t, coord)

	require.NoError(t, os.WriteFile(mainPath, []byte(`{"name":"reloaded"}`), 0o644))
	var res cache.ReloadResult
	assert.Equal(t, 200, doJSON(t, app, "POST", "/api/reload/main", &res))
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Keys)
	require.NotNil(t, res.Changes)
	assert.True(t, res.Changes.HasChanges())

	var q cache.QueryResult
	doJSON(t, app, "GET", "/api/query?key=name", &q)
	assert.Equal(t, "reloaded", q.Value)

	require.NoError(t, os.WriteFile(mainPath, []byte(`{broken`), 0o644))
	assert.Equal(t, 500, doJSON(t, app, "POST", "/api/reload/main", &res))
	assert.False(t, res.Success)
	doJSON(t, app, "GET", "/api/query?key=name", &q)
	assert.Equal(t, "reloaded", q.Value)

	assert.Equal(t, 404, doJSON(t, app, "POST", "/api/reload/nope", &res))
}

func TestHandleReloadAll(t *testing.T) {
	coord, _ := loadedCoordinator(t)
	var results []cache.ReloadResult
	assert.Equal(t, 200, doJSON(t, setupTestApp(t, coord), "POST", "/api/reload", &results))
	require.Len(t, results, 2)
	assert.Equal(t, "main", results[0].Source)
	assert.Equal(t, "extra", results[1].Source)
}

func TestHandleIndexAndMetrics(t *testing.T) {
	coord, _ := loadedCoordinator(t)
	app := setupTestApp(t, coord)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "metrics", string(body))
}

func TestStream_RequiresUpgrade(t *testing.T) {
	coord, _ := loadedCoordinator(t)
	resp, err := setupTestApp(t, coord).Test(httptest.NewRequest("GET", "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestFeature_Disabled(t *testing.T) {
	f := NewFeature(cache.NewCoordinator(), nil, false, nil)
	assert.Equal(t, "dashboard", f.Name())
	assert.False(t, f.IsEnabled())
	assert.NotNil(t, f.Hub())
}

func TestStream_PushesEvents(t *testing.T) {
	coord, _ := loadedCoordinator(t)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	feature := NewFeature(coord, zap.NewNop(), true, nil)
	require.NoError(t, feature.Load(app))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var ev struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventStats, ev.Type)

	require.Eventually(t, func() bool { return feature.Hub().Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	feature.Hub().BroadcastReload(cache.ReloadResult{Source: "main", Success: true})
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventReload, ev.Type)
	assert.Contains(t, string(ev.Data), `"source":"main"`)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": EventStats}))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventStats, ev.Type)
}
