package dashboard

import (
	"errors"

	"jsoncache/core/cache"
	"jsoncache/core/logger"
	"jsoncache/core/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP and WebSocket requests for the dashboard.
type Handler struct {
	service *Service
	metrics fiber.Handler
}

// NewHandler creates a new HTTP handler. metrics may be nil.
func NewHandler(service *Service, metrics fiber.Handler) *Handler {
	return &Handler{service: service, metrics: metrics}
}

// RegisterRoutes registers the dashboard routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/", h.HandleIndex)

	api := app.Group("/api")
	api.Get("/health", h.HandleHealth)
	api.Get("/sources", h.HandleSources)
	api.Get("/stats", h.HandleStats)
	api.Get("/stats/:source", h.HandleSourceStats)
	api.Get("/query", h.HandleQuery)
	api.Get("/keys", h.HandleKeys)
	api.Post("/reload", h.HandleReloadAll)
	api.Post("/reload/:source", h.HandleReload)

	app.Use("/ws", h.RequireUpgrade)
	app.Get("/ws", websocket.New(h.HandleStream))

	if h.metrics != nil {
		app.Get("/metrics", h.metrics)
	}
}

// errorStatus maps cache errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, cache.ErrCacheNotLoaded):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, cache.ErrKeyRequired):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// HandleIndex serves the dashboard page.
func (h *Handler) HandleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(indexHTML)
}

// HandleHealth reports whether the cache is loaded.
// @Summary Health
// @Description Reports whether the cache is loaded and how many sources hold a document.
// @Tags cache
// @Produce json
// @Success 200 {object} map[string]interface{} "Loaded"
// @Failure 503 {object} map[string]interface{} "Not loaded"
// @Router /api/health [get]
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	stats := h.service.Stats()
	body := fiber.Map{
		"status":        "ok",
		"totalSources":  stats.TotalSources,
		"loadedSources": stats.LoadedSources,
	}
	if !h.service.Ready() {
		body["status"] = "loading"
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	return c.JSON(body)
}

// HandleSources lists the configured sources.
// @Summary List Sources
// @Description Lists every configured source in declaration order.
// @Tags cache
// @Produce json
// @Success 200 {array} cache.SourceConfig
// @Router /api/sources [get]
func (h *Handler) HandleSources(c *fiber.Ctx) error {
	return c.JSON(h.service.Sources())
}

// HandleStats returns the global statistics.
// @Summary Cache Statistics
// @Description Aggregated statistics of every source. cacheHitRate is an approximation; use totalFound and totalMissed for the real ratio.
// @Tags cache
// @Produce json
// @Success 200 {object} cache.GlobalStats
// @Router /api/stats [get]
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	return c.JSON(h.service.Stats())
}

// HandleSourceStats returns the statistics of one source.
// @Summary Source Statistics
// @Tags cache
// @Produce json
// @Param source path string true "Source name"
// @Success 200 {object} cache.SourceStats
// @Failure 404 {object} map[string]string "Unknown source"
// @Router /api/stats/{source} [get]
func (h *Handler) HandleSourceStats(c *fiber.Ctx) error {
	st, ok := h.service.SourceStats(c.Params("source"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown source"})
	}
	return c.JSON(st)
}

// HandleQuery looks a key up.
// @Summary Query Key
// @Description Resolves a key case-insensitively, through namespace prefixes and dotted paths. Without a source the primary is searched first, then the others in order.
// @Tags cache
// @Produce json
// @Param key query string true "Key"
// @Param source query string false "Source name"
// @Success 200 {object} cache.QueryResult
// @Failure 400 {object} map[string]string "Missing key"
// @Failure 503 {object} map[string]string "Cache not loaded"
// @Router /api/query [get]
func (h *Handler) HandleQuery(c *fiber.Ctx) error {
	res, err := h.service.Query(c.Query("key"), c.Query("source"))
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}

// HandleKeys lists keys.
// @Summary List Keys
// @Description Sorted, deduplicated flat keys of one source or of all sources.
// @Tags cache
// @Produce json
// @Param source query string false "Source name"
// @Param prefix query string false "Key prefix"
// @Param maxDepth query int false "Flattening depth"
// @Success 200 {object} map[string]interface{} "Keys"
// @Failure 503 {object} map[string]string "Cache not loaded"
// @Router /api/keys [get]
func (h *Handler) HandleKeys(c *fiber.Ctx) error {
	keys, err := h.service.Keys(c.Query("source"), c.Query("prefix"), utils.ToInt(c.Query("maxDepth"), 0))
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"count": len(keys), "keys": keys})
}

// HandleReload reloads one source.
// @Summary Reload Source
// @Description Reloads one source. On failure the previous document stays cached.
// @Tags cache
// @Produce json
// @Param source path string true "Source name"
// @Success 200 {object} cache.ReloadResult
// @Failure 404 {object} cache.ReloadResult "Unknown source"
// @Failure 500 {object} cache.ReloadResult "Reload failed"
// @Router /api/reload/{source} [post]
func (h *Handler) HandleReload(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	name := c.Params("source")

	res, ok := h.service.Reload(c.Context(), name)
	switch {
	case !ok:
		return c.Status(fiber.StatusNotFound).JSON(res)
	case !res.Success:
		l.Warn("Manual reload failed", zap.String("source", name), zap.String("error", res.Error))
		return c.Status(fiber.StatusInternalServerError).JSON(res)
	}
	l.Info("Manual reload", zap.String("source", name), zap.Int("keys", res.Keys))
	return c.JSON(res)
}

// HandleReloadAll reloads every source.
// @Summary Reload All Sources
// @Tags cache
// @Produce json
// @Success 200 {array} cache.ReloadResult
// @Router /api/reload [post]
func (h *Handler) HandleReloadAll(c *fiber.Ctx) error {
	logger.WithRayID(h.service.logger, c).Info("Manual reload of all sources")
	return c.JSON(h.service.ReloadAll(c.Context()))
}

// RequireUpgrade rejects plain HTTP requests to the stream endpoint.
func (h *Handler) RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleStream pushes statistics and reload events to one dashboard client. A client
// may send {"type":"stats"} to request fresh statistics.
func (h *Handler) HandleStream(conn *websocket.Conn) {
	hub := h.service.Hub()
	if err := hub.Register(conn); err != nil {
		return
	}
	defer hub.Unregister(conn)

	for {
		var msg Event
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == EventStats {
			if err := hub.SendStats(conn); err != nil {
				return
			}
		}
	}
}
