package dashboard

import (
	"jsoncache/core/cache"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
	enabled bool
}

// NewFeature creates the dashboard feature. metrics serves /metrics and may be nil.
func NewFeature(coord *cache.Coordinator, logger *zap.Logger, enabled bool, metrics fiber.Handler) *Feature {
	svc := NewService(coord, logger)
	h := NewHandler(svc, metrics)
	return &Feature{service: svc, handler: h, enabled: enabled}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "dashboard"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Hub returns the WebSocket hub so reload events from elsewhere reach the dashboard.
func (f *Feature) Hub() *Hub {
	return f.service.Hub()
}
