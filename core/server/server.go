package server

import (
	"context"
	"errors"
	"time"

	"jsoncache/core/logger"
	"jsoncache/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// shutdownTimeout bounds how long Run waits for in-flight requests.
const shutdownTimeout = 5 * time.Second

// New creates the Fiber application with the shared middleware chain: RayID first so
// every later log line can be traced, then request logging.
func New(cfg Config, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "jsoncache",
		DisableStartupMessage: true,
	})

	app.Use(rayid.New())
	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(log, c)
		l.Debug("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	if cfg.Swagger {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}
	return app
}

// Run serves app until ctx is cancelled, then shuts it down gracefully.
func Run(ctx context.Context, app *fiber.App, cfg Config, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("addr", cfg.Addr()))
		errCh <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
