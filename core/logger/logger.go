package logger

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// rayIDKey matches the locals key set by the rayid middleware.
const rayIDKey = "ray_id"

// New creates a zap logger from cfg. The debug level selects the development preset
// (ISO8601 timestamps, caller info). Output always goes to stderr so stdout stays
// free for the MCP stdio transport and command output.
func New(cfg *Config) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if cfg.Level == "debug" {
		config = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		config.Level = zap.NewAtomicLevelAt(level)
	}

	switch cfg.Format {
	case "console":
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = true
	case "json", "":
		config.Encoding = "json"
	default:
		return nil, fmt.Errorf("unknown log format %q (want console or json)", cfg.Format)
	}

	enc := &config.EncoderConfig
	enc.LevelKey, enc.TimeKey, enc.MessageKey = "level", "time", "message"
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build()
}

// WithRayID returns l with the request's ray_id field, when the request has one.
func WithRayID(l *zap.Logger, c *fiber.Ctx) *zap.Logger {
	if rid, _ := c.Locals(rayIDKey).(string); rid != "" {
		return l.With(zap.String(rayIDKey, rid))
	}
	return l
}
