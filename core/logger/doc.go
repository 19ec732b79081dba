// Package logger provides a structured logging facility based on Zap.
//
// It builds a logger from the log section of the configuration and integrates with
// the Fiber web framework through WithRayID, which attaches the request's RayID so
// every log line of one request can be correlated.
//
// All output is written to stderr. The MCP server speaks JSON-RPC over stdout and
// the CLI prints results there, so log lines must never share that stream.
//
// # Configuration
//
//   - Level: debug, info, warn, error
//   - Format: console (colored, human readable) or json
//
// # Usage
//
//	log, _ := logger.New(&cfg.Log)
//	log.Info("Sources loaded")
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
