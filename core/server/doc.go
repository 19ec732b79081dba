// Package server builds and runs the Fiber application behind the dashboard.
//
// New wires the middleware every request goes through (RayID, request logging) and
// the optional Swagger UI. Features then register their routes on the returned app
// through the loader package, and Run serves it until the context is cancelled.
//
// # Configuration
//
// The Config struct defines the listen host and port and toggles the dashboard and
// Swagger UI. It is embedded in core/config under the "server" key.
package server
