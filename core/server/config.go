package server

import "net"

// Config holds configuration for the HTTP server.
type Config struct {
	// Host is the interface the dashboard binds to.
	Host string `mapstructure:"host" default:"127.0.0.1"`
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// Dashboard enables the HTTP/WebSocket dashboard.
	Dashboard bool `mapstructure:"dashboard" default:"true"`
	// Swagger exposes the API documentation under /swagger.
	Swagger bool `mapstructure:"swagger" default:"true"`
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}
