package watcher

import "time"

// Config holds configuration for reloading sources when their files change.
type Config struct {
	// Enabled turns watching on for sources marked watch: true.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Debounce is how long a source must stay quiet before it is reloaded.
	Debounce time.Duration `mapstructure:"debounce" default:"300ms"`
	// RetryAttempts is the number of reload attempts per change, including the first.
	RetryAttempts uint `mapstructure:"retry_attempts" default:"3"`
	// RetryDelay is the pause between failed attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay" default:"1s"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Debounce:      300 * time.Millisecond,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Debounce <= 0 {
		c.Debounce = def.Debounce
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = def.RetryAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
	return c
}
