package config

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// NewLogger builds the root logger described by the configuration.
func (c *Config) NewLogger(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(c.LogLevel),
		JSONFormat: c.LogFormat == "json",
		Output:     os.Stderr,
	})
}
