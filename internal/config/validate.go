package config

import "fmt"

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.DataDir == "" {
		return fmt.Errorf("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return fmt.Errorf("paths.log_dir must be set")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
