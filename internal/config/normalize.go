package config

import "strings"

func (c *Config) normalize() error {
	dataDir, err := expandPath(c.Paths.DataDir)
	if err != nil {
		return err
	}
	c.Paths.DataDir = dataDir

	logDir, err := expandPath(c.Paths.LogDir)
	if err != nil {
		return err
	}
	c.Paths.LogDir = logDir

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
