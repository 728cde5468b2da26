package config

const (
	defaultDataDir   = "~/.local/share/fabworks"
	defaultLogDir    = "~/.local/share/fabworks/logs"
	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
