package config

const (
	defaultCachePath    = "~/.cache/whistledger/cache.db"
	defaultFetchTimeout = 30
	defaultLogLevel     = "info"
	defaultLogFormat    = "console"
	defaultOutputFormat = "table"
)

// Default returns a configuration with every optional value filled in.
func Default() Config {
	return Config{
		Source: Source{
			SheetID:      "local",
			FetchTimeout: defaultFetchTimeout,
		},
		Cache: Cache{
			Enabled: true,
			Path:    defaultCachePath,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Output: Output{
			Format: defaultOutputFormat,
		},
	}
}
