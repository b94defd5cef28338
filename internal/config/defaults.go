package config

// Known store backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

const (
	defaultDataDir              = "~/.local/share/studioq"
	defaultLogDir               = "~/.local/share/studioq/logs"
	defaultAPIBind              = "127.0.0.1:7601"
	defaultStoreBackend         = BackendJSON
	defaultArchiveRetentionDays = 7
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Store: Store{
			Backend: defaultStoreBackend,
		},
		Archive: Archive{
			RetentionDays: defaultArchiveRetentionDays,
			SweepInterval: 0,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
