package config

const (
	defaultDataDir        = "~/.local/share/squishylog"
	defaultExportDir      = "~/Downloads"
	defaultBackend        = BackendFile
	defaultSlot           = "squishy_log_data"
	defaultQuotaBytes     = 5 << 20
	defaultMaxDimension   = 1200
	defaultQuality        = 80
	defaultConcurrency    = 4
	defaultBackupInterval = "manual"
	defaultRetention      = 7
	defaultBind           = "127.0.0.1:7490"
	defaultLogFormat      = "text"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Storage: Storage{
			Backend:    defaultBackend,
			DataDir:    defaultDataDir,
			Slot:       defaultSlot,
			QuotaBytes: defaultQuotaBytes,
		},
		Images: Images{
			MaxDimension: defaultMaxDimension,
			Quality:      defaultQuality,
			Concurrency:  defaultConcurrency,
		},
		Export: Export{
			Dir:            defaultExportDir,
			BackupInterval: defaultBackupInterval,
			RetentionCount: defaultRetention,
		},
		Server: Server{
			Bind: defaultBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
