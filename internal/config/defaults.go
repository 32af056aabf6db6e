package config

const (
	defaultDataDir          = "~/.local/share/stemline"
	defaultLogDir           = "~/.local/share/stemline/logs"
	defaultGatewayBaseURL   = "http://127.0.0.1:8000/api/v1"
	defaultGatewayTransport = "http"
	defaultRequestTimeout   = 30
	defaultPollInterval     = 1
	defaultPollFailureLimit = 1
	defaultSnapshotDirName  = "snapshots"
	defaultSnapshotFileName = "snapshots.json"
	defaultPresetFileName   = "presets.json"
	defaultPresetPageSize   = 3
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Gateway: Gateway{
			BaseURL:        defaultGatewayBaseURL,
			Transport:      defaultGatewayTransport,
			RequestTimeout: defaultRequestTimeout,
		},
		Export: Export{
			PollInterval:     defaultPollInterval,
			PollFailureLimit: defaultPollFailureLimit,
		},
		Snapshots: Snapshots{
			DirName:  defaultSnapshotDirName,
			FileName: defaultSnapshotFileName,
			Watch:    true,
		},
		Presets: Presets{
			FileName:       defaultPresetFileName,
			PageSize:       defaultPresetPageSize,
			MemoryFallback: true,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
