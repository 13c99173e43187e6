package config

const (
	defaultStateDir       = "~/.local/share/arrmate/state"
	defaultLogDir         = "~/.local/share/arrmate/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultRequestTimeout = 30

	defaultStallThreshold = 3600
	defaultMaxAttempts    = 3
	defaultGracePeriod    = 86400
	defaultPassTimeout    = 300

	defaultCleanupMinRatio = 1.0

	defaultNotifyRequestTimeout = 10

	defaultDaemonInterval = 60
	minDaemonInterval     = 60
	maxDaemonInterval     = 3600
)

// defaultUnrecoverablePatterns lists error-message fragments that mark a
// failed download as not worth retrying with the same release.
var defaultUnrecoverablePatterns = []string{
	"Found potentially dangerous file",
	"unsupported codec",
	"Sample file detected",
	"password protected",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Radarr: Service{
			RequestTimeout: defaultRequestTimeout,
		},
		Sonarr: Service{
			RequestTimeout: defaultRequestTimeout,
		},
		QBittorrent: QBittorrent{
			RequestTimeout: defaultRequestTimeout,
		},
		Remediation: Remediation{
			StallThreshold:        defaultStallThreshold,
			MaxAttempts:           defaultMaxAttempts,
			GracePeriod:           defaultGracePeriod,
			PassTimeout:           defaultPassTimeout,
			BlocklistOnRemoval:    true,
			SearchRetrigger:       true,
			UnrecoverablePatterns: append([]string{}, defaultUnrecoverablePatterns...),
		},
		Cleanup: Cleanup{
			MinRatio:    defaultCleanupMinRatio,
			DeleteFiles: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Summary:        true,
			Escalations:    true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Daemon: Daemon{
			Interval: defaultDaemonInterval,
		},
	}
}
