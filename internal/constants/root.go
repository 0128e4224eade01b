package constants

const (
	AppName            = "cadence"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/cadence"
	DefaultDBPath      = "~/.config/cadence/cadence.db"
	ConfigFileName     = "config.yaml"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Environment variables
	EnvDB          = "CADENCE_DB"
	EnvDBConn      = "CADENCE_DB_CONNECTION"
	EnvLogLevel    = "CADENCE_LOG_LEVEL"
	EnvConfigDir   = "CADENCE_CONFIG_DIR"
	EnvTestPGURL   = "CADENCE_TEST_POSTGRES_URL"
	DefaultLogName = "cadence.log"

	// Scoring defaults
	DefaultCompletionReward = 10
	DefaultNotDonePenalty   = -10
	DefaultPostponePenalty  = -5

	// LegacyPostponePenalty is assumed for stored postpone entries written
	// before penalties were recorded per entry.
	LegacyPostponePenalty = -5

	// MaxProgressRatio caps the progress ratio of an overdue instance.
	MaxProgressRatio = 1.5

	// DefaultSweepSpec runs the regeneration sweep shortly after midnight.
	DefaultSweepSpec = "5 0 * * *"

	// WatchLockfileName keeps one watcher per config directory.
	WatchLockfileName = "watch.lock"
)
