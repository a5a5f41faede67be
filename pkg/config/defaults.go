package config

const (
	// DefaultTarget is the backend base URL used when no config file sets
	// server.target.
	DefaultTarget = "http://localhost:8000"

	defaultTimeoutSeconds = 30

	defaultPollIntervalSeconds = 3
	defaultPollMaxAttempts     = 60

	defaultHistoryPath = "history.db"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Target:         DefaultTarget,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Poll: PollConfig{
			IntervalSeconds: defaultPollIntervalSeconds,
			MaxAttempts:     defaultPollMaxAttempts,
		},
		History: HistoryConfig{
			SQLitePath: defaultHistoryPath,
		},
	}
}
