// Package config loads and validates client session configuration.
package config

// Config holds the effective session configuration after defaults, file
// values, and environment overrides have been merged.
type Config struct {
	Session   SessionConfig
	HTTP      HTTPConfig
	TypeCache TypeCacheConfig
	Logging   LoggingConfig
}

// SessionConfig identifies the endpoint and the wire dialect to speak.
type SessionConfig struct {
	// ServiceURL is the browser binding service document URL.
	ServiceURL string

	// RepositoryID preselects a repository. Optional; operations take an
	// explicit repository id either way.
	RepositoryID string

	Username string
	Password string

	// Succinct asks servers for the compact property representation.
	Succinct bool

	// DateTimeFormat is "simple" (epoch milliseconds) or "extended"
	// (ISO-8601 strings).
	DateTimeFormat string

	// Version pins the target CMIS version ("1.0" or "1.1"). Empty means
	// no pin; 1.1 vocabulary is accepted and emitted.
	Version string
}

// HTTPConfig bounds the outbound transport.
type HTTPConfig struct {
	TimeoutMS          int
	ConnectTimeoutMS   int
	MaxResponseBytes   int64
	InsecureSkipVerify bool
}

// TypeCacheConfig selects and configures the type-definition cache driver.
// Settings is passed to the driver untouched; each driver decodes the keys
// it understands.
type TypeCacheConfig struct {
	Driver   string
	DataDir  string
	Settings map[string]any
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string
}
