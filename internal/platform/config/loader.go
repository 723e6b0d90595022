package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// LoaderOptions controls how configuration is loaded.
type LoaderOptions struct {
	// ConfigPath is the path to a TOML config file (optional). If
	// provided but the file is missing or invalid, loading fails.
	ConfigPath string

	// Environ supplies environment variables, os.Environ style. If nil,
	// os.Environ() is used. Overridable for tests.
	Environ []string

	// Logger is used for warning messages (e.g. undecoded keys). If nil,
	// slog.Default() is used.
	Logger *slog.Logger
}

// fileConfig mirrors Config but with pointer sections and fields so that
// presence can be detected and absent values fall through to defaults.
type fileConfig struct {
	Session   *sessionFileConfig   `toml:"session"`
	HTTP      *httpFileConfig      `toml:"http"`
	TypeCache *typeCacheFileConfig `toml:"type_cache"`
	Logging   *loggingFileConfig   `toml:"logging"`
}

type sessionFileConfig struct {
	ServiceURL     string `toml:"service_url"`
	RepositoryID   string `toml:"repository_id"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	Succinct       *bool  `toml:"succinct"`
	DateTimeFormat string `toml:"datetime_format"`
	Version        string `toml:"version"`
}

type httpFileConfig struct {
	TimeoutMS          int   `toml:"timeout_ms"`
	ConnectTimeoutMS   int   `toml:"connect_timeout_ms"`
	MaxResponseBytes   int64 `toml:"max_response_bytes"`
	InsecureSkipVerify *bool `toml:"insecure_skip_verify"`
}

type typeCacheFileConfig struct {
	Driver   string         `toml:"driver"`
	DataDir  string         `toml:"data_dir"`
	Settings map[string]any `toml:"settings"`
}

type loggingFileConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in session defaults: succinct on, simple
// date-time format, in-memory type cache, bounded transport.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			Succinct:       true,
			DateTimeFormat: "simple",
		},
		HTTP: HTTPConfig{
			TimeoutMS:        60000,
			ConnectTimeoutMS: 5000,
			MaxResponseBytes: 32 << 20,
		},
		TypeCache: TypeCacheConfig{
			Driver: "memory",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration with the following precedence:
//  1. Start from built-in defaults.
//  2. Overlay TOML config file values.
//  3. Overlay CMIS_* environment variables.
//  4. Validate.
//
// If ConfigPath is provided but the file is missing, unreadable, or invalid
// TOML, Load returns an error. Unknown TOML keys produce a warning but do
// not fail the load.
func Load(opts LoaderOptions) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := Default()

	if opts.ConfigPath != "" {
		data, err := os.ReadFile(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigPath, err)
		}
		var fc fileConfig
		md, err := toml.Decode(string(data), &fc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", opts.ConfigPath, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			logger.Warn("config file contains undecoded keys", "path", opts.ConfigPath, "keys", keys)
		}
		overlayFileConfig(cfg, &fc)
	}

	env := opts.Environ
	if env == nil {
		env = os.Environ()
	}
	if err := overlayEnv(cfg, environMap(env)); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlayFileConfig applies TOML file values onto cfg.
func overlayFileConfig(cfg *Config, fc *fileConfig) {
	if fc.Session != nil {
		if fc.Session.ServiceURL != "" {
			cfg.Session.ServiceURL = fc.Session.ServiceURL
		}
		if fc.Session.RepositoryID != "" {
			cfg.Session.RepositoryID = fc.Session.RepositoryID
		}
		if fc.Session.Username != "" {
			cfg.Session.Username = fc.Session.Username
		}
		if fc.Session.Password != "" {
			cfg.Session.Password = fc.Session.Password
		}
		if fc.Session.Succinct != nil {
			cfg.Session.Succinct = *fc.Session.Succinct
		}
		if fc.Session.DateTimeFormat != "" {
			cfg.Session.DateTimeFormat = fc.Session.DateTimeFormat
		}
		if fc.Session.Version != "" {
			cfg.Session.Version = fc.Session.Version
		}
	}

	if fc.HTTP != nil {
		if fc.HTTP.TimeoutMS != 0 {
			cfg.HTTP.TimeoutMS = fc.HTTP.TimeoutMS
		}
		if fc.HTTP.ConnectTimeoutMS != 0 {
			cfg.HTTP.ConnectTimeoutMS = fc.HTTP.ConnectTimeoutMS
		}
		if fc.HTTP.MaxResponseBytes != 0 {
			cfg.HTTP.MaxResponseBytes = fc.HTTP.MaxResponseBytes
		}
		if fc.HTTP.InsecureSkipVerify != nil {
			cfg.HTTP.InsecureSkipVerify = *fc.HTTP.InsecureSkipVerify
		}
	}

	if fc.TypeCache != nil {
		if fc.TypeCache.Driver != "" {
			cfg.TypeCache.Driver = fc.TypeCache.Driver
		}
		if fc.TypeCache.DataDir != "" {
			cfg.TypeCache.DataDir = fc.TypeCache.DataDir
		}
		if len(fc.TypeCache.Settings) > 0 {
			cfg.TypeCache.Settings = fc.TypeCache.Settings
		}
	}

	if fc.Logging != nil {
		if fc.Logging.Level != "" {
			cfg.Logging.Level = fc.Logging.Level
		}
	}
}

// environMap splits "KEY=VALUE" pairs into a lookup map. Later entries win,
// matching os.Environ semantics.
func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i > 0 {
			m[kv[:i]] = kv[i+1:]
		}
	}
	return m
}

// overlayEnv applies CMIS_* environment variables onto cfg. Variables that
// are unset or empty leave the current value in place.
func overlayEnv(cfg *Config, env map[string]string) error {
	setString := func(key string, dst *string) {
		if v := env[key]; v != "" {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) error {
		v := env[key]
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: must be a boolean", key, v)
		}
		*dst = b
		return nil
	}
	setInt := func(key string, dst *int) error {
		v := env[key]
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: must be an integer", key, v)
		}
		*dst = n
		return nil
	}

	setString("CMIS_SERVICE_URL", &cfg.Session.ServiceURL)
	setString("CMIS_REPOSITORY_ID", &cfg.Session.RepositoryID)
	setString("CMIS_USERNAME", &cfg.Session.Username)
	setString("CMIS_PASSWORD", &cfg.Session.Password)
	if err := setBool("CMIS_SUCCINCT", &cfg.Session.Succinct); err != nil {
		return err
	}
	setString("CMIS_DATETIME_FORMAT", &cfg.Session.DateTimeFormat)
	setString("CMIS_VERSION", &cfg.Session.Version)

	if err := setInt("CMIS_HTTP_TIMEOUT_MS", &cfg.HTTP.TimeoutMS); err != nil {
		return err
	}
	if err := setInt("CMIS_HTTP_CONNECT_TIMEOUT_MS", &cfg.HTTP.ConnectTimeoutMS); err != nil {
		return err
	}
	if v := env["CMIS_HTTP_MAX_RESPONSE_BYTES"]; v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid CMIS_HTTP_MAX_RESPONSE_BYTES %q: must be an integer", v)
		}
		cfg.HTTP.MaxResponseBytes = n
	}
	if err := setBool("CMIS_HTTP_INSECURE_SKIP_VERIFY", &cfg.HTTP.InsecureSkipVerify); err != nil {
		return err
	}

	setString("CMIS_TYPECACHE_DRIVER", &cfg.TypeCache.Driver)
	setString("CMIS_TYPECACHE_DATA_DIR", &cfg.TypeCache.DataDir)

	setString("CMIS_LOG_LEVEL", &cfg.Logging.Level)
	return nil
}

// validate checks enum-like fields and the service URL, failing fast on
// invalid values.
func validate(cfg *Config) error {
	if err := validateServiceURL(cfg.Session.ServiceURL); err != nil {
		return err
	}

	switch cfg.Session.DateTimeFormat {
	case "simple", "extended":
	default:
		return fmt.Errorf("invalid session.datetime_format %q: must be one of simple, extended", cfg.Session.DateTimeFormat)
	}

	switch cfg.Session.Version {
	case "", "1.0", "1.1":
	default:
		return fmt.Errorf("invalid session.version %q: must be one of 1.0, 1.1", cfg.Session.Version)
	}

	switch cfg.TypeCache.Driver {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("invalid type_cache.driver %q: must be one of memory, sqlite", cfg.TypeCache.Driver)
	}
	if cfg.TypeCache.Driver == "sqlite" && cfg.TypeCache.DataDir == "" {
		return fmt.Errorf("type_cache.data_dir is required when type_cache.driver is sqlite")
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q: must be one of debug, info, warn, error", cfg.Logging.Level)
	}

	return nil
}

// validateServiceURL checks the session.service_url value when set. Must be
// an absolute URL with http or https scheme and a host; whitespace is
// rejected, not trimmed.
func validateServiceURL(raw string) error {
	if raw == "" {
		return nil
	}
	if raw != strings.TrimSpace(raw) {
		return fmt.Errorf("invalid session.service_url %q: must not contain leading or trailing whitespace", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid session.service_url %q: %w", raw, err)
	}
	if !u.IsAbs() {
		return fmt.Errorf("invalid session.service_url %q: must be an absolute URL with http or https scheme", raw)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("invalid session.service_url %q: scheme must be http or https, got %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid session.service_url %q: must include a host", raw)
	}
	return nil
}
