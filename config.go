package uploadkit

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gobeaver/beaver-kit/config"

	"github.com/gobeaver/uploadkit/filevalidator"
)

// Config is the environment-driven configuration of the upload server and
// its pipeline. Variables carry the loader prefix, BEAVER_ by default:
// BEAVER_UPLOADKIT_MAX_FILE_SIZE.
type Config struct {
	// HTTP server
	Port                   int   `env:"UPLOADKIT_PORT,default:8080"`
	MaxBodySize            int64 `env:"UPLOADKIT_MAX_BODY_SIZE,default:104857600"` // 100MB
	ShutdownTimeoutSeconds int   `env:"UPLOADKIT_SHUTDOWN_TIMEOUT_SECONDS,default:15"`

	// Multipart ingestion
	MaxFileSize  int64  `env:"UPLOADKIT_MAX_FILE_SIZE,default:10485760"` // 10MB
	MaxFiles     int    `env:"UPLOADKIT_MAX_FILES,default:10"`
	MaxFieldSize int64  `env:"UPLOADKIT_MAX_FIELD_SIZE,default:1048576"`
	ArrayKeys    string `env:"UPLOADKIT_ARRAY_KEYS"` // comma-separated

	// Remote fetch
	RemoteMaxBytes      int64 `env:"UPLOADKIT_REMOTE_MAX_BYTES,default:10485760"`
	FetchTimeoutSeconds int   `env:"UPLOADKIT_FETCH_TIMEOUT_SECONDS,default:10"`
	FetchMaxRedirects   int   `env:"UPLOADKIT_FETCH_MAX_REDIRECTS,default:5"`
	FetchMaxConcurrent  int64 `env:"UPLOADKIT_FETCH_MAX_CONCURRENT,default:16"`

	// Validation policies
	PolicyFile    string `env:"UPLOADKIT_POLICY_FILE"`
	DefaultPolicy string `env:"UPLOADKIT_DEFAULT_POLICY,default:images"`

	// Logging
	LogLevel  string `env:"UPLOADKIT_LOG_LEVEL,default:info"`
	LogFormat string `env:"UPLOADKIT_LOG_FORMAT,default:text"` // text or json
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Builder loads Config with a custom environment prefix
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Load reads and validates the config using the builder's prefix
func (b *Builder) Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects ceilings and counts that would disable the guards.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, errors.New("max file size must be positive"))
	}
	if c.MaxFiles <= 0 {
		errs = append(errs, errors.New("max files must be positive"))
	}
	if c.MaxBodySize <= 0 {
		errs = append(errs, errors.New("max body size must be positive"))
	}
	if c.RemoteMaxBytes <= 0 {
		errs = append(errs, errors.New("remote max bytes must be positive"))
	}
	if c.FetchTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}
	if c.FetchMaxRedirects < 0 {
		errs = append(errs, errors.New("fetch max redirects must not be negative"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return lvl, nil
}

// ArrayKeyList splits ArrayKeys.
func (c *Config) ArrayKeyList() []string {
	var keys []string
	for _, k := range strings.Split(c.ArrayKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// IngestOptions derives pipeline options. validators run after the
// configured size ceiling.
func (c *Config) IngestOptions(logger *slog.Logger, validators ...filevalidator.Validator) IngestOptions {
	return IngestOptions{
		GlobalFileSizeLimit: c.MaxFileSize,
		MaxFiles:            c.MaxFiles,
		MaxFieldSize:        c.MaxFieldSize,
		Validators:          validators,
		ArrayKeys:           c.ArrayKeyList(),
		Logger:              logger,
	}
}

// FetcherOptions derives remote fetch options.
func (c *Config) FetcherOptions(logger *slog.Logger) FetcherOptions {
	redirects := c.FetchMaxRedirects
	if redirects == 0 {
		redirects = -1
	}
	return FetcherOptions{
		Timeout:         time.Duration(c.FetchTimeoutSeconds) * time.Second,
		MaxRedirects:    redirects,
		MaxConcurrent:   c.FetchMaxConcurrent,
		DefaultMaxBytes: c.RemoteMaxBytes,
		Logger:          logger,
	}
}
