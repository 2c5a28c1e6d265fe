// Package config loads junify settings from defaults, a junify.yaml file and
// JUNIFY_ environment variables, which a .env file may provide.
package config

import (
	"errors"
	"slices"
)

// Config is the top-level configuration. Field tags use mapstructure for
// viper unmarshalling.
type Config struct {
	Scan     ScanConfig     `mapstructure:"scan"`
	Migrate  MigrateConfig  `mapstructure:"migrate"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ScanConfig selects the files a migration visits.
type ScanConfig struct {
	Include        []string `mapstructure:"include"`
	Exclude        []string `mapstructure:"exclude"`
	MaxDepth       int      `mapstructure:"max_depth"`
	MaxFiles       int      `mapstructure:"max_files"`
	FollowSymlinks bool     `mapstructure:"follow_symlinks"`
}

// MigrateConfig tunes the migration run.
type MigrateConfig struct {
	Workers        int            `mapstructure:"workers"`
	DisabledRules  []string       `mapstructure:"disabled_rules"`
	Priorities     map[string]int `mapstructure:"priorities"`
	Backup         bool           `mapstructure:"backup"`
	Fsync          bool           `mapstructure:"fsync"`
	TransactionDir string         `mapstructure:"transaction_dir"`
}

// DatabaseConfig locates the staging journal.
type DatabaseConfig struct {
	DSN   string `mapstructure:"dsn"`
	Debug bool   `mapstructure:"debug"`
}

// LoggingConfig selects the log handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Defaults.
const (
	DefaultWorkers        = 8
	DefaultTransactionDir = ".junify/transactions"
	DefaultDSN            = ".junify/junify.db"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// DefaultInclude selects Java sources.
var DefaultInclude = []string{"**/*.java"}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the worker count is negative.
	ErrInvalidWorkers = errors.New("migrate.workers must be non-negative")
	// ErrInvalidMaxDepth indicates the scan depth is negative.
	ErrInvalidMaxDepth = errors.New("scan.max_depth must be non-negative")
	// ErrInvalidMaxFiles indicates the file limit is negative.
	ErrInvalidMaxFiles = errors.New("scan.max_files must be non-negative")
	// ErrEmptyDSN indicates no journal location is configured.
	ErrEmptyDSN = errors.New("database.dsn must not be empty")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("logging.level must be debug, info, warn or error")
	// ErrInvalidLogFormat indicates an unknown log format.
	ErrInvalidLogFormat = errors.New("logging.format must be text or json")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Scan.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.Scan.MaxFiles < 0 {
		return ErrInvalidMaxFiles
	}
	if c.Migrate.Workers < 0 {
		return ErrInvalidWorkers
	}
	if c.Database.DSN == "" {
		return ErrEmptyDSN
	}
	if !slices.Contains(logLevels, c.Logging.Level) {
		return ErrInvalidLogLevel
	}
	if !slices.Contains(logFormats, c.Logging.Format) {
		return ErrInvalidLogFormat
	}
	return nil
}
