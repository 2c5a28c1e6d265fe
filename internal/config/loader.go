package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = "junify"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for junify settings.
const envPrefix = "JUNIFY"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise junify.yaml is searched in CWD and $HOME. A .env file in CWD
// is loaded into the environment first without overriding set variables.
// Missing files are not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("scan.include", DefaultInclude)
	v.SetDefault("scan.exclude", []string{})
	v.SetDefault("scan.max_depth", 0)
	v.SetDefault("scan.max_files", 0)
	v.SetDefault("scan.follow_symlinks", false)

	v.SetDefault("migrate.workers", DefaultWorkers)
	v.SetDefault("migrate.disabled_rules", []string{})
	v.SetDefault("migrate.priorities", map[string]int{})
	v.SetDefault("migrate.backup", false)
	v.SetDefault("migrate.fsync", false)
	v.SetDefault("migrate.transaction_dir", DefaultTransactionDir)

	v.SetDefault("database.dsn", DefaultDSN)
	v.SetDefault("database.debug", false)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}
