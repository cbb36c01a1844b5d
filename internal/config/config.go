package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the wrapper configuration
type Config struct {
	// FLIPS executable and the clean ROM every patch is made against
	FlipsPath    string `mapstructure:"flips_path" yaml:"flips_path"`
	CleanROMPath string `mapstructure:"clean_rom_path" yaml:"clean_rom_path"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Timeout bounds a single FLIPS run. Zero waits indefinitely.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// flagKeys maps command-line flag names to config keys
var flagKeys = map[string]string{
	"flips":      "flips_path",
	"clean":      "clean_rom_path",
	"log-level":  "log_level",
	"log-format": "log_format",
	"timeout":    "timeout",
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		FlipsPath: "flips",
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Load reads configuration from defaults, the config file, the environment
// (including a .env file in the working directory) and finally flags.
// configFile may be empty to search the default locations.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("flips_path", def.FlipsPath)
	v.SetDefault("clean_rom_path", def.CleanROMPath)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("timeout", def.Timeout)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("flipswrap")
		v.SetConfigType("yaml")
		if dir := getConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FLIPSWRAP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings needed to run FLIPS
func (c *Config) Validate() error {
	if c.FlipsPath == "" {
		return errors.New("flips path is not set (use --flips or FLIPSWRAP_FLIPS_PATH)")
	}
	if c.CleanROMPath == "" {
		return errors.New("clean ROM path is not set (use --clean or FLIPSWRAP_CLEAN_ROM_PATH)")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// getConfigDir returns the per-user config directory, or "" if unknown
func getConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "flipswrap")
}
