// Package config loads tool defaults from the environment, an optional .env
// file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "FITKIT"
	// ConfigFileEnv names a YAML, TOML or JSON config file to read.
	ConfigFileEnv = EnvPrefix + "_CONFIG"

	DefaultPattern = "%year-%month-%day %hour.%minute.%second %activity"
	DefaultFormat  = "csv"
)

type (
	Config struct {
		Batch
		Rename
		Export
	}

	Batch struct {
		Workers   int
		LocalTime bool // render times in the local zone
	}
	Rename struct {
		Pattern string
		MoveTo  string // directory pattern, empty renames in place
	}
	Export struct {
		Format string
		Out    string // "-", a directory or a path prefix
		Array  bool
	}
)

// Load reads the configuration. Keys are read from FITKIT_* variables, for
// example FITKIT_WORKERS, after loading .env files when present.
func Load(logger *log.Logger, envFiles ...string) (*Config, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if err := godotenv.Load(envFiles...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
		logger.Printf("no .env file, using process environment")
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("local_time", false)
	v.SetDefault("pattern", DefaultPattern)
	v.SetDefault("move", "")
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("out", "")
	v.SetDefault("array", false)

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		logger.Printf("using config file %s", path)
	}

	cfg := &Config{
		Batch: Batch{
			Workers:   v.GetInt("workers"),
			LocalTime: v.GetBool("local_time"),
		},
		Rename: Rename{
			Pattern: v.GetString("pattern"),
			MoveTo:  v.GetString("move"),
		},
		Export: Export{
			Format: v.GetString("format"),
			Out:    v.GetString("out"),
			Array:  v.GetBool("array"),
		},
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	return cfg, nil
}
