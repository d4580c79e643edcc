package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/phiroict/yt-parallel/internal/infra/logger"
)

type Config struct {
	VideoList           string `mapstructure:"video_list" yaml:"video_list"`
	Tool                string `mapstructure:"tool" yaml:"tool"`
	WorkDir             string `mapstructure:"work_dir" yaml:"work_dir"`
	MaxWorkers          int    `mapstructure:"max_workers" yaml:"max_workers"`
	AbortOnSpawnFailure bool   `mapstructure:"abort_on_spawn_failure" yaml:"abort_on_spawn_failure"`

	Relocate RelocateConfig `mapstructure:"relocate" yaml:"relocate"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	History  HistoryConfig  `mapstructure:"history" yaml:"history"`
	Serve    ServeConfig    `mapstructure:"serve" yaml:"serve"`
}

type RelocateConfig struct {
	Target          string   `mapstructure:"target" yaml:"target"`
	Platform        string   `mapstructure:"platform" yaml:"platform"`
	PartialSuffixes []string `mapstructure:"partial_suffixes" yaml:"partial_suffixes"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

type HistoryConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// flagKeys maps command line flags onto config keys
var flagKeys = map[string]string{
	"location-video-list":    "video_list",
	"video-download-tool":    "tool",
	"work-dir":               "work_dir",
	"workers":                "max_workers",
	"abort-on-spawn-failure": "abort_on_spawn_failure",
	"target":                 "relocate.target",
	"debug-level":            "log.level",
	"log-file":               "log.path",
	"history-driver":         "history.driver",
	"history-dsn":            "history.dsn",
	"addr":                   "serve.addr",
}

// Load reads defaults, then the optional YAML file at path, then YTPARALLEL_* env vars,
// then any flags in flags that were set explicitly.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set Defaults
	v.SetDefault("video_list", "./videolist.txt")
	v.SetDefault("tool", "yt-dlp")
	v.SetDefault("work_dir", ".")
	v.SetDefault("max_workers", 0)
	v.SetDefault("abort_on_spawn_failure", false)
	v.SetDefault("relocate.target", "")
	v.SetDefault("relocate.platform", "")
	v.SetDefault("relocate.partial_suffixes", []string{".part"})
	v.SetDefault("log.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", true)
	v.SetDefault("history.driver", "")
	v.SetDefault("history.dsn", "")
	v.SetDefault("serve.addr", ":8080")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}

		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Support Environment Variables
	v.SetEnvPrefix("YTPARALLEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Tool) == "" {
		return errors.New("a download tool is required")
	}

	if c.VideoList == "" {
		return errors.New("a video list location is required")
	}

	if c.MaxWorkers < 0 {
		return fmt.Errorf("workers must be 0 (one per task) or positive, got %d", c.MaxWorkers)
	}

	if c.WorkDir == "" {
		c.WorkDir = "."
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	suffixes := c.Relocate.PartialSuffixes[:0]
	for _, s := range c.Relocate.PartialSuffixes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		suffixes = append(suffixes, s)
	}
	if len(suffixes) == 0 {
		suffixes = append(suffixes, ".part")
	}
	c.Relocate.PartialSuffixes = suffixes

	switch c.History.Driver {
	case "":
	case "sqlite":
		if c.History.DSN == "" {
			c.History.DSN = "yt-parallel.db"
		}
	case "postgres":
		if c.History.DSN == "" {
			return errors.New("history driver postgres requires a dsn")
		}
	default:
		return fmt.Errorf("unknown history driver %q", c.History.Driver)
	}

	return nil
}

// LogLevel is the parsed form of Log.Level; validate has already rejected bad values
func (c *Config) LogLevel() logger.Level {
	lvl, _ := logger.ParseLevel(c.Log.Level)
	return lvl
}
