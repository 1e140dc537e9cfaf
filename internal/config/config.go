package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/llehouerou/flux/internal/api"
)

const appName = "flux"

// Environment overrides, also read from ./.env.
const (
	EnvAPIBase = "FLUX_API_BASE"
	EnvDataDir = "FLUX_DATA_DIR"
)

type Config struct {
	APIBase        string `koanf:"api_base"`        // backend base URL, a trailing /list is accepted
	DataDir        string `koanf:"data_dir"`        // downloads and artwork, default XDG data dir
	LocalDownloads *bool  `koanf:"local_downloads"` // resolve downloaded tracks locally (default: true)

	Log          LogConfig          `koanf:"log"`
	Lyrics       LyricsConfig       `koanf:"lyrics"`
	Connectivity ConnectivityConfig `koanf:"connectivity"`
	Lastfm       LastfmConfig       `koanf:"lastfm"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `koanf:"level"`       // zerolog level name (default: "info")
	File       string `koanf:"file"`        // optional JSON log file, rotated
	MaxSizeMB  int    `koanf:"max_size_mb"` // rotate after this size (default: 10)
	MaxBackups int    `koanf:"max_backups"` // rotated files kept (default: 3)
}

// LyricsConfig holds lyrics cache configuration.
type LyricsConfig struct {
	MemoryEntries int    `koanf:"memory_entries"`  // in-memory LRU size (default: 512)
	RedisAddr     string `koanf:"redis_addr"`      // use Redis instead of SQLite for the persistent tier
	RedisTTLHours int    `koanf:"redis_ttl_hours"` // Redis entry TTL (default: 720)
}

// ConnectivityConfig holds the online probe configuration.
type ConnectivityConfig struct {
	ProbeInterval time.Duration `koanf:"probe_interval"` // 0 uses the default, negative disables probing
}

// LastfmConfig holds Last.fm scrobbling configuration.
type LastfmConfig struct {
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// .env does not override variables already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if v := os.Getenv(EnvAPIBase); v != "" {
		cfg.APIBase = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}

	cfg.APIBase = api.NormalizeBase(cfg.APIBase)
	cfg.DataDir = expandPath(cfg.DataDir)
	cfg.Log.File = expandPath(cfg.Log.File)

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/flux/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasAPIBase returns true if a backend is configured.
func (c *Config) HasAPIBase() bool {
	return c.APIBase != ""
}

// DownloadsEnabled reports whether downloaded tracks resolve locally.
func (c *Config) DownloadsEnabled() bool {
	return c.LocalDownloads == nil || *c.LocalDownloads
}

// DownloadsDir returns the directory holding the download index and files.
func (c *Config) DownloadsDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return filepath.Join(xdg.DataHome, appName)
}

// HasLastfmConfig returns true if Last.fm scrobbling is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// GetLogConfig returns the logging configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}
	return cfg
}

// GetLyricsConfig returns the lyrics configuration with defaults applied.
func (c *Config) GetLyricsConfig() LyricsConfig {
	cfg := c.Lyrics
	if cfg.MemoryEntries <= 0 {
		cfg.MemoryEntries = 512
	}
	if cfg.RedisTTLHours <= 0 {
		cfg.RedisTTLHours = 720
	}
	return cfg
}

// HasRedis returns true if the Redis lyrics store is configured.
func (c *Config) HasRedis() bool {
	return c.Lyrics.RedisAddr != ""
}

// RedisTTL returns the Redis entry lifetime.
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.GetLyricsConfig().RedisTTLHours) * time.Hour
}

// ProbeInterval returns the connectivity probe interval, 0 when disabled.
func (c *Config) ProbeInterval() time.Duration {
	switch d := c.Connectivity.ProbeInterval; {
	case d < 0:
		return 0
	case d == 0:
		return 30 * time.Second
	default:
		return d
	}
}
