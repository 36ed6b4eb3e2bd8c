// Package config loads chorechart settings from defaults, an optional YAML
// file and CHORECHART_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dukerupert/chorechart/internal/backup"
	"github.com/dukerupert/chorechart/internal/chore"
)

// DefaultPath is read when no explicit file is given. A missing default
// file is not an error.
const DefaultPath = "chorechart.yaml"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Backup    BackupConfig    `yaml:"backup"`
	Seed      bool            `yaml:"seed"`
	Metrics   bool            `yaml:"metrics"`

	// Warnings lists values that were rejected and replaced by defaults.
	// They are logged once a logger exists.
	Warnings []string `yaml:"-"`

	location *time.Location
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type SchedulerConfig struct {
	Timezone     string        `yaml:"timezone"`
	ResetAt      string        `yaml:"reset_at"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type BackupConfig struct {
	Dir        string          `yaml:"dir"`
	Passphrase string          `yaml:"passphrase"`
	Retention  int             `yaml:"retention"`
	S3         backup.S3Config `yaml:"s3"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Database: DatabaseConfig{Path: "chorechart.db"},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
		Scheduler: SchedulerConfig{
			Timezone:     "Local",
			ResetAt:      "00:00",
			PollInterval: time.Minute,
		},
		Backup: BackupConfig{
			Dir:       "backups",
			Retention: 7,
			S3:        backup.S3Config{Region: "us-east-1"},
		},
		Seed:    true,
		Metrics: true,
	}
}

// Load builds the configuration. An empty path tries DefaultPath.
func Load(path string) (*Config, error) {
	c := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read config: %w", err)
	}

	c.applyEnv()
	c.sanitize()

	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Scheduler.Timezone, err)
	}
	c.location = loc
	return c, nil
}

// Location is the zone that defines "today" for generation and streaks.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (c *Config) applyEnv() {
	envOverrideInt(&c.Server.Port, "CHORECHART_PORT")
	envOverride(&c.Database.Path, "CHORECHART_DB_PATH")
	envOverride(&c.Log.Level, "CHORECHART_LOG_LEVEL")
	envOverride(&c.Log.File, "CHORECHART_LOG_FILE")
	envOverride(&c.Scheduler.Timezone, "CHORECHART_TIMEZONE")
	envOverride(&c.Scheduler.ResetAt, "CHORECHART_RESET_AT")
	envOverride(&c.Backup.Passphrase, "CHORECHART_BACKUP_PASSPHRASE")
	envOverride(&c.Backup.S3.AccessKey, "CHORECHART_S3_ACCESS_KEY")
	envOverride(&c.Backup.S3.SecretKey, "CHORECHART_S3_SECRET_KEY")
	envOverrideBool(&c.Metrics, "CHORECHART_METRICS")
}

func (c *Config) sanitize() {
	d := Default()

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		c.warn("server.port %d out of range, using %d", c.Server.Port, d.Server.Port)
		c.Server.Port = d.Server.Port
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = d.Server.IdleTimeout
	}
	if c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		c.warn("log.level %q unknown, using %s", c.Log.Level, d.Log.Level)
		c.Log.Level = d.Log.Level
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		c.warn("log.format %q unknown, using %s", c.Log.Format, d.Log.Format)
		c.Log.Format = d.Log.Format
	}

	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = d.Scheduler.Timezone
	}
	if _, _, ok := chore.ParseClock(c.Scheduler.ResetAt); !ok {
		c.warn("scheduler.reset_at %q is not HH:MM, using %s", c.Scheduler.ResetAt, d.Scheduler.ResetAt)
		c.Scheduler.ResetAt = d.Scheduler.ResetAt
	}
	if c.Scheduler.PollInterval <= 0 {
		c.Scheduler.PollInterval = d.Scheduler.PollInterval
	}

	if c.Backup.Dir == "" {
		c.Backup.Dir = d.Backup.Dir
	}
	if c.Backup.Retention < 0 {
		c.warn("backup.retention %d is negative, using %d", c.Backup.Retention, d.Backup.Retention)
		c.Backup.Retention = d.Backup.Retention
	}
	if c.Backup.S3.Region == "" {
		c.Backup.S3.Region = d.Backup.S3.Region
	}
}

func (c *Config) warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envOverrideBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
