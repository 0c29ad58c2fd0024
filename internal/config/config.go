package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all runtime settings.
// Load order: defaults -> YAML (optional) -> env overrides.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	DBPath        string `yaml:"db_path"`
	MigrationsDir string `yaml:"migrations_dir"`
	CatalogPath   string `yaml:"catalog_path"`
	LockPath      string `yaml:"lock_path"`

	// Probing configuration
	Probe struct {
		TimeoutSec    int `yaml:"timeout_sec"`    // per-probe HTTP timeout
		RecheckAfter  int `yaml:"recheck_after"`  // seconds between scheduler ticks
		DueAfterSec   int `yaml:"due_after_sec"`  // per-service minimum seconds between probes
		ShutdownGrace int `yaml:"shutdown_grace"` // seconds to wait for in-flight probes on stop
	} `yaml:"probe"`

	Webhooks struct {
		TimeoutSec int `yaml:"timeout_sec"` // per-delivery HTTP timeout
	} `yaml:"webhooks"`

	// Logging configuration
	Logging struct {
		Level      string `yaml:"level"`       // trace, debug, info, warn, error, fatal, panic
		Format     string `yaml:"format"`      // json, console
		Output     string `yaml:"output"`      // stdout, file, multi
		FilePath   string `yaml:"file_path"`   // path to log file (if output=file or multi)
		MaxSizeMB  int    `yaml:"max_size_mb"` // max size before rotation
		MaxBackups int    `yaml:"max_backups"` // max number of old log files
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logging"`
}

// Load reads YAML if path is non-empty, then applies env overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// ProbeTimeout returns the per-probe timeout as a duration.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutSec) * time.Second
}

// RecheckInterval returns the scheduler tick interval as a duration.
func (c Config) RecheckInterval() time.Duration {
	return time.Duration(c.Probe.RecheckAfter) * time.Second
}

// DueAfter returns the per-service probe spacing as a duration.
func (c Config) DueAfter() time.Duration {
	return time.Duration(c.Probe.DueAfterSec) * time.Second
}

// ShutdownGrace returns how long to wait for in-flight work on stop.
func (c Config) ShutdownGrace() time.Duration {
	return time.Duration(c.Probe.ShutdownGrace) * time.Second
}

// WebhookTimeout returns the per-delivery timeout as a duration.
func (c Config) WebhookTimeout() time.Duration {
	return time.Duration(c.Webhooks.TimeoutSec) * time.Second
}

func defaults() Config {
	var c Config
	c.ListenAddr = ":8080"
	c.DBPath = "data/outage.sqlite3"
	c.MigrationsDir = "./migrations"
	c.CatalogPath = "services.json"
	c.LockPath = "data/status-monitor.lock"

	c.Probe.TimeoutSec = 10
	c.Probe.RecheckAfter = 300
	c.Probe.DueAfterSec = 240
	c.Probe.ShutdownGrace = 15

	c.Webhooks.TimeoutSec = 5

	c.Logging.Level = "info"
	c.Logging.Format = "json"
	c.Logging.Output = "stdout"
	c.Logging.FilePath = "/var/log/status-monitor/app.log"
	c.Logging.MaxSizeMB = 100
	c.Logging.MaxBackups = 3
	c.Logging.MaxAgeDays = 28
	c.Logging.Compress = true

	return c
}

func applyEnv(cfg *Config) {
	setStr(&cfg.ListenAddr, "SM_LISTEN_ADDR")
	setStr(&cfg.DBPath, "SM_DB_PATH")
	setStr(&cfg.MigrationsDir, "SM_MIGRATIONS_DIR")
	setStr(&cfg.CatalogPath, "SM_CATALOG_PATH")
	setStr(&cfg.LockPath, "SM_LOCK_PATH")

	setInt(&cfg.Probe.TimeoutSec, "SM_PROBE_TIMEOUT_SEC")
	setInt(&cfg.Probe.RecheckAfter, "SM_RECHECK_AFTER")
	setInt(&cfg.Probe.DueAfterSec, "SM_DUE_AFTER_SEC")
	setInt(&cfg.Probe.ShutdownGrace, "SM_SHUTDOWN_GRACE")

	setInt(&cfg.Webhooks.TimeoutSec, "SM_WEBHOOK_TIMEOUT_SEC")

	setStr(&cfg.Logging.Level, "SM_LOG_LEVEL")
	setStr(&cfg.Logging.Format, "SM_LOG_FORMAT")
	setStr(&cfg.Logging.Output, "SM_LOG_OUTPUT")
	setStr(&cfg.Logging.FilePath, "SM_LOG_FILE_PATH")
	setInt(&cfg.Logging.MaxSizeMB, "SM_LOG_MAX_SIZE_MB")
	setInt(&cfg.Logging.MaxBackups, "SM_LOG_MAX_BACKUPS")
	setInt(&cfg.Logging.MaxAgeDays, "SM_LOG_MAX_AGE_DAYS")
	if v := os.Getenv("SM_LOG_COMPRESS"); v != "" {
		cfg.Logging.Compress = v == "1" || strings.ToLower(v) == "true"
	}
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			*dst = n
		}
	}
}
