// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads service configuration from YAML with environment
// overrides, and watches the file for runtime log level changes.
//
// Thread Safety:
//
//	Load returns a value copy; the Watcher serializes reloads on one
//	goroutine.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// MaxConfigFileSize caps the config file read (1MB).
const MaxConfigFileSize = 1024 * 1024

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Render   RenderConfig   `yaml:"render"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig controls the embedded store.
type DatabaseConfig struct {
	Path       string `yaml:"path"`
	SyncWrites bool   `yaml:"sync_writes"`
}

// AuthConfig controls token issuance and login throttling.
type AuthConfig struct {
	// JWTSecret signs access tokens. Required; no default is generated
	// so a restart cannot silently invalidate issued tokens.
	JWTSecret string `yaml:"jwt_secret"`

	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
	RateLimitBurst     int     `yaml:"rate_limit_burst"`
}

// LoggingConfig controls log output. Level is the only field applied on
// hot reload.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// TracingConfig controls OTLP trace export.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// ArchiveConfig controls best-effort export artifact archival.
type ArchiveConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

// RenderConfig controls the PDF backend.
type RenderConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:   ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{Path: "data/evident", SyncWrites: true},
		Auth:     AuthConfig{RateLimitPerSecond: 1, RateLimitBurst: 5},
		Logging:  LoggingConfig{Level: "info", Dir: "logs"},
		Tracing:  TracingConfig{Endpoint: "localhost:4317"},
		Render:   RenderConfig{TimeoutSeconds: 30},
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// at path (optional, empty path skips it), then EVIDENT_* environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("auth.jwt_secret is required (or set EVIDENT_JWT_SECRET)")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > MaxConfigFileSize {
		return fmt.Errorf("config file %s exceeds %d bytes", path, MaxConfigFileSize)
	}

	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// applyEnv overlays EVIDENT_* variables onto cfg. Unset variables leave
// the current value alone.
func applyEnv(cfg *Config) {
	if v := os.Getenv("EVIDENT_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("EVIDENT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("EVIDENT_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("EVIDENT_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("EVIDENT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("EVIDENT_LOG_DIR"); v != "" {
		cfg.Logging.Dir = v
	}
	if v := os.Getenv("EVIDENT_OTLP_ENDPOINT"); v != "" {
		cfg.Tracing.Endpoint = v
		cfg.Tracing.Enabled = true
	}
	if v := os.Getenv("EVIDENT_ARCHIVE_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
		cfg.Archive.Enabled = true
	}
}

// Watcher reloads the config file on change and reports the new value.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func(Config)
	logger   *slog.Logger
	done     chan struct{}
}

// NewWatcher watches path and invokes onChange with each successfully
// reloaded configuration. A file that reloads with errors is skipped;
// the previous configuration stays in effect.
func NewWatcher(path string, onChange func(Config), logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace files on save
	// and a direct file watch goes stale after the first rename.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}

	w := &Watcher{
		watcher:  fsw,
		path:     filepath.Clean(path),
		onChange: onChange,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	// Debounce: editors emit bursts of events per save.
	var pending <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(200 * time.Millisecond)

		case <-pending:
			pending = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("config watcher error", slog.String("error", err.Error()))
			}
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		if w.logger != nil {
			w.logger.Warn("config reload skipped", slog.String("error", err.Error()))
		}
		return
	}
	if w.logger != nil {
		w.logger.Info("config reloaded", slog.String("path", w.path))
	}
	w.onChange(cfg)
}
