// Package config loads config.yaml and follows log level changes to it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"churnguard/logging"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Log   logging.Config `yaml:"log"`
	Model struct {
		Path                string `yaml:"path"`
		OnUnrecognizedInput string `yaml:"on_unrecognized_input"`
		ScoreCacheSize      int    `yaml:"score_cache_size"`
	} `yaml:"model"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Dashboard struct {
		Port        int           `yaml:"port"`
		ServiceURL  string        `yaml:"service_url"`
		DatasetPath string        `yaml:"dataset_path"`
		Charset     string        `yaml:"charset"`
		PollTimeout time.Duration `yaml:"poll_timeout"`
	} `yaml:"dashboard"`
}

// Load reads a YAML config file and fills defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	config.applyDefaults()
	return &config, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var config Config
	config.applyDefaults()
	return &config
}

func (c *Config) applyDefaults() {
	if c.Http.Port == 0 {
		c.Http.Port = 5000
	}
	if c.Http.Timeout == 0 {
		c.Http.Timeout = 30 * time.Second
	}
	if len(c.Http.AllowedOrigins) == 0 {
		c.Http.AllowedOrigins = []string{"*"}
	}
	if c.Http.MaxBodyBytes == 0 {
		c.Http.MaxBodyBytes = 1 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Model.Path == "" {
		c.Model.Path = filepath.Join("models", "churn_model.json")
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join("data", "dashboard.db")
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8051
	}
	if c.Dashboard.ServiceURL == "" {
		c.Dashboard.ServiceURL = "http://127.0.0.1:5000"
	}
	if c.Dashboard.DatasetPath == "" {
		c.Dashboard.DatasetPath = filepath.Join("data", "telco.csv")
	}
	if c.Dashboard.PollTimeout == 0 {
		c.Dashboard.PollTimeout = 5 * time.Second
	}
}

// WatchLogLevel re-reads path on every write and applies its log level.
// The watcher stops when the returned close func is called.
func WatchLogLevel(path string, level zap.AtomicLevel, logger *zap.Logger) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Editors replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Clean(path)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				updated, err := Load(path)
				if err != nil {
					logger.Warn("config reload failed", zap.String("path", path), zap.Error(err))
					continue
				}
				next := logging.ParseLevel(updated.Log.Level)
				if next != level.Level() {
					level.SetLevel(next)
					logger.Info("log level changed", zap.Stringer("level", next))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()
	return watcher.Close, nil
}
