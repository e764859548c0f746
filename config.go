package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"inspiria/background"
)

// Config contains optional configuration overrides loaded from disk.
type Config struct {
	AppName             string           `json:"app_name"`
	OutputDir           string           `json:"output_dir"`
	Listen              string           `json:"listen"`
	PrefsPath           string           `json:"prefs_path"`
	Debug               bool             `json:"debug"`
	FetchTimeoutSeconds int              `json:"fetch_timeout_seconds"`
	UnsplashAccessKey   string           `json:"unsplash_access_key"`
	Background          BackgroundConfig `json:"background"`
}

// BackgroundConfig overrides the animated backdrop defaults.
type BackgroundConfig struct {
	Gradient    []string `json:"gradient,omitempty"`
	Speed       *float64 `json:"speed,omitempty"`
	Interactive *bool    `json:"interactive,omitempty"`
	Parallax    *bool    `json:"parallax,omitempty"`
	FPS         int      `json:"fps,omitempty"`
}

func defaultConfig() Config {
	return Config{
		AppName:             "inspiria",
		OutputDir:           ".",
		Listen:              "127.0.0.1:8080",
		PrefsPath:           "inspiria-prefs.db",
		FetchTimeoutSeconds: 10,
		Background:          BackgroundConfig{FPS: 30},
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("load config: open %q: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return cfg, fmt.Errorf("load config: read %q: %w", path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("load config: parse %q: %w", path, err)
	}

	if strings.TrimSpace(cfg.AppName) == "" {
		cfg.AppName = "inspiria"
	}
	if cfg.FetchTimeoutSeconds < 1 || cfg.FetchTimeoutSeconds > 120 {
		return cfg, fmt.Errorf("load config: fetch_timeout_seconds must be between 1 and 120, got %d", cfg.FetchTimeoutSeconds)
	}
	if cfg.Background.FPS < 1 || cfg.Background.FPS > 120 {
		return cfg, fmt.Errorf("load config: background.fps must be between 1 and 120, got %d", cfg.Background.FPS)
	}
	if cfg.Background.Speed != nil && *cfg.Background.Speed < 0 {
		return cfg, fmt.Errorf("load config: background.speed must not be negative, got %v", *cfg.Background.Speed)
	}
	return cfg, nil
}

func (c Config) fetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// backgroundOptions merges the config overrides into the default options.
func (c Config) backgroundOptions(dark bool) background.Options {
	opts := background.DefaultOptions()
	opts.Dark = dark
	// An explicit empty list selects the ambient colour.
	if c.Background.Gradient != nil {
		opts.Gradient = c.Background.Gradient
	}
	if c.Background.Speed != nil {
		opts.Speed = *c.Background.Speed
	}
	if c.Background.Interactive != nil {
		opts.Interactive = *c.Background.Interactive
	}
	if c.Background.Parallax != nil {
		opts.Parallax = *c.Background.Parallax
	}
	return opts
}
