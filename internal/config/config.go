// Package config loads engine configuration from an optional YAML file with
// environment-variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// #region types

// Config is the full engine configuration.
type Config struct {
	DBPath string `yaml:"db_path"`

	LLM struct {
		APIKey     string `yaml:"api_key"`
		BaseURL    string `yaml:"base_url"`
		Model      string `yaml:"model"`
		JudgeModel string `yaml:"judge_model"`
		EmbedModel string `yaml:"embed_model"`
		TimeoutSec int    `yaml:"timeout_sec"`
	} `yaml:"llm"`

	Generation struct {
		BatchSize  int    `yaml:"batch_size"`
		Boundaries string `yaml:"boundaries"`
	} `yaml:"generation"`
}

// #endregion types

// #region load

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.DBPath = "draftstudio.db"
	cfg.LLM.BaseURL = "https://api.deepseek.com"
	cfg.LLM.Model = "deepseek-chat"
	cfg.LLM.TimeoutSec = 60
	cfg.Generation.BatchSize = 6
	cfg.Generation.Boundaries = "suggestive but never explicit; platform-safe"
	return cfg
}

// Load reads path (if non-empty) over the defaults, then applies environment
// overrides. A missing file at an explicitly-given path is an error; an
// empty path skips the file step entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays STUDIO_* environment variables.
func applyEnv(cfg *Config) {
	cfg.DBPath = envOr("STUDIO_DB", cfg.DBPath)
	cfg.LLM.APIKey = envOr("STUDIO_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.BaseURL = envOr("STUDIO_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = envOr("STUDIO_MODEL", cfg.LLM.Model)
	cfg.LLM.JudgeModel = envOr("STUDIO_JUDGE_MODEL", cfg.LLM.JudgeModel)
	cfg.LLM.EmbedModel = envOr("STUDIO_EMBED_MODEL", cfg.LLM.EmbedModel)
	if v := os.Getenv("STUDIO_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Generation.BatchSize = n
		}
	}
}

// Timeout returns the LLM timeout as a duration.
func (c Config) Timeout() time.Duration {
	if c.LLM.TimeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.LLM.TimeoutSec) * time.Second
}

// #endregion load

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
