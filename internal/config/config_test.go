package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "draftstudio.db" {
		t.Fatalf("db path = %s", cfg.DBPath)
	}
	if cfg.LLM.Model != "deepseek-chat" {
		t.Fatalf("model = %s", cfg.LLM.Model)
	}
	if cfg.Generation.BatchSize != 6 {
		t.Fatalf("batch size = %d, want 6", cfg.Generation.BatchSize)
	}
	if cfg.Timeout() != 60*time.Second {
		t.Fatalf("timeout = %v, want 60s", cfg.Timeout())
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
db_path: /tmp/other.db
llm:
  model: gpt-4o-mini
  timeout_sec: 30
generation:
  batch_size: 4
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/other.db" {
		t.Fatalf("db path = %s", cfg.DBPath)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("model = %s", cfg.LLM.Model)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Fatalf("timeout = %v, want 30s", cfg.Timeout())
	}
	if cfg.Generation.BatchSize != 4 {
		t.Fatalf("batch size = %d, want 4", cfg.Generation.BatchSize)
	}
	// Unset fields keep defaults.
	if cfg.LLM.BaseURL != "https://api.deepseek.com" {
		t.Fatalf("base url = %s, want default", cfg.LLM.BaseURL)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STUDIO_DB", "/tmp/env.db")
	t.Setenv("STUDIO_MODEL", "env-model")
	t.Setenv("STUDIO_BATCH_SIZE", "9")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("db path = %s, want env override", cfg.DBPath)
	}
	if cfg.LLM.Model != "env-model" {
		t.Fatalf("model = %s, want env override", cfg.LLM.Model)
	}
	if cfg.Generation.BatchSize != 9 {
		t.Fatalf("batch size = %d, want 9", cfg.Generation.BatchSize)
	}
}

func TestEnvBadBatchSizeIgnored(t *testing.T) {
	t.Setenv("STUDIO_BATCH_SIZE", "not-a-number")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generation.BatchSize != 6 {
		t.Fatalf("batch size = %d, want default 6", cfg.Generation.BatchSize)
	}
}

func TestMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
