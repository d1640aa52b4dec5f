package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Port != 8080 {
		t.Errorf("default port should be 8080, got %d", cfg.Server.Port)
	}
	if cfg.Search.RRFDamping != 50 {
		t.Errorf("default RRF damping should be 50, got %f", cfg.Search.RRFDamping)
	}
	if cfg.Search.TextWeight != 1.0 || cfg.Search.SemanticWeight != 1.0 {
		t.Errorf("default weights should be equal at 1.0, got %f/%f",
			cfg.Search.TextWeight, cfg.Search.SemanticWeight)
	}
	if cfg.Search.MaxLimit != 30 {
		t.Errorf("default max limit should be 30, got %d", cfg.Search.MaxLimit)
	}
	if cfg.Orchestrator.SufficientEvidence != 8 {
		t.Errorf("default sufficiency should be 8, got %d", cfg.Orchestrator.SufficientEvidence)
	}
	if cfg.Session.TTLMinutes != 10 || cfg.Session.MaxTurns != 3 {
		t.Errorf("unexpected session defaults: %d min, %d turns",
			cfg.Session.TTLMinutes, cfg.Session.MaxTurns)
	}
	if cfg.Cache.RetentionDays != 30 {
		t.Errorf("default retention should be 30 days, got %d", cfg.Cache.RetentionDays)
	}
	if !cfg.Rerank.EnabledOrDefault() {
		t.Error("rerank should be enabled by default")
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	disabled := false
	cfg := &Config{}
	cfg.Search.RRFDamping = 10
	cfg.Rerank.Enabled = &disabled
	ApplyDefaults(cfg)

	if cfg.Search.RRFDamping != 10 {
		t.Errorf("explicit damping should survive defaults, got %f", cfg.Search.RRFDamping)
	}
	if cfg.Rerank.EnabledOrDefault() {
		t.Error("explicitly disabled rerank should stay disabled")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 9090
storage:
  database_path: ./data/records.db
search:
  rrf_damping: 20
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port should be 9090, got %d", cfg.Server.Port)
	}
	if cfg.Search.RRFDamping != 20 {
		t.Errorf("damping should be 20, got %f", cfg.Search.RRFDamping)
	}
	want := filepath.Join(dir, "data/records.db")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("database path should expand relative to config dir: got %s, want %s",
			cfg.Storage.DatabasePath, want)
	}
	// Unset sections still get defaults.
	if cfg.AI.GenerateTimeoutSec != 15 {
		t.Errorf("generate timeout default should be 15, got %d", cfg.AI.GenerateTimeoutSec)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
