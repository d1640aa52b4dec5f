// Package config provides configuration loading and structs for the Hansard server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug        bool               `yaml:"debug"`
	Server       ServerConfig       `yaml:"server"`
	Storage      StorageConfig      `yaml:"storage"`
	AI           AIConfig           `yaml:"ai"`
	Search       SearchConfig       `yaml:"search"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Rerank       RerankConfig       `yaml:"rerank"`
	Session      SessionConfig      `yaml:"session"`
	Cache        CacheConfig        `yaml:"cache"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the content database and lexical index.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	BleveIndexPath  string `yaml:"bleve_index_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
	CachePath       string `yaml:"cache_path"`
}

// AIConfig holds model service settings. Host points at an OpenAI-compatible
// endpoint serving both generation and embeddings.
type AIConfig struct {
	Host                string `yaml:"host"`
	GenerationModel     string `yaml:"generation_model"`
	EmbeddingModel      string `yaml:"embedding_model"`
	EmbeddingDimensions int    `yaml:"embedding_dimensions"`
	// GenerateTimeoutSec and EmbedTimeoutSec are per-call deadlines.
	GenerateTimeoutSec int `yaml:"generate_timeout_sec"`
	EmbedTimeoutSec    int `yaml:"embed_timeout_sec"`
	Token              string `yaml:"token"`
}

// SearchConfig holds hybrid search and fusion settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	// MaxLimit is the hard cap on fused results per call.
	MaxLimit int `yaml:"max_limit"`
	// CandidateCeiling caps the per-signal candidate pool (2x limit, bounded).
	CandidateCeiling int `yaml:"candidate_ceiling"`
	// RRFDamping is the k constant in reciprocal rank fusion.
	RRFDamping     float64 `yaml:"rrf_damping"`
	TextWeight     float64 `yaml:"text_weight"`
	SemanticWeight float64 `yaml:"semantic_weight"`
}

// OrchestratorConfig holds loop termination settings.
type OrchestratorConfig struct {
	// SufficientEvidence is the unique-item count that permits early finalize.
	SufficientEvidence int `yaml:"sufficient_evidence"`
	// MinDistinctTools is the distinct-tool floor for the sufficiency check.
	MinDistinctTools int `yaml:"min_distinct_tools"`
}

// RerankConfig holds generative reranker settings.
type RerankConfig struct {
	Enabled *bool `yaml:"enabled"`
	// ScoreThreshold is the minimum 0-10 judge score to keep a candidate.
	ScoreThreshold int `yaml:"score_threshold"`
}

// EnabledOrDefault reports whether reranking is enabled; defaults to true.
func (r *RerankConfig) EnabledOrDefault() bool {
	if r.Enabled != nil {
		return *r.Enabled
	}
	return true
}

// SessionConfig holds conversation-state retention settings.
type SessionConfig struct {
	TTLMinutes int `yaml:"ttl_minutes"`
	MaxTurns   int `yaml:"max_turns"`
}

// CacheConfig holds shared-answer cache settings.
type CacheConfig struct {
	Enabled       *bool `yaml:"enabled"`
	RetentionDays int   `yaml:"retention_days"`
}

// EnabledOrDefault reports whether the answer cache is enabled; defaults to true.
func (c *CacheConfig) EnabledOrDefault() bool {
	if c.Enabled != nil {
		return *c.Enabled
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	cfg.Storage.CachePath = expandPath(cfg.Storage.CachePath, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
