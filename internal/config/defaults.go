package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/hansard/data/db/records.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/hansard/data/indices/bleve"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/hansard/data/indices/vectors.bin"
	}
	if cfg.Storage.CachePath == "" {
		cfg.Storage.CachePath = "/usr/local/var/hansard/data/db/answers.db"
	}
	if cfg.AI.Host == "" {
		cfg.AI.Host = "http://localhost:11434/v1"
	}
	if cfg.AI.GenerationModel == "" {
		cfg.AI.GenerationModel = "qwen2.5:7b"
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = "nomic-embed-text"
	}
	if cfg.AI.EmbeddingDimensions == 0 {
		cfg.AI.EmbeddingDimensions = 768
	}
	if cfg.AI.GenerateTimeoutSec == 0 {
		cfg.AI.GenerateTimeoutSec = 15
	}
	if cfg.AI.EmbedTimeoutSec == 0 {
		cfg.AI.EmbedTimeoutSec = 5
	}
	if cfg.AI.Token == "" {
		// Local OpenAI-compatible services accept any token.
		cfg.AI.Token = "none"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 30
	}
	if cfg.Search.CandidateCeiling == 0 {
		cfg.Search.CandidateCeiling = 60
	}
	if cfg.Search.RRFDamping == 0 {
		cfg.Search.RRFDamping = 50
	}
	if cfg.Search.TextWeight == 0 {
		cfg.Search.TextWeight = 1.0
	}
	if cfg.Search.SemanticWeight == 0 {
		cfg.Search.SemanticWeight = 1.0
	}
	if cfg.Orchestrator.SufficientEvidence == 0 {
		cfg.Orchestrator.SufficientEvidence = 8
	}
	if cfg.Orchestrator.MinDistinctTools == 0 {
		cfg.Orchestrator.MinDistinctTools = 2
	}
	if cfg.Rerank.ScoreThreshold == 0 {
		cfg.Rerank.ScoreThreshold = 5
	}
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = 10
	}
	if cfg.Session.MaxTurns == 0 {
		cfg.Session.MaxTurns = 3
	}
	if cfg.Cache.RetentionDays == 0 {
		cfg.Cache.RetentionDays = 30
	}
}
