package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/ai"
	"github.com/civiclens/hansard/internal/analyzer"
	"github.com/civiclens/hansard/internal/answer"
	"github.com/civiclens/hansard/internal/cache"
	"github.com/civiclens/hansard/internal/config"
	"github.com/civiclens/hansard/internal/inquiry"
	"github.com/civiclens/hansard/internal/lexical"
	"github.com/civiclens/hansard/internal/orchestrator"
	"github.com/civiclens/hansard/internal/rerank"
	"github.com/civiclens/hansard/internal/search"
	"github.com/civiclens/hansard/internal/session"
	"github.com/civiclens/hansard/internal/store"
	"github.com/civiclens/hansard/internal/tools"
	"github.com/civiclens/hansard/internal/vector"
)

// Components holds every wired part of the answering pipeline.
type Components struct {
	Store       store.Store
	Lexical     *lexical.BleveIndex
	VectorIndex *vector.MemoryIndex
	Embedder    ai.Embedder
	Engine      *search.Engine
	Sessions    *session.Store
	Cache       *cache.AnswerCache
	Service     *inquiry.Service

	cfg    *config.Config
	logger *zap.Logger
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	st, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	lex, err := lexical.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize lexical index: %w", err)
	}

	vec, err := vector.NewMemoryIndex(cfg.AI.EmbeddingDimensions)
	if err != nil {
		lex.Close()
		st.Close()
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if cfg.Storage.VectorIndexPath != "" {
		if loadErr := vec.Load(cfg.Storage.VectorIndexPath); loadErr != nil {
			logger.Warn("vector index load skipped",
				zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(loadErr))
		}
	}
	logger.Info("indexes initialized", zap.Int("vectors", vec.Size()))

	generator, err := ai.NewOpenAIGenerator(&cfg.AI)
	if err != nil {
		lex.Close()
		st.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}
	embedder, err := ai.NewOpenAIEmbedder(&cfg.AI)
	if err != nil {
		lex.Close()
		st.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	engine := search.NewEngine(lex, vec, &cfg.Search, logger)
	registry := tools.NewRegistry(engine, st, logger)

	var reranker orchestrator.Reranker
	if cfg.Rerank.EnabledOrDefault() {
		reranker = rerank.New(generator, cfg.Rerank.ScoreThreshold, logger)
	}
	gatherer := orchestrator.New(registry, reranker, &cfg.Orchestrator, logger)
	qa := analyzer.New(generator, embedder, st, logger)
	synthesizer := answer.NewSynthesizer(generator, logger)
	sessions := session.NewStore(&cfg.Session)

	var answerCache *cache.AnswerCache
	var responseCache inquiry.ResponseCache
	if cfg.Cache.EnabledOrDefault() {
		answerCache, err = cache.New(cfg.Storage.CachePath, cfg.Cache.RetentionDays)
		if err != nil {
			lex.Close()
			st.Close()
			return nil, fmt.Errorf("failed to initialize answer cache: %w", err)
		}
		responseCache = answerCache
	}

	service := inquiry.NewService(qa, gatherer, synthesizer, sessions, responseCache, logger)

	return &Components{
		Store:       st,
		Lexical:     lex,
		VectorIndex: vec,
		Embedder:    embedder,
		Engine:      engine,
		Sessions:    sessions,
		Cache:       answerCache,
		Service:     service,
		cfg:         cfg,
		logger:      logger,
	}, nil
}

// Close releases every held resource.
func (c *Components) Close() {
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.logger.Warn("cache close failed", zap.Error(err))
		}
	}
	if err := c.Lexical.Close(); err != nil {
		c.logger.Warn("lexical index close failed", zap.Error(err))
	}
	if err := c.Store.Close(); err != nil {
		c.logger.Warn("store close failed", zap.Error(err))
	}
}

// SaveVectorIndex persists the vector index when a path is configured.
func (c *Components) SaveVectorIndex() {
	if c.cfg.Storage.VectorIndexPath == "" {
		return
	}
	if err := c.VectorIndex.Save(c.cfg.Storage.VectorIndexPath); err != nil {
		c.logger.Warn("vector index save failed",
			zap.String("path", c.cfg.Storage.VectorIndexPath), zap.Error(err))
	}
}
