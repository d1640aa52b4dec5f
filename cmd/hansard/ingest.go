package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/vector"
	"github.com/civiclens/hansard/pkg/utils"
)

// ingestFile is the JSON export shape accepted by the ingest command. It
// mirrors what the upstream scraping pipeline emits.
type ingestFile struct {
	Items    []*models.SearchableItem `json:"items"`
	Meetings []*models.Meeting        `json:"meetings"`
	Persons  []ingestPerson           `json:"persons"`
	Matters  []ingestMatter           `json:"matters"`
}

type ingestPerson struct {
	ID      string `json:"id"`
	ScopeID string `json:"scope_id"`
	Name    string `json:"name"`
}

type ingestMatter struct {
	ID      string `json:"id"`
	ScopeID string `json:"scope_id"`
	Title   string `json:"title"`
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: hansard ingest [flags] <export.json>")
		os.Exit(1)
	}
	exportPath := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	data, err := os.ReadFile(exportPath)
	if err != nil {
		logger.Fatal("Failed to read export", zap.Error(err))
	}
	var export ingestFile
	if err := json.Unmarshal(data, &export); err != nil {
		logger.Fatal("Failed to parse export", zap.Error(err))
	}

	ctx := context.Background()
	for _, p := range export.Persons {
		if err := components.Store.PutPerson(ctx, p.ID, p.ScopeID, p.Name); err != nil {
			logger.Fatal("Failed to store person", zap.String("id", p.ID), zap.Error(err))
		}
	}
	for _, m := range export.Matters {
		if err := components.Store.PutMatter(ctx, m.ID, m.ScopeID, m.Title); err != nil {
			logger.Fatal("Failed to store matter", zap.String("id", m.ID), zap.Error(err))
		}
	}
	for _, m := range export.Meetings {
		if err := components.Store.PutMeeting(ctx, m); err != nil {
			logger.Fatal("Failed to store meeting", zap.String("id", m.ID), zap.Error(err))
		}
	}

	indexed, embedded := 0, 0
	for _, item := range export.Items {
		if !item.Category.Valid() {
			logger.Warn("skipping item with unknown category",
				zap.String("id", item.ID), zap.String("category", string(item.Category)))
			continue
		}
		if err := components.Store.PutItem(ctx, item); err != nil {
			logger.Fatal("Failed to store item", zap.String("id", item.ID), zap.Error(err))
		}
		// Key statements surface through their parent discussion, not search.
		if item.Category == models.CategoryKeyStatement {
			continue
		}
		if err := components.Lexical.Index(ctx, item); err != nil {
			logger.Fatal("Failed to index item", zap.String("id", item.ID), zap.Error(err))
		}
		indexed++
		emb, err := components.Embedder.Embed(ctx, item.Title+"\n"+item.Body)
		if err != nil {
			logger.Warn("embedding failed, lexical-only for item",
				zap.String("id", item.ID), zap.Error(err))
			continue
		}
		if err := components.VectorIndex.Add(ctx, item.ID, emb, vector.MetaFor(item)); err != nil {
			logger.Fatal("Failed to add vector", zap.String("id", item.ID), zap.Error(err))
		}
		embedded++
	}
	components.SaveVectorIndex()

	logger.Info("ingest complete",
		zap.Int("items", len(export.Items)),
		zap.Int("indexed", indexed),
		zap.Int("embedded", embedded),
		zap.Int("meetings", len(export.Meetings)),
		zap.Int("persons", len(export.Persons)),
		zap.Int("matters", len(export.Matters)))
}
