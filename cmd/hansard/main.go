// Package main is the Hansard CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/config"
	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/server"
	"github.com/civiclens/hansard/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/hansard/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "ingest":
		runIngest()
	case "version", "--version", "-v":
		fmt.Printf("hansard version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: hansard <command> [flags]

Commands:
  server    Start the HTTP API server
  ask       Ask a question about council records
  ingest    Load records from a JSON export into the indexes
  version   Print version
  help      Print this help`)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(
		components.Service,
		answerGetterOrNil(components),
		components.VectorIndex,
		components.Sessions,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	components.SaveVectorIndex()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// answerGetterOrNil avoids handing the server a typed-nil interface when the
// cache is disabled.
func answerGetterOrNil(c *Components) server.AnswerGetter {
	if c.Cache == nil {
		return nil
	}
	return c.Cache
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = answer in-process)")
	scopeID := fs.String("scope", "", "council scope id (required)")
	sessionID := fs.String("session", "", "session id for follow-up questions")
	dateFrom := fs.String("from", "", "restrict to records on or after this date (YYYY-MM-DD)")
	dateTo := fs.String("to", "", "restrict to records on or before this date (YYYY-MM-DD)")
	outputJSON := fs.Bool("json", false, "print the raw JSON response")
	_ = fs.Parse(os.Args[2:])

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" || *scopeID == "" {
		fmt.Fprintln(os.Stderr, "Usage: hansard ask --scope <id> [flags] <question>")
		os.Exit(1)
	}

	req := models.AskRequest{
		Question:  question,
		ScopeID:   *scopeID,
		SessionID: *sessionID,
		DateFrom:  *dateFrom,
		DateTo:    *dateTo,
	}

	var resp *models.AskResponse
	var err error
	if *serverURL != "" {
		resp, err = askViaHTTP(*serverURL, &req)
	} else {
		resp, err = askDirect(*configPath, req)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(resp)
		return
	}
	printAnswer(resp)
}

func askViaHTTP(serverURL string, req *models.AskRequest) (*models.AskResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpResp, err := http.Post(serverURL+"/api/v1/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("server returned %d: %s", httpResp.StatusCode, string(b))
	}
	var resp models.AskResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

func askDirect(configPath string, req models.AskRequest) (*models.AskResponse, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	return components.Service.Ask(context.Background(), req)
}

func printAnswer(resp *models.AskResponse) {
	fmt.Println(resp.Answer)
	fmt.Printf("\nConfidence: %s", resp.Confidence)
	if resp.ShareID != "" {
		fmt.Printf("  Share: %s", resp.ShareID)
	}
	fmt.Printf("  (%dms)\n", resp.QueryTimeMS)

	if len(resp.Citations) > 0 {
		fmt.Println("\nSources:")
		for i, c := range resp.Citations {
			line := fmt.Sprintf("  [%d] %s %s", i+1, c.Category, c.Date.Format("2006-01-02"))
			if c.Speaker != "" {
				line += ", " + c.Speaker
			}
			if c.Locator != "" {
				line += " (" + c.Locator + ")"
			}
			fmt.Println(line)
		}
	}
	if len(resp.FollowUps) > 0 {
		fmt.Println("\nYou could also ask:")
		for _, f := range resp.FollowUps {
			fmt.Println("  - " + f)
		}
	}
	for _, d := range resp.Degradations {
		fmt.Printf("\nnote: %s: %s\n", d.Stage, d.Reason)
	}
}
