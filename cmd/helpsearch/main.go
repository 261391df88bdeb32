// Package main is the helpsearch CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/helpsearch/internal/cli"
	"github.com/hyperjump/helpsearch/internal/config"
	"github.com/hyperjump/helpsearch/internal/indexer"
	"github.com/hyperjump/helpsearch/internal/models"
	"github.com/hyperjump/helpsearch/internal/search"
	"github.com/hyperjump/helpsearch/internal/server"
	"github.com/hyperjump/helpsearch/internal/watcher"
	"github.com/hyperjump/helpsearch/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/helpsearch/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory takes precedence if it exists, so running from a
// project directory picks up the project's config. A missing default config
// falls back to built-in defaults. Returns the config and the path loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
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
	case "find":
		runFind()
	case "ingest":
		runIngest()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("helpsearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// fatalf prints to stderr and exits.
func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config and creates the logger for a subcommand.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger, string) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || debugFlag)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	return cfg, logger, resolved
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, resolvedConfigPath := setup(*configPath, *debug)
	defer func() { _ = logger.Sync() }()
	logger.Info("Config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug || *debug))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	docsRoot := cfg.Docs.Directory
	if err := os.MkdirAll(docsRoot, 0755); err != nil {
		logger.Warn("Docs directory unavailable", zap.String("dir", docsRoot), zap.Error(err))
	} else if _, err := components.Indexer.IndexDirectory(ctx, docsRoot, cfg.Docs.Patterns, nil); err != nil {
		logger.Warn("Initial ingest failed", zap.String("dir", docsRoot), zap.Error(err))
	}
	if _, err := components.Indexer.Rebuild(ctx); err != nil {
		logger.Fatal("Failed to build corpus", zap.Error(err))
	}

	if cfg.Docs.WatchOrDefault() {
		w := watcher.NewWatcher(docsRoot,
			docsMatcher(docsRoot, cfg.Docs.Patterns),
			&docsHandler{ctx: ctx, root: docsRoot, indexer: components.Indexer, logger: logger},
			watcher.WithLogger(logger))
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	srv := server.NewServer(components.Engine, components.Indexer, components.Storage, cfg, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

// docsMatcher accepts supported files under root whose relative path matches patterns.
func docsMatcher(root string, patterns []string) func(string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	return func(path string) bool {
		if !indexer.Supported(path) {
			return false
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return false
		}
		return len(patterns) == 0 || indexer.Matches(patterns, filepath.ToSlash(rel))
	}
}

// docsHandler applies watcher batches to the index and rebuilds the corpus
// once per batch.
type docsHandler struct {
	ctx     context.Context
	root    string
	indexer *indexer.Indexer
	logger  *zap.Logger
	dirty   bool
}

func (h *docsHandler) Index(path string) {
	changed, err := h.indexer.IndexFile(h.ctx, h.root, path)
	if err != nil {
		h.logger.Warn("Watch: index file failed", zap.String("path", path), zap.Error(err))
		return
	}
	h.dirty = h.dirty || changed
}

func (h *docsHandler) Remove(path string) {
	if err := h.indexer.RemoveFile(h.ctx, path); err != nil {
		h.logger.Warn("Watch: remove file failed", zap.String("path", path), zap.Error(err))
		return
	}
	h.dirty = true
}

func (h *docsHandler) Settled() {
	if !h.dirty {
		return
	}
	h.dirty = false
	if _, err := h.indexer.Rebuild(h.ctx); err != nil {
		h.logger.Error("Watch: corpus rebuild failed", zap.Error(err))
	}
}

// printFindUsage prints find subcommand usage.
func printFindUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: helpsearch find [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  helpsearch find reset my password
  helpsearch find -k 3 "billing address"
  helpsearch find --output json cancel subscription
  helpsearch find --server "" offline mode      # skip the server, read storage directly
`)
}

// buildFindQuery joins positional args so multi-word queries work with or without quotes.
func buildFindQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves flags (with their values) ahead of the positional words so
// flag.Parse sees them; the flag package stops at the first positional arg.
// Positional words keep their order. A "--" terminator is moved in front of all
// words so that words after it are never parsed as flags.
func argsReorder(fs *flag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	words := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			words = append(append([]string{a}, words...), args[i+1:]...)
			break
		}
		if len(a) < 2 || a[0] != '-' {
			words = append(words, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if f := fs.Lookup(name); f != nil && !isBoolFlag(f) && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	return append(flags, words...)
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

func runFind() {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL; empty or unreachable uses storage directly")
	k := fs.Int("k", 0, "number of results (0 = config default)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	fs.Usage = func() { printFindUsage(fs) }
	_ = fs.Parse(argsReorder(fs, os.Args[2:]))

	queryStr := buildFindQuery(fs.Args())
	if queryStr == "" {
		printFindUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	query := &models.FindQuery{Query: queryStr, K: *k}

	ctx := context.Background()
	var response *models.FindResponse
	if *serverURL != "" {
		response, err = newAPIClient(*serverURL).Find(ctx, query)
		if err != nil && !isUnreachable(err) {
			fatalf("Find failed: %v", err)
		}
	}
	if response == nil {
		response, err = findDirect(ctx, *configPath, query)
		if err != nil {
			fatalf("Find failed: %v", err)
		}
	}
	if err := cli.WriteFindResults(os.Stdout, response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func findDirect(ctx context.Context, configPath string, query *models.FindQuery) (*models.FindResponse, error) {
	cfg, logger, _ := setup(configPath, false)
	defer func() { _ = logger.Sync() }()
	if err := query.Validate(cfg.Search.DefaultK, cfg.Search.MaxK); err != nil {
		return nil, err
	}
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer components.Close()
	if _, err := components.Indexer.Rebuild(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	results, err := components.Engine.FindResults(ctx, query.Query, query.K)
	if err != nil {
		return nil, err
	}
	return search.BuildResponse(ctx, query.Query, results, components.Storage, time.Since(start)), nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	progress := fs.Bool("progress", cli.DefaultProgressEnabled(), "show a progress bar")
	reloadURL := fs.String("reload", "", "server URL to reload after ingesting (empty = skip)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, _ := setup(*configPath, false)
	defer func() { _ = logger.Sync() }()

	target := cfg.Docs.Directory
	if fs.NArg() > 0 {
		target = fs.Arg(0)
	}
	info, err := os.Stat(target)
	if err != nil {
		fatalf("Ingest failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer components.Close()

	if info.IsDir() {
		stats, err := components.Indexer.IndexDirectory(ctx, target, cfg.Docs.Patterns, cli.NewIngestProgress(*progress, os.Stderr))
		if err != nil {
			fatalf("Ingest failed: %v", err)
		}
		fmt.Printf("Ingested %s: %d indexed, %d unchanged, %d failed, %d removed\n",
			target, stats.Indexed, stats.Skipped, stats.Failed, stats.Removed)
	} else {
		changed, err := components.Indexer.IndexFile(ctx, filepath.Dir(target), target)
		if err != nil {
			fatalf("Ingest failed: %v", err)
		}
		fmt.Printf("Ingested %s (changed: %t)\n", target, changed)
	}

	if *reloadURL != "" {
		if err := newAPIClient(*reloadURL).Reload(ctx); err != nil {
			fatalf("Reload failed: %v", err)
		}
		fmt.Println("Server corpus reloaded")
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	ctx := context.Background()
	var status *models.Status
	if *serverURL != "" {
		status, err = newAPIClient(*serverURL).Status(ctx)
		if err != nil {
			fatalf("Status failed: %v", err)
		}
	} else {
		cfg, logger, _ := setup(*configPath, false)
		defer func() { _ = logger.Sync() }()
		components, err := initializeComponents(ctx, cfg, logger)
		if err != nil {
			fatalf("Failed to initialize: %v", err)
		}
		defer components.Close()
		if _, err := components.Indexer.Rebuild(ctx); err != nil {
			fatalf("Status failed: %v", err)
		}
		status, err = server.BuildStatus(ctx, components.Engine, components.Storage, cfg)
		if err != nil {
			fatalf("Status failed: %v", err)
		}
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func printUsage() {
	fmt.Println(`helpsearch - semantic search over help documentation

Usage:
  helpsearch server [flags]          Start the HTTP server
  helpsearch find [flags] <query>    Find the help entries closest to a query
  helpsearch ingest [flags] [path]   Index a docs directory or file into storage
  helpsearch status [flags]          Show storage and corpus status
  helpsearch version                 Show version
  helpsearch help                    Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/helpsearch/config.yaml)
  --debug            Enable debug logging

Find Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Storage is read directly
                     when empty or when the server cannot be reached.
  -k int             Number of results (default from config)
  --output string    Output format: text, compact, or json (default: text)

Ingest Flags:
  --config string    Config file path
  --progress         Show a progress bar (default: on when stderr is a terminal)
  --reload string    Server URL to reload after ingesting

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  helpsearch server
  helpsearch ingest ./docs
  helpsearch find how do I reset my password
  helpsearch find --output json -k 3 "billing"
  helpsearch status --output json`)
}
