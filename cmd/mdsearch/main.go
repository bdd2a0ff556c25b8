// Package main is the mdsearch CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/mdsearch/internal/cli"
	"github.com/hyperjump/mdsearch/internal/config"
	"github.com/hyperjump/mdsearch/internal/corpus"
	"github.com/hyperjump/mdsearch/internal/fileid"
	"github.com/hyperjump/mdsearch/internal/metrics"
	"github.com/hyperjump/mdsearch/internal/models"
	"github.com/hyperjump/mdsearch/internal/search"
	"github.com/hyperjump/mdsearch/internal/server"
	"github.com/hyperjump/mdsearch/internal/storage"
	"github.com/hyperjump/mdsearch/internal/watcher"
	"github.com/hyperjump/mdsearch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/mdsearch/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory is preferred if it exists, and a missing default file yields the built-in
// defaults. Returns the config and the path that was actually loaded ("" for defaults).
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
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
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
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("mdsearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file events, index mutations, requests)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if fs.NArg() > 0 {
		cfg.Corpus.Directories = absPaths(fs.Args())
	}
	cfg.Debug = cfg.Debug || *debug
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Strings("directories", cfg.Corpus.Directories),
		zap.Bool("debug", cfg.Debug),
	)

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if _, err := components.Engine.Rebuild(context.Background()); err != nil {
		logger.Fatal("Initial index build failed", zap.Error(err))
	}

	srvOpts := []server.Option{server.WithMetrics(components.Metrics)}
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Corpus.WatchOrDefault() && len(cfg.Corpus.Directories) > 0 {
		watchSvc := newCorpusWatcher(components.Source, components.Engine, logger)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		srvOpts = append(srvOpts, server.WithWatcher(watchSvc))
	}

	srv := server.NewServer(components.Engine, components.Storage, cfg, logger, srvOpts...)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// newCorpusWatcher keeps engine in step with the files under src's roots.
func newCorpusWatcher(src *corpus.DirectorySource, engine *search.Engine, logger *zap.Logger, opts ...watcher.Option) *watcher.Watcher {
	opts = append([]watcher.Option{watcher.WithLogger(logger)}, opts...)
	return watcher.NewWatcher(
		src.Roots(),
		src.Matches,
		src.Recursive(),
		func(path string) {
			doc, err := src.LoadFile(path)
			if err != nil {
				logger.Warn("watch load file failed", zap.String("path", path), zap.Error(err))
				return
			}
			if _, err := engine.Put(doc); err != nil {
				logger.Warn("watch index file failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if _, err := engine.RemoveTree(fileid.DocID(path)); err != nil {
				logger.Warn("watch remove failed", zap.String("path", path), zap.Error(err))
			}
		},
		opts...,
	)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: mdsearch search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Without --server the corpus from the config (or --dir) is indexed in-process for this query.
  • Prefix matching is on by default; use --prefix=false for whole words only.
  • --fuzzy below 1 is a fraction of the term length, 1 or more an absolute edit distance, 0 disables.

Examples:
  mdsearch search install guide
  mdsearch search --dir ./docs "setup"
  mdsearch search --fuzzy 0 --prefix=false exact
  mdsearch search --server http://localhost:8080 --output json setup
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// setFlags returns the names of the flags given explicitly on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (in-process mode)")
	serverURL := fs.String("server", "", "server URL; empty indexes the corpus in-process")
	dirs := fs.String("dir", "", "comma-separated corpus directories (in-process mode; overrides config)")
	limit := fs.Int("limit", models.DefaultLimit, "number of results")
	prefix := fs.Bool("prefix", true, "match query terms as prefixes of longer terms")
	fuzzy := fs.Float64("fuzzy", models.DefaultFuzziness, "typo tolerance: fraction of term length (<1) or edit distance (>=1); 0 disables")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	set := setFlags(fs)
	searchQuery := &models.SearchQuery{Query: queryStr, Limit: *limit}
	if set["prefix"] {
		searchQuery.Prefix = prefix
	}
	if set["fuzzy"] {
		searchQuery.Fuzzy = fuzzy
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, searchQuery)
	} else {
		response, err = searchLocal(*configPath, *dirs, searchQuery)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// searchLocal builds the index in-process and runs one query against it.
func searchLocal(configPath, dirs string, query *models.SearchQuery) (*models.SearchResponse, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dirs != "" {
		cfg.Corpus.Directories = absPaths(strings.Split(dirs, ","))
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	ctx := context.Background()
	if _, err := components.Engine.Rebuild(ctx); err != nil {
		return nil, err
	}
	return components.Engine.Search(ctx, query)
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Index              search.Status          `json:"index"`
	StoredDocuments    *int64                 `json:"stored_documents,omitempty"`
	DiskUsageBytes     *int64                 `json:"disk_usage_bytes,omitempty"`
	WatchedDirectories []string               `json:"watched_directories,omitempty"`
	Config             map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (in-process mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = build the index in-process)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var (
		status *statusResponse
		err    error
	)
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
	} else {
		status, err = statusLocal(*configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := writeStatus(os.Stdout, status, *outputFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func statusLocal(configPath string) (*statusResponse, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	ctx := context.Background()
	if _, err := components.Engine.Rebuild(ctx); err != nil {
		return nil, err
	}
	status := &statusResponse{
		Index: components.Engine.Status(),
		Config: map[string]interface{}{
			"directories":   cfg.Corpus.Directories,
			"extensions":    cfg.Corpus.Extensions,
			"database_path": cfg.Storage.DatabasePath,
		},
	}
	if components.Storage != nil {
		if n, err := components.Storage.CountDocuments(ctx); err == nil {
			status.StoredDocuments = &n
		}
		if diskBytes, err := storage.DiskUsageBytes(storage.DatabaseFiles(cfg.Storage.DatabasePath)...); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}
	return status, nil
}

func writeStatus(w io.Writer, status *statusResponse, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	case "text":
		fmt.Fprintf(w, "built:              %t\n", status.Index.Built)
		if status.Index.Built {
			fmt.Fprintf(w, "snapshot:           %s   # generation %d\n", status.Index.SnapshotID, status.Index.Generation)
		}
		if status.Index.BuiltAt != nil {
			fmt.Fprintf(w, "built_at:           %s\n", status.Index.BuiltAt.Format(time.RFC3339))
		}
		fmt.Fprintf(w, "documents:          %d   # indexed documents\n", status.Index.Documents)
		fmt.Fprintf(w, "terms:              %d   # distinct terms in the dictionary\n", status.Index.Terms)
		if status.StoredDocuments != nil {
			fmt.Fprintf(w, "stored_documents:   %d   # submitted through the API\n", *status.StoredDocuments)
		}
		if status.DiskUsageBytes != nil {
			fmt.Fprintf(w, "disk_usage_bytes:   %d   # document database on disk\n", *status.DiskUsageBytes)
		}
		for _, d := range status.WatchedDirectories {
			fmt.Fprintf(w, "watching:           %s\n", d)
		}
		if len(status.Config) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "# configuration")
			keys := make([]string, 0, len(status.Config))
			for k := range status.Config {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(w, "%-19s %v\n", k+":", status.Config[k])
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q; use text or json", format)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "config file to write")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[2:])

	if err := writeDefaultConfig(*configPath, absPaths(fs.Args()), *force); err != nil {
		fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *configPath)
}

// writeDefaultConfig writes the default config with dirs as the corpus directories.
func writeDefaultConfig(path string, dirs []string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	cfg := config.Default()
	if len(dirs) > 0 {
		cfg.Corpus.Directories = dirs
		config.ApplyDefaults(cfg)
	}
	return config.Save(path, cfg)
}

// Components holds initialized services.
type Components struct {
	Storage storage.Storage
	Metrics *metrics.Metrics
	Source  *corpus.DirectorySource
	Engine  *search.Engine
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// initializeComponents wires storage, the corpus and the engine. When requireStorage is
// false a database that cannot be opened is logged and the file corpus is used alone.
func initializeComponents(cfg *config.Config, logger *zap.Logger, requireStorage bool) (*Components, error) {
	c := &Components{Metrics: metrics.New()}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	switch {
	case err == nil:
		c.Storage = store
	case requireStorage:
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	default:
		logger.Warn("document storage unavailable, using files only",
			zap.String("path", cfg.Storage.DatabasePath), zap.Error(err))
	}

	var dirOpts []corpus.DirectoryOption
	if cfg.Debug {
		dirOpts = append(dirOpts, corpus.WithLogger(logger))
	}
	dirOpts = append(dirOpts,
		corpus.WithExtensions(cfg.Corpus.Extensions),
		corpus.WithRecursive(cfg.Corpus.RecursiveOrDefault()))
	c.Source = corpus.NewDirectorySource(cfg.Corpus.Directories, dirOpts...)

	sources := []corpus.Source{c.Source}
	if c.Storage != nil {
		sources = append(sources, corpus.NewStoreSource(c.Storage))
	}
	c.Engine = search.NewEngine(&cfg.Search,
		search.WithSource(corpus.NewMultiSource(sources...)),
		search.WithMetrics(c.Metrics),
		search.WithLogger(logger))
	return c, nil
}

func absPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, fileid.DocID(p))
		}
	}
	return out
}

func printUsage() {
	fmt.Println(`mdsearch - Ranked full-text search over local documents

Usage:
  mdsearch server [flags] [docs-dir...]   Index the corpus and start the HTTP server
  mdsearch search [flags] <query>         Search documents
  mdsearch status [flags]                 Show index/storage status
  mdsearch init [flags] [docs-dir...]     Write a default config file
  mdsearch version                        Show version
  mdsearch help                           Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/mdsearch/config.yaml)
  --debug            Enable debug logging (file events, index mutations, requests)

Search Flags:
  --config string    Config file path (in-process mode)
  --server string    Server URL. Empty (default) indexes the corpus in-process.
  --dir string       Comma-separated corpus directories (in-process mode)
  --limit int        Number of results (default: 5)
  --prefix           Prefix matching (default: true)
  --fuzzy float      Typo tolerance (default: 0.2; 0 disables)
  --output string    Output format: text, compact, or json (default: text)

Status Flags:
  --config string    Config file path (in-process mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to index in-process.
  --output string    Output format: text or json (default: text)

Examples:
  mdsearch server ./docs
  mdsearch search "setup guide"
  mdsearch search --server http://localhost:8080 --output json install
  mdsearch status --output json
  mdsearch init ./docs`)
}
