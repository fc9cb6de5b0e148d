// Command tsunagu runs the reading-companion recommendation engine: a
// section-level semantic index over a PDF library with an HTTP API and a
// directory watcher for auto-ingestion.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/config"
	"github.com/hyperjump/tsunagu/internal/embedding"
	"github.com/hyperjump/tsunagu/internal/extract"
	"github.com/hyperjump/tsunagu/internal/fileid"
	"github.com/hyperjump/tsunagu/internal/library"
	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/profile"
	"github.com/hyperjump/tsunagu/internal/recommend"
	"github.com/hyperjump/tsunagu/internal/scoring"
	"github.com/hyperjump/tsunagu/internal/server"
	"github.com/hyperjump/tsunagu/internal/store"
	"github.com/hyperjump/tsunagu/internal/vector"
	"github.com/hyperjump/tsunagu/internal/watcher"
	"github.com/hyperjump/tsunagu/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/tsunagu/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "tsunagu server" from the project dir uses the
// project's config (including debug). Returns the config and the path that
// was actually loaded.
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
	case "ingest":
		runIngest()
	case "recommend":
		runRecommend()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("tsunagu version %s\n", version)
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
	debug := fs.Bool("debug", false, "enable debug logging (watched directories, ingestion, etc.)")
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

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// A persistent store survives restarts but vectors do not necessarily;
	// rebuild unless a saved index already covered them.
	if cfg.Storage.DatabasePath != "" && components.VectorIndex.Size() == 0 {
		logger.Info("rebuilding vector index from store")
		if err := components.Library.RebuildIndex(context.Background()); err != nil {
			logger.Fatal("Failed to rebuild vector index", zap.Error(err))
		}
	}

	lib := components.Library
	watchOpts := []watcher.Option{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.New(
		cfg.Watch.Directories,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			if err := ingestFile(context.Background(), lib, path); err != nil {
				logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if err := lib.DeleteDocument(context.Background(), fileid.FileDocID(path)); err != nil {
				logger.Warn("watch delete by path failed", zap.String("path", path), zap.Error(err))
			}
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(lib, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if cfg.Storage.VectorIndexPath != "" {
		if err := components.VectorIndex.Save(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector index save failed",
				zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
		}
	}
	watchCancel()
	watchSvc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// ingestFile extracts a PDF and registers it under its path-derived document
// ID, replacing any previous version of the same file.
func ingestFile(ctx context.Context, lib *library.Library, path string) error {
	pages, err := extract.PDFPages(path)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("no extractable text in %s", path)
	}
	docID := fileid.FileDocID(path)
	if err := lib.DeleteDocument(ctx, docID); err != nil {
		return err
	}
	title := filepath.Base(path)
	return lib.IngestDocument(ctx, docID, title, pages)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	title := fs.String("title", "", "document title (default: file name)")
	docID := fs.String("id", "", "document ID (default: derived from file path)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: tsunagu ingest [flags] <file.pdf>")
		os.Exit(1)
	}
	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		fmt.Printf("Invalid path: %v\n", err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	pages, err := extract.PDFPages(path)
	if err != nil {
		fmt.Printf("Extraction failed: %v\n", err)
		os.Exit(1)
	}
	if len(pages) == 0 {
		fmt.Printf("No extractable text in %s\n", path)
		os.Exit(1)
	}

	id := *docID
	if id == "" {
		id = fileid.FileDocID(path)
	}
	docTitle := *title
	if docTitle == "" {
		docTitle = filepath.Base(path)
	}
	if err := components.Library.IngestDocument(context.Background(), id, docTitle, pages); err != nil {
		fmt.Printf("Ingestion failed: %v\n", err)
		os.Exit(1)
	}
	saveVectorIndex(cfg, components, logger)
	fmt.Printf("Document ingested: %s (%d pages with text)\n", id, len(pages))
}

func runRecommend() {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	persona := fs.String("persona", "", "reader persona, e.g. \"undergraduate chemistry student\"")
	job := fs.String("job", "", "reader goal, e.g. \"prepare for exam on reaction kinetics\"")
	sameK := fs.Int("same-k", 0, "same-document result cap (default from config)")
	crossK := fs.Int("cross-k", 0, "cross-document result cap (default from config)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 2 {
		fmt.Println("Usage: tsunagu recommend [flags] <document-id> <page>")
		os.Exit(1)
	}
	docID := fs.Arg(0)
	var page int
	if _, err := fmt.Sscanf(fs.Arg(1), "%d", &page); err != nil || page < 1 {
		fmt.Println("Page must be a positive integer")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if cfg.Storage.DatabasePath != "" && components.VectorIndex.Size() == 0 {
		if err := components.Library.RebuildIndex(context.Background()); err != nil {
			fmt.Printf("Index rebuild failed: %v\n", err)
			os.Exit(1)
		}
	}

	req := models.RecommendRequest{
		DocumentID:     docID,
		PageNumber:     page,
		SameDocumentK:  *sameK,
		CrossDocumentK: *crossK,
	}
	if *persona != "" || *job != "" {
		req.Profile = profile.Build(*persona, *job)
	}

	set, err := components.Library.Recommend(context.Background(), req)
	if err != nil {
		fmt.Printf("Recommendation failed: %v\n", err)
		os.Exit(1)
	}

	if *output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(set)
		return
	}
	printRecommendations("Same document", set.SameDocument)
	printRecommendations("Other documents", set.CrossDocument)
}

func printRecommendations(heading string, recs []*models.Recommendation) {
	fmt.Printf("%s (%d):\n", heading, len(recs))
	for i, rec := range recs {
		fmt.Printf("  %d. [%.3f %s] %s p.%d\n     %s\n",
			i+1, rec.RelevanceScore, rec.Explanation, rec.DocumentID, rec.PageNumber, rec.Snippet)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: tsunagu delete [flags] <document-id>")
		os.Exit(1)
	}
	docID := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if err := components.Library.DeleteDocument(context.Background(), docID); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	saveVectorIndex(cfg, components, logger)
	fmt.Printf("Document deleted: %s\n", docID)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	docs, sections, vectors, err := components.Library.Stats(context.Background())
	if err != nil {
		fmt.Printf("Status failed: %v\n", err)
		os.Exit(1)
	}

	if *output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]interface{}{
			"documents":         docs,
			"sections":          sections,
			"vector_index_size": vectors,
		})
		return
	}
	fmt.Printf("Documents:    %d\n", docs)
	fmt.Printf("Sections:     %d\n", sections)
	fmt.Printf("Vectors:      %d\n", vectors)
	if cfg.Storage.DatabasePath != "" {
		fmt.Printf("Database:     %s\n", cfg.Storage.DatabasePath)
	} else {
		fmt.Println("Database:     (in-memory)")
	}
}

// saveVectorIndex persists the index after direct-mode mutations so the next
// process start can skip the rebuild.
func saveVectorIndex(cfg *config.Config, components *Components, logger *zap.Logger) {
	if cfg.Storage.VectorIndexPath == "" {
		return
	}
	if err := components.VectorIndex.Save(cfg.Storage.VectorIndexPath); err != nil {
		logger.Warn("vector index save failed",
			zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
	}
}

// Components holds initialized services.
type Components struct {
	Store       store.Store
	Embedder    embedding.Embedder
	VectorIndex *vector.MemoryIndex
	Library     *library.Library
}

func (c *Components) Close() {
	if c.Library != nil {
		_ = c.Library.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	var st store.Store
	if cfg.Storage.DatabasePath != "" {
		sqliteStore, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		st = sqliteStore
	} else {
		st = store.NewMemoryStore()
	}

	var embedder embedding.Embedder
	if cfg.Embedding.ModelPath != "" {
		onnxEmbedder, err := embedding.NewONNXEmbedder(
			cfg.Embedding.ModelPath,
			cfg.Embedding.Dimensions,
			cfg.Embedding.MaxTokens,
			cfg.Embedding.CacheSize,
		)
		if err != nil {
			if logger != nil {
				logger.Warn("ONNX embedder unavailable, using hashing embedder", zap.Error(err))
			}
			embedder = embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
		} else {
			embedder = onnxEmbedder
		}
	} else {
		embedder = embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	}

	vectorIndex, err := vector.NewMemoryIndex(cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if cfg.Storage.VectorIndexPath != "" {
		if loadErr := vectorIndex.Load(cfg.Storage.VectorIndexPath); loadErr != nil && logger != nil {
			logger.Warn("vector index load skipped (will rebuild)",
				zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(loadErr))
		}
	}

	scorer := scoring.NewScorer(scoring.Weights{
		Semantic: cfg.Recommend.SemanticWeight,
		Lexical:  cfg.Recommend.LexicalWeight,
		Domain:   cfg.Recommend.DomainWeight,
	})
	assembler := recommend.NewAssembler(st, embedder, vectorIndex, scorer, recommend.Options{
		CandidateMultiplier: cfg.Recommend.CandidateMultiplier,
		SnippetLength:       cfg.Recommend.SnippetLength,
	})

	libOpts := []library.Option{}
	if debug && logger != nil {
		libOpts = append(libOpts, library.WithLogger(logger))
	}
	lib := library.New(st, embedder, vectorIndex, assembler, libOpts...)

	return &Components{
		Store:       st,
		Embedder:    embedder,
		VectorIndex: vectorIndex,
		Library:     lib,
	}, nil
}

func printUsage() {
	fmt.Println(`tsunagu - reading companion recommendation engine

Usage:
  tsunagu server [flags]                      Start the HTTP server
  tsunagu ingest [flags] <file.pdf>           Ingest a PDF into the library
  tsunagu recommend [flags] <doc-id> <page>   Recommend related sections
  tsunagu delete [flags] <document-id>        Delete a document
  tsunagu status [flags]                      Show library status
  tsunagu version                             Show version
  tsunagu help                                Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/tsunagu/config.yaml)
  --debug            Enable debug logging (watched directories, ingestion, etc.)

Ingest Flags:
  --config string    Config file path
  --title string     Document title (default: file name)
  --id string        Document ID (default: derived from file path)

Recommend Flags:
  --config string    Config file path
  --persona string   Reader persona, used for the domain bonus
  --job string       Reader goal, used for the domain bonus
  --same-k int       Same-document result cap
  --cross-k int      Cross-document result cap
  --output string    Output format: text or json (default: text)

Examples:
  tsunagu server
  tsunagu ingest --title "Organic Chemistry" chem.pdf
  tsunagu recommend --persona "chemistry student" --job "exam prep" doc-123 14
  tsunagu delete doc-123
  tsunagu status --output json`)
}
