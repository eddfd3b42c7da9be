package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"forest-index/internal/cache"
	"forest-index/internal/config"
	"forest-index/internal/content"
	"forest-index/internal/contextutil"
	"forest-index/internal/forest"
	"forest-index/internal/storage"
)

// forest-rebuild recomputes the nested-set ranges of the configured tree
// types and verifies the result. Ranges come from parent links by default,
// or from the content hierarchy when FOREST_REBUILD_FROM_CONTENT is set.
func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	nodeCache, err := cache.New(cfg.CacheSize)
	if err != nil {
		log.Fatalf("Failed to create node cache: %v", err)
	}

	engine := forest.NewEngine(storage.NewIndexRepo(db), forest.WithCache(nodeCache), forest.WithLogger(logger))
	coordinator := content.NewCoordinator(engine, storage.NewContentRepo(db))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = contextutil.WithLogger(ctx, logger)

	failed := 0
	for _, treeType := range cfg.RebuildTreeTypes {
		if err := rebuild(ctx, engine, coordinator, treeType, cfg.RebuildFromContent); err != nil {
			slog.Error("Rebuild failed", "tree_type", treeType, "error", err)
			failed++
			if ctx.Err() != nil {
				break
			}
		}
	}

	if failed > 0 {
		// Deferred close does not run after os.Exit
		_ = db.Close()
		os.Exit(1)
	}
	slog.Info("Rebuild completed", "tree_types", len(cfg.RebuildTreeTypes))
}

func rebuild(ctx context.Context, engine *forest.Engine, coordinator *content.Coordinator, treeType string, fromContent bool) error {
	var stats *forest.RebuildStats
	var err error
	if fromContent {
		stats, err = coordinator.RebuildIndexes(ctx, treeType)
	} else {
		stats, err = engine.Rebuild(ctx, treeType)
	}
	if err != nil {
		return err
	}

	if err := engine.Verify(ctx, treeType); err != nil {
		return err
	}

	slog.Info("Tree type rebuilt",
		"tree_type", stats.TreeType,
		"nodes", stats.Nodes,
		"depth", stats.Depth,
		"duration", stats.Duration,
		"from_content", fromContent,
	)
	return nil
}
