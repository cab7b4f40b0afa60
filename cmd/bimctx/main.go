// Command bimctx is the entry point of the building model context engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vantera-labs/bimctx/internal/adapters/driven/config/file"
	"github.com/vantera-labs/bimctx/internal/adapters/driven/storage/sqlite"
	"github.com/vantera-labs/bimctx/internal/adapters/driving/cli"
	"github.com/vantera-labs/bimctx/internal/attributes"
	"github.com/vantera-labs/bimctx/internal/cache"
	"github.com/vantera-labs/bimctx/internal/core/domain"
	"github.com/vantera-labs/bimctx/internal/core/services"
	"github.com/vantera-labs/bimctx/internal/strategies"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := file.NewConfigStore(os.Getenv("BIMCTX_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	store, err := sqlite.NewStore(os.Getenv("BIMCTX_DATA_DIR"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	chunkStore := store.ChunkStore()

	// Attribute-enhanced chunking is on unless the config disables it.
	enhanced := true
	if v, ok := config.Get("chunking.enhancedAttributes"); ok {
		if b, isBool := v.(bool); isBool {
			enhanced = b
		}
	}

	// A fresh extractor per run keeps attribute caches from leaking
	// across watch-mode re-processing of a changed model file.
	strategyFactory := func() []strategies.Strategy {
		return strategies.Default(
			services.NewStrategyExtractor(attributes.NewExtractor()),
			strategies.Config{EnhancedAttributes: enhanced},
		)
	}
	chunker := services.NewChunkerService(chunkStore, strategyFactory)

	cacheOpts := domain.DefaultCacheOptions()
	if capacity := config.GetInt("cache.capacity"); capacity > 0 {
		cacheOpts.Capacity = capacity
	}
	if ttl := config.GetInt("cache.ttlSeconds"); ttl > 0 {
		cacheOpts.TTL = time.Duration(ttl) * time.Second
	}
	resultCache := cache.New(cacheOpts.Capacity, cacheOpts.TTL)

	builder := services.NewContextBuilder(chunkStore, resultCache)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Chunking: chunker,
		Context:  builder,
		Manifest: services.NewManifestManager(chunkStore),
	})

	return cli.ExecuteContext(ctx)
}
