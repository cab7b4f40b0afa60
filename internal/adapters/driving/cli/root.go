// Package cli implements the bimctx command line interface using cobra.
//
// Commands receive their services through package-level variables set by
// the composition root (cmd/bimctx). Commands that run without their
// service configured fail with a clear error instead of panicking.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/vantera-labs/bimctx/internal/core/ports/driving"
	"github.com/vantera-labs/bimctx/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// timePrecision rounds durations in human-readable output.
const timePrecision = time.Millisecond

var (
	chunkingService driving.ChunkingService
	contextService  driving.ContextService
	manifestService driving.ManifestService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "bimctx",
	Short: "Building model context engine",
	Long: `bimctx turns building model entity snapshots into retrievable context.

Models are chunked once with the process command; afterwards the query
command answers free-text questions (German or English) with a token-bounded
context assembled from the most relevant chunks.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Services bundles the driving ports the CLI depends on.
type Services struct {
	Chunking driving.ChunkingService
	Context  driving.ContextService
	Manifest driving.ManifestService
}

// SetServices wires the services the commands run against.
func SetServices(s Services) {
	chunkingService = s.Chunking
	contextService = s.Context
	manifestService = s.Manifest
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, so long-running commands
// like watch and mcp serve stop on SIGINT/SIGTERM.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
