package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vantera-labs/bimctx/internal/adapters/driven/modelfile"
	"github.com/vantera-labs/bimctx/internal/core/domain"
)

var (
	watchProject string
	watchName    string
)

var watchCmd = &cobra.Command{
	Use:   "watch [model.json]",
	Short: "Re-process a model whenever its snapshot file changes",
	Long: `Processes the snapshot once, then keeps watching the file and
re-processes on every change. Change bursts are debounced. Runs until
interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchProject, "project", "p", "", "project identifier (default: model file basename)")
	watchCmd.Flags().StringVar(&watchName, "name", "", "human-readable project name")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if chunkingService == nil {
		return errors.New("chunking service not configured")
	}

	path := args[0]
	projectID := watchProject
	if projectID == "" {
		projectID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	projectName := watchName
	if projectName == "" {
		projectName = projectID
	}

	source := modelfile.NewSource(path)
	reprocess := func(ctx context.Context) error {
		snapshot, err := source.Load(ctx)
		if err != nil {
			return err
		}
		result, err := chunkingService.ProcessModel(ctx, projectID, projectName, snapshot, domain.DefaultSizeOptions())
		if err != nil {
			return err
		}
		if contextService != nil {
			contextService.InvalidateProject(projectID)
		}
		cmd.Printf("Re-processed %s: %d chunks, %d tokens\n",
			projectID, result.Manifest.TotalChunks, result.Manifest.TotalTokens)
		return nil
	}

	// Initial run before watching.
	if err := reprocess(cmd.Context()); err != nil {
		return fmt.Errorf("initial processing failed: %w", err)
	}

	watcher := modelfile.NewWatcher(source, reprocess)
	if err := watcher.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
