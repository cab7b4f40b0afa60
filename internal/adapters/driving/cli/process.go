package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vantera-labs/bimctx/internal/adapters/driven/modelfile"
	"github.com/vantera-labs/bimctx/internal/core/domain"
	"github.com/vantera-labs/bimctx/internal/core/ports/driven"
)

var (
	processProject      string
	processName         string
	processTargetTokens int
	processMaxTokens    int
	processJSON         bool
)

// newModelSource is swapped in tests.
var newModelSource = func(path string) driven.ModelSource {
	return modelfile.NewSource(path)
}

var processCmd = &cobra.Command{
	Use:   "process [model.json]",
	Short: "Chunk a model snapshot",
	Long: `Reads an entity snapshot exported from a building model and runs all
chunking strategies over it. The resulting chunks, manifest and lookup
indices are persisted and replace any earlier chunks of the project.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processProject, "project", "p", "", "project identifier (default: model file basename)")
	processCmd.Flags().StringVar(&processName, "name", "", "human-readable project name")
	processCmd.Flags().IntVar(&processTargetTokens, "target-tokens", domain.DefaultTargetTokenSize, "chunk fill target in tokens")
	processCmd.Flags().IntVar(&processMaxTokens, "max-tokens", domain.DefaultMaxTokenSize, "hard chunk size limit in tokens")
	processCmd.Flags().BoolVar(&processJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if chunkingService == nil {
		return errors.New("chunking service not configured")
	}

	path := args[0]
	projectID := processProject
	if projectID == "" {
		projectID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	projectName := processName
	if projectName == "" {
		projectName = projectID
	}

	snapshot, err := newModelSource(path).Load(cmd.Context())
	if err != nil {
		return err
	}

	opts := domain.SizeOptions{
		TargetTokenSize: processTargetTokens,
		MaxTokenSize:    processMaxTokens,
	}

	result, err := chunkingService.ProcessModel(cmd.Context(), projectID, projectName, snapshot, opts)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}
	if contextService != nil {
		contextService.InvalidateProject(projectID)
	}

	if processJSON {
		data, err := json.MarshalIndent(result.Manifest, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal manifest: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Processed %s in %s\n", path, result.Duration.Round(timePrecision))
	cmd.Printf("  Project:  %s (%s)\n", projectName, projectID)
	cmd.Printf("  Entities: %d\n", result.Manifest.TotalEntities)
	cmd.Printf("  Chunks:   %d (%d tokens)\n", result.Manifest.TotalChunks, result.Manifest.TotalTokens)
	for _, warning := range result.Warnings {
		cmd.Printf("  Warning:  %s\n", warning)
	}
	return nil
}
