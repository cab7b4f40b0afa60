package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

var manifestJSON bool

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Inspect and repair project manifests",
}

var manifestShowCmd = &cobra.Command{
	Use:   "show [project-id]",
	Short: "Show a project manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runManifestShow,
}

var manifestValidateCmd = &cobra.Command{
	Use:   "validate [project-id]",
	Short: "Check manifest integrity against stored chunks",
	Long: `Cross-checks the manifest and its indices against the stored chunks.
Every inconsistency is reported; validation never stops at the first
finding. Exits non-zero when the manifest is corrupt.`,
	Args: cobra.ExactArgs(1),
	RunE: runManifestValidate,
}

var manifestRebuildCmd = &cobra.Command{
	Use:   "rebuild [project-id]",
	Short: "Rebuild manifest and indices from stored chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runManifestRebuild,
}

func init() {
	manifestCmd.PersistentFlags().BoolVar(&manifestJSON, "json", false, "output as JSON")
	manifestCmd.AddCommand(manifestShowCmd)
	manifestCmd.AddCommand(manifestValidateCmd)
	manifestCmd.AddCommand(manifestRebuildCmd)
	rootCmd.AddCommand(manifestCmd)
}

func runManifestShow(cmd *cobra.Command, args []string) error {
	if manifestService == nil {
		return errors.New("manifest service not configured")
	}

	manifest, err := manifestService.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if manifestJSON {
		return printJSON(cmd, manifest)
	}

	cmd.Printf("Project: %s (%s)\n", manifest.ProjectName, manifest.ProjectID)
	cmd.Printf("Created: %s, updated %s\n",
		manifest.CreatedAt.Format("2006-01-02 15:04"),
		manifest.UpdatedAt.Format("2006-01-02 15:04"))
	cmd.Printf("Chunks:  %d (%d entities, %d tokens)\n",
		manifest.TotalChunks, manifest.TotalEntities, manifest.TotalTokens)

	byKind := make(map[domain.ChunkKind]int)
	for _, summary := range manifest.Chunks {
		byKind[summary.Kind]++
	}
	kinds := make([]string, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		cmd.Printf("  %-13s %d\n", kind+":", byKind[domain.ChunkKind(kind)])
	}
	return nil
}

func runManifestValidate(cmd *cobra.Command, args []string) error {
	if manifestService == nil {
		return errors.New("manifest service not configured")
	}

	result, err := manifestService.Validate(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if manifestJSON {
		return printJSON(cmd, result)
	}

	if result.Valid {
		cmd.Println("Manifest is consistent.")
		return nil
	}

	cmd.Printf("Manifest has %d problem(s):\n", len(result.Errors))
	for _, msg := range result.Errors {
		cmd.Printf("  - %s\n", msg)
	}
	return fmt.Errorf("manifest validation failed for %s", args[0])
}

func runManifestRebuild(cmd *cobra.Command, args []string) error {
	if manifestService == nil {
		return errors.New("manifest service not configured")
	}

	manifest, err := manifestService.Rebuild(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if contextService != nil {
		contextService.InvalidateProject(args[0])
	}

	if manifestJSON {
		return printJSON(cmd, manifest)
	}

	cmd.Printf("Rebuilt manifest for %s: %d chunks, %d tokens\n",
		manifest.ProjectID, manifest.TotalChunks, manifest.TotalTokens)
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
