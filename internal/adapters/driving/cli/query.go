package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vantera-labs/bimctx/internal/core/domain"
)

var (
	queryProject   string
	queryMaxTokens int
	queryCompact   bool
	queryLanguage  string
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Build context for a free-text query",
	Long: `Answers a free-text question (German or English) against a processed
project. The query is analyzed for intent, candidate chunks are retrieved
through the manifest indices, scored for relevance and assembled into a
token-bounded context.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryProject, "project", "p", "", "project identifier (required)")
	queryCmd.Flags().IntVarP(&queryMaxTokens, "max-tokens", "n", 4000, "total token budget for the exchange")
	queryCmd.Flags().BoolVar(&queryCompact, "compact", false, "render summaries instead of full chunk bodies")
	queryCmd.Flags().StringVar(&queryLanguage, "lang", "de", "output language (de or en)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if contextService == nil {
		return errors.New("context service not configured")
	}
	if queryProject == "" {
		return errors.New("--project is required")
	}

	req := domain.ContextRequest{
		ProjectID: queryProject,
		Query:     args[0],
		MaxTokens: queryMaxTokens,
		Compact:   queryCompact,
		Language:  queryLanguage,
	}

	result, err := contextService.BuildContext(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if result.Context.Header != "" {
		cmd.Println(result.Context.Header)
	}
	for _, block := range result.Context.Blocks {
		cmd.Println(block)
		cmd.Println()
	}

	cmd.Println(strings.Repeat("-", outputWidth()))
	cmd.Printf("Intent: %s (%.0f%% confidence), %d candidates, %d loaded, %s\n",
		result.Intent.Kind, result.Intent.Confidence*100,
		result.CandidateCount, result.LoadedCount,
		result.Duration.Round(timePrecision))
	cmd.Printf("Context: %d chunks, %d tokens, coverage %d%%\n",
		result.Context.Metadata.TotalChunks,
		result.Context.Metadata.TotalTokens,
		result.Context.Metadata.Coverage)
	return nil
}

// outputWidth returns the terminal width for separator lines,
// falling back to 80 when not attached to a terminal.
func outputWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
