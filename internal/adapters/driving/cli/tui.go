package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vantera-labs/bimctx/internal/adapters/driving/tui"
)

var tuiProject string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive query session",
	Long: `Launch the interactive terminal user interface for bimctx.

The TUI provides an interactive query session over one processed project:
type a question, inspect the assembled context, refine and repeat.

Controls:
  enter    - Run query
  ↑/k, ↓/j - Scroll context
  n        - New query
  c        - Toggle compact rendering
  ctrl+c   - Quit`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiProject, "project", "p", "", "project identifier (required)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if contextService == nil {
		return errors.New("context service not configured")
	}
	if tuiProject == "" {
		return errors.New("--project is required")
	}

	// Panic recovery keeps stack traces readable after the
	// alternate screen is torn down.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := &tui.Ports{
		Context:  contextService,
		Manifest: manifestService,
	}

	app, err := tui.NewApp(ports, tuiProject)
	if err != nil {
		return err
	}
	app = app.WithContext(cmd.Context())

	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
