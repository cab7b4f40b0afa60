package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vantera-labs/bimctx/internal/adapters/driving/tui/components/input"
	"github.com/vantera-labs/bimctx/internal/adapters/driving/tui/components/list"
	"github.com/vantera-labs/bimctx/internal/adapters/driving/tui/components/status"
	"github.com/vantera-labs/bimctx/internal/adapters/driving/tui/keymap"
	"github.com/vantera-labs/bimctx/internal/adapters/driving/tui/messages"
	"github.com/vantera-labs/bimctx/internal/adapters/driving/tui/styles"
	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// App is the interactive query session over one processed project.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports     *Ports
	ctx       context.Context
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	blocks    *list.BlockList
	statusbar *status.Bar

	projectID string
	compact   bool
	lastQuery string
	result    *domain.ContextResult
	err       error

	width      int
	height     int
	ready      bool
	focusInput bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application for the given project.
func NewApp(ports *Ports, projectID string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if projectID == "" {
		return nil, ErrMissingProject
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s),
		blocks:     list.NewBlockList(s),
		statusbar:  status.NewBar(s, km),
		projectID:  projectID,
		width:      80,
		height:     24,
		focusInput: true,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init initialises the application.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.input.Init()}
	if a.ports.Manifest != nil {
		cmds = append(cmds, a.loadManifest())
	}
	return tea.Batch(cmds...)
}

// Update handles messages following the Elm architecture.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.setDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.QueryCompleted:
		a.handleQueryCompleted(msg)
		return a, nil

	case messages.ManifestLoaded:
		if msg.Err == nil && msg.Manifest != nil {
			a.statusbar.SetMessage(fmt.Sprintf("%s: %d chunks, %d entities",
				msg.Manifest.ProjectName, msg.Manifest.TotalChunks, msg.Manifest.TotalEntities))
		}
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(msg.Err.Error())
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// handleKeyMsg processes keyboard input.
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	if keymap.Matches(keyStr, a.keymap.Quit) {
		return a, tea.Quit
	}

	// Enter in input mode submits the query.
	if msg.Type == tea.KeyEnter && a.focusInput {
		query := a.input.Value()
		if query == "" {
			return a, nil
		}
		a.lastQuery = query
		a.focusInput = false
		a.input.Blur()
		a.statusbar.SetState(status.StateQuerying)
		return a, a.buildContext(query)
	}

	// Input mode: remaining keys go to the text input.
	if a.focusInput {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}

	// Result mode.
	switch {
	case keymap.Matches(keyStr, a.keymap.Up):
		a.blocks.ScrollUp()
	case keymap.Matches(keyStr, a.keymap.Down):
		a.blocks.ScrollDown()
	case keymap.Matches(keyStr, a.keymap.NewQuery):
		a.focusInput = true
		a.input.SetValue("")
		return a, a.input.Focus()
	case keymap.Matches(keyStr, a.keymap.ToggleCompact):
		a.compact = !a.compact
		if a.lastQuery != "" {
			a.statusbar.SetState(status.StateQuerying)
			return a, a.buildContext(a.lastQuery)
		}
	case keymap.Matches(keyStr, a.keymap.Back):
		a.focusInput = true
		return a, a.input.Focus()
	}

	return a, nil
}

// buildContext runs the retrieval pipeline off the update loop.
func (a *App) buildContext(query string) tea.Cmd {
	return func() tea.Msg {
		req := domain.ContextRequest{
			ProjectID: a.projectID,
			Query:     query,
			Compact:   a.compact,
		}
		result, err := a.ports.Context.BuildContext(a.ctx, req)
		return messages.QueryCompleted{Result: result, Err: err}
	}
}

// loadManifest fetches project statistics for the status line.
func (a *App) loadManifest() tea.Cmd {
	return func() tea.Msg {
		manifest, err := a.ports.Manifest.Get(a.ctx, a.projectID)
		return messages.ManifestLoaded{Manifest: manifest, Err: err}
	}
}

// handleQueryCompleted processes a finished pipeline run.
func (a *App) handleQueryCompleted(msg messages.QueryCompleted) {
	if msg.Err != nil {
		a.err = msg.Err
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(msg.Err.Error())
		return
	}

	a.err = nil
	a.result = msg.Result
	a.blocks.SetContext(&msg.Result.Context)
	a.statusbar.SetState(status.StateResults)
	a.statusbar.SetMessage(fmt.Sprintf("%s (%.0f%%), %d chunks, %d tokens",
		msg.Result.Intent.Kind, msg.Result.Intent.Confidence*100,
		msg.Result.Context.Metadata.TotalChunks,
		msg.Result.Context.Metadata.TotalTokens))
}

// View renders the application.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)

	title := a.styles.Title.Render("bimctx") + a.styles.Muted.Render(" · "+a.projectID)
	sections = append(sections, title, "")

	sections = append(sections, a.input.View(), "")

	if a.err != nil {
		sections = append(sections, a.styles.Error.Render("Error: "+a.err.Error()), "")
	}

	sections = append(sections, a.blocks.View(), "")
	sections = append(sections, a.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// setDimensions distributes the terminal size to the components.
func (a *App) setDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	a.input.SetWidth(width)
	a.blocks.SetDimensions(width, height-8)
	a.statusbar.SetWidth(width)
}

// Result returns the last pipeline result, if any.
func (a *App) Result() *domain.ContextResult {
	return a.result
}

// Err returns the current error, if any.
func (a *App) Err() error {
	return a.err
}

// InputFocused returns whether the query input has focus.
func (a *App) InputFocused() bool {
	return a.focusInput
}
