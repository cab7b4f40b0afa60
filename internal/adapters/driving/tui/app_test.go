package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantera-labs/bimctx/internal/adapters/driving/tui/messages"
	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// mockContextService is a mock implementation of driving.ContextService.
type mockContextService struct {
	result  *domain.ContextResult
	lastReq domain.ContextRequest
	err     error
}

func (m *mockContextService) BuildContext(_ context.Context, req domain.ContextRequest) (*domain.ContextResult, error) {
	m.lastReq = req
	return m.result, m.err
}

func (m *mockContextService) InvalidateProject(_ string) {}

func testResult() *domain.ContextResult {
	return &domain.ContextResult{
		Context: domain.AssembledContext{
			Header: "## Gebäudekontext",
			Blocks: []string{"### 1. Türen im 2. OG\n12 Türen"},
			Metadata: domain.ContextMetadata{
				TotalChunks: 1,
				TotalTokens: 350,
			},
		},
		Intent: domain.QueryIntent{Kind: domain.IntentCount, Confidence: 0.8},
	}
}

func newTestApp(t *testing.T, svc *mockContextService) *App {
	t.Helper()

	app, err := NewApp(&Ports{Context: svc}, "tower-a")
	require.NoError(t, err)

	// Simulate the initial window size message.
	model, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return model.(*App)
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewApp(t *testing.T) {
	t.Run("nil context service returns error", func(t *testing.T) {
		app, err := NewApp(&Ports{}, "tower-a")
		require.Error(t, err)
		assert.Nil(t, app)
		assert.ErrorIs(t, err, ErrMissingContextService)
	})

	t.Run("empty project returns error", func(t *testing.T) {
		_, err := NewApp(&Ports{Context: &mockContextService{}}, "")
		assert.ErrorIs(t, err, ErrMissingProject)
	})

	t.Run("valid ports creates app in input mode", func(t *testing.T) {
		app, err := NewApp(&Ports{Context: &mockContextService{}}, "tower-a")
		require.NoError(t, err)
		assert.True(t, app.InputFocused())
	})
}

func TestAppSubmitQuery(t *testing.T) {
	svc := &mockContextService{result: testResult()}
	app := newTestApp(t, svc)

	app.input.SetValue("Wie viele Türen gibt es?")
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)
	require.NotNil(t, cmd)
	assert.False(t, app.InputFocused())

	// Run the returned command and feed its message back.
	msg := cmd()
	completed, ok := msg.(messages.QueryCompleted)
	require.True(t, ok)
	require.NoError(t, completed.Err)

	model, _ = app.Update(completed)
	app = model.(*App)

	assert.Equal(t, "tower-a", svc.lastReq.ProjectID)
	assert.Equal(t, "Wie viele Türen gibt es?", svc.lastReq.Query)
	require.NotNil(t, app.Result())
	assert.Contains(t, app.View(), "Gebäudekontext")
	assert.NoError(t, app.Err())
}

func TestAppEmptyQueryIsIgnored(t *testing.T) {
	app := newTestApp(t, &mockContextService{})

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)

	assert.Nil(t, cmd)
	assert.True(t, app.InputFocused())
}

func TestAppQueryFailure(t *testing.T) {
	svc := &mockContextService{err: errors.New("project not found")}
	app := newTestApp(t, svc)

	app.input.SetValue("Türen")
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)
	require.NotNil(t, cmd)

	model, _ = app.Update(cmd())
	app = model.(*App)

	require.Error(t, app.Err())
	assert.Contains(t, app.View(), "project not found")
}

func TestAppNewQueryReturnsToInput(t *testing.T) {
	svc := &mockContextService{result: testResult()}
	app := newTestApp(t, svc)

	app.input.SetValue("Türen")
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)
	model, _ = app.Update(cmd())
	app = model.(*App)
	require.False(t, app.InputFocused())

	model, _ = app.Update(keyMsg("n"))
	app = model.(*App)

	assert.True(t, app.InputFocused())
	assert.Empty(t, app.input.Value())
}

func TestAppToggleCompactRerunsQuery(t *testing.T) {
	svc := &mockContextService{result: testResult()}
	app := newTestApp(t, svc)

	app.input.SetValue("Türen")
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)
	model, _ = app.Update(cmd())
	app = model.(*App)

	model, cmd = app.Update(keyMsg("c"))
	app = model.(*App)
	require.NotNil(t, cmd)

	cmd()
	assert.True(t, svc.lastReq.Compact)
	assert.True(t, app.compact)
}

func TestAppQuit(t *testing.T) {
	app := newTestApp(t, &mockContextService{})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
