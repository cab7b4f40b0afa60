package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBarDefaults(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Equal(t, StateReady, bar.State())
	assert.Contains(t, bar.View(), "Ready")
	assert.Contains(t, bar.View(), "quit")
}

func TestBarStates(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(120)

	bar.SetState(StateQuerying)
	assert.Contains(t, bar.View(), "Building context...")

	bar.SetState(StateError)
	bar.SetMessage("boom")
	assert.Contains(t, bar.View(), "Error: boom")

	bar.SetState(StateResults)
	bar.SetMessage("count (80%), 3 chunks, 900 tokens")
	view := bar.View()
	assert.Contains(t, view, "3 chunks")
	assert.Contains(t, view, "new query")
}

func TestBarClear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
}
