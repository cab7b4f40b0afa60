// Package list provides the scrollable context block display for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/vantera-labs/bimctx/internal/adapters/driving/tui/styles"
	"github.com/vantera-labs/bimctx/internal/core/domain"
)

// BlockList displays the assembled context blocks with line-based
// scrolling. Blocks are read-only; navigation only moves the viewport.
type BlockList struct {
	lines  []string
	offset int
	styles *styles.Styles
	width  int
	height int
}

// NewBlockList creates a new block list component.
func NewBlockList(s *styles.Styles) *BlockList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &BlockList{
		styles: s,
		width:  80,
		height: 16,
	}
}

// SetContext loads an assembled context for display.
func (b *BlockList) SetContext(assembled *domain.AssembledContext) {
	b.offset = 0
	b.lines = nil
	if assembled == nil {
		return
	}

	if assembled.Header != "" {
		b.lines = append(b.lines, strings.Split(assembled.Header, "\n")...)
		b.lines = append(b.lines, "")
	}
	for _, block := range assembled.Blocks {
		b.lines = append(b.lines, strings.Split(block, "\n")...)
		b.lines = append(b.lines, "")
	}
}

// Clear removes the current context.
func (b *BlockList) Clear() {
	b.lines = nil
	b.offset = 0
}

// View renders the visible window of context lines.
func (b *BlockList) View() string {
	if len(b.lines) == 0 {
		return b.styles.Muted.Render("No context. Type a query and press enter.")
	}

	visible := b.visibleLines()
	end := b.offset + visible
	if end > len(b.lines) {
		end = len(b.lines)
	}

	rendered := make([]string, 0, visible+1)
	for _, line := range b.lines[b.offset:end] {
		if len(line) > b.width && b.width > 3 {
			line = line[:b.width-3] + "..."
		}
		rendered = append(rendered, b.styles.Normal.Render(line))
	}

	if end < len(b.lines) {
		more := fmt.Sprintf("... %d more lines", len(b.lines)-end)
		rendered = append(rendered, b.styles.Muted.Render(more))
	}

	return strings.Join(rendered, "\n")
}

// ScrollUp moves the viewport one line up.
func (b *BlockList) ScrollUp() {
	if b.offset > 0 {
		b.offset--
	}
}

// ScrollDown moves the viewport one line down.
func (b *BlockList) ScrollDown() {
	if b.offset < b.maxOffset() {
		b.offset++
	}
}

// Offset returns the current scroll offset.
func (b *BlockList) Offset() int {
	return b.offset
}

// LineCount returns the total number of context lines.
func (b *BlockList) LineCount() int {
	return len(b.lines)
}

// IsEmpty returns whether any context is loaded.
func (b *BlockList) IsEmpty() bool {
	return len(b.lines) == 0
}

// SetDimensions sets the component dimensions.
func (b *BlockList) SetDimensions(width, height int) {
	b.width = width
	b.height = height
	if b.offset > b.maxOffset() {
		b.offset = b.maxOffset()
	}
}

func (b *BlockList) visibleLines() int {
	visible := b.height - 1
	if visible < 1 {
		visible = 1
	}
	return visible
}

func (b *BlockList) maxOffset() int {
	max := len(b.lines) - b.visibleLines()
	if max < 0 {
		return 0
	}
	return max
}
