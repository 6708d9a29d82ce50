package main

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type actionErrorMsg struct {
	err error
}

// footerButton is one rendered button with its horizontal hit span
// (terminal cells, half-open, relative to the footer line start).
type footerButton struct {
	id    string
	start int
	end   int
}

// cellFooter is the per-cell control strip. codeVisible is a local display
// cache: it starts hidden to match the open-time collapse and flips only
// when the toggle button is used. It is never read back from the cell's
// authoritative flag, so a visibility change made through another path
// leaves the icon stale until the button is clicked again.
type cellFooter struct {
	cellIndex   int
	codeVisible bool
	reg         *actionRegistry
	buttons     []footerButton
}

func newCellFooter(cellIndex int, reg *actionRegistry) *cellFooter {
	return &cellFooter{cellIndex: cellIndex, reg: reg}
}

func (f *cellFooter) args() actionArgs {
	return actionArgs{"cell": strconv.Itoa(f.cellIndex)}
}

// Toggle flips the local visibility state unconditionally and dispatches
// the matching action: show-code entering visible, hide-code entering
// hidden.
func (f *cellFooter) Toggle() (tea.Cmd, error) {
	f.codeVisible = !f.codeVisible
	id := actionHideCode
	if f.codeVisible {
		id = actionShowCode
	}
	return f.reg.Dispatch(id, f.args())
}

func (f *cellFooter) toggleCaption() string {
	if f.codeVisible {
		return "▾ hide"
	}
	return "▸ show"
}

const footerToggleID = "toggle-code"

// Render draws the strip and records button hit spans for Click.
func (f *cellFooter) Render(s styles) string {
	type slot struct {
		id      string
		caption string
	}
	slots := []slot{
		{actionRunCell, "▶ run"},
		{footerToggleID, f.toggleCaption()},
		{actionClearOutput, "⌫ clear"},
	}

	enabled := false
	if on, err := f.reg.Enabled(actionRunCell); err == nil {
		enabled = on
	}
	style := s.footerBtn
	if !enabled {
		style = s.footerBtnOff
	}

	f.buttons = f.buttons[:0]
	var b strings.Builder
	x := 0
	for i, sl := range slots {
		if i > 0 {
			b.WriteString("  ")
			x += 2
		}
		rendered := style.Render(sl.caption)
		width := lipgloss.Width(rendered)
		f.buttons = append(f.buttons, footerButton{id: sl.id, start: x, end: x + width})
		b.WriteString(rendered)
		x += width
	}
	return b.String()
}

// Click handles a mouse press at column x within the footer line. The click
// is always consumed, hit or miss, so it never falls through to the host's
// cell expand/collapse gesture.
func (f *cellFooter) Click(x int) (tea.Cmd, bool) {
	for _, btn := range f.buttons {
		if x < btn.start || x >= btn.end {
			continue
		}
		var (
			cmd tea.Cmd
			err error
		)
		if btn.id == footerToggleID {
			cmd, err = f.Toggle()
		} else {
			cmd, err = f.reg.Dispatch(btn.id, f.args())
		}
		if err != nil {
			return func() tea.Msg { return actionErrorMsg{err: err} }, true
		}
		return cmd, true
	}
	return nil, true
}
