package main

import (
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T) *model {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	m := initialModel(nil)
	m.runner.start = func(req cellRunRequest, ch chan<- sessionMsg) { close(ch) }
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m.Update(restoredMsg{cfg: &uiConfig{}, cfgPath: filepath.Join(t.TempDir(), "ui.yaml")})
	return m
}

func openSample(t *testing.T, m *model) *notebookPanel {
	t.Helper()
	cmd := m.openNotebook(filepath.Join("testdata", "sample.ipynb"))
	if cmd == nil {
		t.Fatal("openNotebook returned no load command")
	}
	m.Update(cmd())
	p := m.tracker.Current(false)
	if !p.ready() {
		t.Fatalf("panel not ready: %v", p.loadErr)
	}
	return p
}

var builtinActions = []string{actionRunCell, actionHideCode, actionShowCode, actionClearOutput}

func TestEnablementTracksActiveDocument(t *testing.T) {
	m := newTestModel(t)

	for _, id := range builtinActions {
		enabled, err := m.registry.Enabled(id)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if enabled {
			t.Errorf("%s must be disabled with no document tracked", id)
		}
	}

	openSample(t, m)
	for _, id := range builtinActions {
		if enabled, _ := m.registry.Enabled(id); !enabled {
			t.Errorf("%s must be enabled with an active document", id)
		}
	}

	m.shell = widgetRecent
	for _, id := range builtinActions {
		if enabled, _ := m.registry.Enabled(id); enabled {
			t.Errorf("%s must be disabled when the notebook surface is not current", id)
		}
	}
}

func TestDispatchWithoutDocumentIsNoop(t *testing.T) {
	m := newTestModel(t)

	for _, id := range builtinActions {
		cmd, err := m.registry.Dispatch(id, nil)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if cmd != nil {
			t.Errorf("%s should produce no work with no document", id)
		}
	}
	if m.runner.runs != 0 {
		t.Fatal("no cell run may be scheduled without a document")
	}
}

func TestDispatchBeforeRestoreFails(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	m := initialModel(nil)

	_, err := m.registry.Dispatch(actionRunCell, nil)
	var unknown unknownActionError
	if !errors.As(err, &unknown) {
		t.Fatalf("actions must be unregistered before restore, got %v", err)
	}
}

func TestHideAndShowCodeActions(t *testing.T) {
	m := newTestModel(t)
	p := openSample(t, m)
	p.activeCell = 1

	cell := p.cellAt(1)
	if !cell.Metadata.SourceHidden {
		t.Fatal("code cell should start hidden after the load policy")
	}

	if _, err := m.registry.Dispatch(actionShowCode, nil); err != nil {
		t.Fatalf("show-code: %v", err)
	}
	if cell.Metadata.SourceHidden {
		t.Fatal("show-code should reveal the source")
	}

	if _, err := m.registry.Dispatch(actionHideCode, nil); err != nil {
		t.Fatalf("hide-code: %v", err)
	}
	if !cell.Metadata.SourceHidden {
		t.Fatal("hide-code should hide the source")
	}
}

func TestVisibilityActionsIgnoreNonCodeCells(t *testing.T) {
	m := newTestModel(t)
	p := openSample(t, m)
	p.activeCell = 0

	if _, err := m.registry.Dispatch(actionHideCode, nil); err != nil {
		t.Fatalf("hide-code: %v", err)
	}
	if p.cellAt(0).Metadata.SourceHidden {
		t.Fatal("markdown cells must not be hidden")
	}
}

func TestClearOutputAction(t *testing.T) {
	m := newTestModel(t)
	p := openSample(t, m)
	p.activeCell = 1

	if len(p.cellAt(1).Outputs) == 0 {
		t.Fatal("fixture cell should carry outputs")
	}
	if _, err := m.registry.Dispatch(actionClearOutput, nil); err != nil {
		t.Fatalf("clear-output: %v", err)
	}
	if len(p.cellAt(1).Outputs) != 0 {
		t.Fatal("outputs not cleared")
	}
}

func TestRunCellActionQueuesExecution(t *testing.T) {
	m := newTestModel(t)
	p := openSample(t, m)
	p.activeCell = 2

	cmd, err := m.registry.Dispatch(actionRunCell, nil)
	if err != nil {
		t.Fatalf("run-cell: %v", err)
	}
	if cmd == nil {
		t.Fatal("run-cell should schedule work")
	}
	if m.runner.runs != 1 {
		t.Fatalf("expected one scheduled run, got %d", m.runner.runs)
	}
}

func TestCellArgumentOverridesActiveCell(t *testing.T) {
	m := newTestModel(t)
	p := openSample(t, m)
	p.activeCell = 1

	if _, err := m.registry.Dispatch(actionShowCode, actionArgs{"cell": "3"}); err != nil {
		t.Fatalf("show-code: %v", err)
	}
	if p.cellAt(3).Metadata.SourceHidden {
		t.Fatal("targeted cell should be revealed")
	}
	if !p.cellAt(1).Metadata.SourceHidden {
		t.Fatal("active cell must be untouched when a cell argument is given")
	}
}

func footerScreenLine(t *testing.T, m *model, cellIndex int) int {
	t.Helper()
	for i, region := range m.cellCol.regions {
		if region.target == targetFooter && region.cellIndex == cellIndex {
			return m.contentTop + i - m.cellCol.ScrollOffset()
		}
	}
	t.Fatalf("no footer line for cell %d", cellIndex)
	return -1
}

func TestFooterClickDoesNotFoldCell(t *testing.T) {
	m := newTestModel(t)
	p := openSample(t, m)

	footer := p.footerFor(1)
	if footer == nil {
		t.Fatal("cell 1 should have a footer")
	}
	y := footerScreenLine(t, m, 1)

	// Click past every button: consumed by the strip, so the host fold
	// gesture must not fire.
	x := footerIndent + footer.buttons[len(footer.buttons)-1].end + 5
	m.Update(tea.MouseMsg{X: x, Y: y, Type: tea.MouseLeft})
	if p.regionCollapsed[1] {
		t.Fatal("footer clicks must never trigger the cell fold gesture")
	}

	// Control: a header click does fold.
	headerY := m.contentTop + m.cellCol.headerLine(1) - m.cellCol.ScrollOffset()
	m.Update(tea.MouseMsg{X: 1, Y: headerY, Type: tea.MouseLeft})
	if !p.regionCollapsed[1] {
		t.Fatal("header click should fold the cell")
	}
}

func TestFooterToggleClickRevealsSource(t *testing.T) {
	m := newTestModel(t)
	p := openSample(t, m)

	footer := p.footerFor(1)
	y := footerScreenLine(t, m, 1)
	toggle := footer.buttons[1]

	m.Update(tea.MouseMsg{X: footerIndent + toggle.start, Y: y, Type: tea.MouseLeft})
	if !footer.codeVisible {
		t.Fatal("toggle click should flip the footer state")
	}
	if p.cellAt(1).Metadata.SourceHidden {
		t.Fatal("toggle click should dispatch show-code against the cell")
	}

	y = footerScreenLine(t, m, 1)
	toggle = footer.buttons[1]
	m.Update(tea.MouseMsg{X: footerIndent + toggle.start, Y: y, Type: tea.MouseLeft})
	if footer.codeVisible {
		t.Fatal("second click should return to the initial state")
	}
	if !p.cellAt(1).Metadata.SourceHidden {
		t.Fatal("second click should dispatch hide-code")
	}
}

func TestKeyboardToggleLeavesFooterIconStale(t *testing.T) {
	m := newTestModel(t)
	p := openSample(t, m)
	p.activeCell = 1
	footer := p.footerFor(1)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	if p.cellAt(1).Metadata.SourceHidden {
		t.Fatal("keyboard toggle should reveal the source")
	}
	// The footer caches its own state and is not reconciled against the
	// cell flag; the icon stays on the show affordance.
	if footer.codeVisible {
		t.Fatal("footer state must not track keyboard-driven visibility changes")
	}
}

func TestEnterFoldsActiveCell(t *testing.T) {
	m := newTestModel(t)
	p := openSample(t, m)
	p.activeCell = 1

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !p.regionCollapsed[1] {
		t.Fatal("enter should fold the active cell")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if p.regionCollapsed[1] {
		t.Fatal("enter should unfold on the second press")
	}
}

func TestCellNavigationClamps(t *testing.T) {
	m := newTestModel(t)
	p := openSample(t, m)

	m.moveActiveCell(-1)
	if p.activeCell != 0 {
		t.Fatal("navigation must clamp at the first cell")
	}
	for i := 0; i < 10; i++ {
		m.moveActiveCell(1)
	}
	if p.activeCell != len(p.nb.Cells)-1 {
		t.Fatal("navigation must clamp at the last cell")
	}
}

func TestSessionOutputAppendsToCell(t *testing.T) {
	m := newTestModel(t)
	p := openSample(t, m)
	p.cellAt(2).ClearOutputs()

	m.Update(cellOutputMsg{PanelID: p.id, Cell: 2, Line: "42"})
	if lines := p.cellAt(2).OutputLines(); len(lines) != 1 || lines[0] != "42" {
		t.Fatalf("unexpected outputs: %v", lines)
	}

	m.Update(cellRunFinishedMsg{PanelID: p.id, Cell: 2})
	if p.cellAt(2).ExecutionCount == nil || *p.cellAt(2).ExecutionCount != 1 {
		t.Fatal("finished run should stamp the execution counter")
	}
}
