package main

import (
	tea "github.com/charmbracelet/bubbletea"
)

// notebookPanel is one open notebook tab. The panel is tracked from the
// moment opening starts; its notebook is nil until the async load finishes.
type notebookPanel struct {
	id   int
	path string
	nb   *notebook

	loading bool
	loadErr error

	// collapsed latches the open-time bulk collapse so it runs exactly
	// once per panel even if a duplicate ready message arrives.
	collapsed bool

	activeCell  int
	execCounter int
	footers     map[int]*cellFooter

	// regionCollapsed holds the host-side cell expand/collapse gesture
	// state, keyed by cell index. Independent of source visibility.
	regionCollapsed map[int]bool
}

func (p *notebookPanel) ready() bool {
	return p != nil && !p.loading && p.loadErr == nil && p.nb != nil
}

func (p *notebookPanel) cellAt(index int) *notebookCell {
	if !p.ready() || index < 0 || index >= len(p.nb.Cells) {
		return nil
	}
	return p.nb.Cells[index]
}

func (p *notebookPanel) currentCell() *notebookCell {
	return p.cellAt(p.activeCell)
}

func (p *notebookPanel) footerFor(index int) *cellFooter {
	if p == nil {
		return nil
	}
	return p.footers[index]
}

type notebookLoadedMsg struct {
	panelID int
	nb      *notebook
	err     error
}

// docTracker owns the set of open notebook panels and knows which one is
// the current target of actions.
type docTracker struct {
	panels []*notebookPanel
	active int
	nextID int
}

func newDocTracker() *docTracker {
	return &docTracker{active: -1, nextID: 1}
}

// Add tracks a new panel for path and returns the command that loads its
// content. The panel becomes the active one immediately, mirroring how
// opening a document focuses it.
func (t *docTracker) Add(path string) (*notebookPanel, tea.Cmd) {
	p := &notebookPanel{
		id:              t.nextID,
		path:            path,
		loading:         true,
		footers:         make(map[int]*cellFooter),
		regionCollapsed: make(map[int]bool),
	}
	t.nextID++
	t.panels = append(t.panels, p)
	t.active = len(t.panels) - 1
	return p, loadNotebookCmd(p.id, path)
}

func loadNotebookCmd(panelID int, path string) tea.Cmd {
	return func() tea.Msg {
		nb, err := loadNotebook(path)
		return notebookLoadedMsg{panelID: panelID, nb: nb, err: err}
	}
}

// Current resolves the panel actions should target, or nil when nothing is
// open. When activate is set and a panel exists it is brought to the front
// first. Absence is not an error; callers no-op on nil.
func (t *docTracker) Current(activate bool) *notebookPanel {
	if t == nil || t.active < 0 || t.active >= len(t.panels) {
		return nil
	}
	p := t.panels[t.active]
	if activate {
		t.Activate(p.id)
	}
	return p
}

func (t *docTracker) Activate(panelID int) {
	for i, p := range t.panels {
		if p.id == panelID {
			t.active = i
			return
		}
	}
}

func (t *docTracker) PanelByID(panelID int) *notebookPanel {
	for _, p := range t.panels {
		if p.id == panelID {
			return p
		}
	}
	return nil
}

func (t *docTracker) CycleActive(delta int) {
	if len(t.panels) == 0 {
		return
	}
	t.active = ((t.active+delta)%len(t.panels) + len(t.panels)) % len(t.panels)
}

func (t *docTracker) Len() int {
	if t == nil {
		return 0
	}
	return len(t.panels)
}

// HandleLoaded resolves a finished load against its panel and applies the
// open-time policy. Messages for panels that were closed meanwhile are
// dropped.
func (t *docTracker) HandleLoaded(msg notebookLoadedMsg, reg *actionRegistry) *notebookPanel {
	p := t.PanelByID(msg.panelID)
	if p == nil {
		return nil
	}
	p.loading = false
	if msg.err != nil {
		p.loadErr = msg.err
		return p
	}
	p.nb = msg.nb
	applyLoadPolicy(p, reg)
	return p
}

// applyLoadPolicy is the collapse-on-open behavior: once a panel's content
// is ready, hide source for every code cell, document-wide, exactly once.
// It also attaches a footer to each code cell; footers live as long as the
// panel that owns them.
func applyLoadPolicy(p *notebookPanel, reg *actionRegistry) {
	if p == nil || !p.ready() {
		return
	}
	if !p.collapsed {
		hideAllCode(p.nb)
		p.collapsed = true
	}
	for i, cell := range p.nb.Cells {
		if !cell.IsCode() {
			continue
		}
		if _, ok := p.footers[i]; !ok {
			p.footers[i] = newCellFooter(i, reg)
		}
	}
}

// hideAllCode is the document-scoped bulk effect: one pass over the cells,
// code cells end hidden, everything else untouched.
func hideAllCode(nb *notebook) {
	if nb == nil {
		return
	}
	for _, cell := range nb.Cells {
		if cell.IsCode() {
			cell.Metadata.SourceHidden = true
		}
	}
}
