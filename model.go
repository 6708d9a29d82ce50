package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// shellWidget identifies which top-level surface is current. Action
// enablement requires the notebook surface to be the current one.
type shellWidget int

const (
	widgetRecent shellWidget = iota
	widgetNotebook
)

// restoredMsg completes the startup restore step. Actions are registered
// only once this arrives; dispatches before then fail with
// unknownActionError.
type restoredMsg struct {
	cfg      *uiConfig
	cfgPath  string
	store    *recentStore
	recent   []recentEntry
	storeErr error
}

type recentItem struct {
	entry recentEntry
}

func (i recentItem) Title() string       { return i.entry.Label }
func (i recentItem) Description() string { return abbreviatePath(i.entry.Path) }
func (i recentItem) FilterValue() string { return i.entry.Path }

type keyMap struct {
	Quit        key.Binding
	NextTab     key.Binding
	PrevTab     key.Binding
	CellDown    key.Binding
	CellUp      key.Binding
	RunCell     key.Binding
	ToggleCode  key.Binding
	ClearOutput key.Binding
	CopySource  key.Binding
	Collapse    key.Binding
	Save        key.Binding
	Theme       key.Binding
	Help        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		NextTab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next notebook")),
		PrevTab:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev notebook")),
		CellDown:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "next cell")),
		CellUp:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "prev cell")),
		RunCell:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "run cell")),
		ToggleCode:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "show/hide code")),
		ClearOutput: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear output")),
		CopySource:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy source")),
		Collapse:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "fold cell")),
		Save:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save notebook")),
		Theme:       key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "markdown theme")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.RunCell, k.ToggleCode, k.ClearOutput, k.Collapse, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.CellDown, k.CellUp, k.Collapse, k.NextTab, k.PrevTab},
		{k.RunCell, k.ToggleCode, k.ClearOutput, k.CopySource, k.Save},
		{k.Theme, k.Help, k.Quit},
	}
}

type model struct {
	width  int
	height int

	styles styles
	keys   keyMap
	help   help.Model

	registry *actionRegistry
	tracker  *docTracker
	runner   *sessionRunner
	cellCol  *cellColumn

	shell      shellWidget
	recentList list.Model

	restored     bool
	pendingPaths []string

	uiConfig     *uiConfig
	uiConfigPath string
	store        *recentStore
	telemetry    *telemetryLogger

	markdownTheme markdownTheme

	spinner       spinner.Model
	spinnerActive bool

	runningCells map[int]map[int]bool

	toastMessage string
	toastExpires time.Time
	lastStatus   string

	contentTop int
}

func initialModel(paths []string) *model {
	s := newStyles()
	m := &model{
		styles:        s,
		keys:          newKeyMap(),
		help:          help.New(),
		registry:      newActionRegistry(),
		tracker:       newDocTracker(),
		runner:        newSessionRunner(),
		cellCol:       newCellColumn(),
		pendingPaths:  paths,
		markdownTheme: currentMarkdownTheme(),
		runningCells:  make(map[int]map[int]bool),
		telemetry:     newTelemetryLogger(filepath.Join(resolveConfigDir(), "ui-events.ndjson")),
	}

	m.help.ShortSeparator = " │ "
	m.help.Styles.ShortKey = m.styles.statusHint.Copy()
	m.help.Styles.ShortDesc = m.styles.statusHint.Copy()
	m.help.Styles.ShortSeparator = m.styles.statusSeg.Copy()

	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.spinner.Style = m.styles.statusHint.Copy().Bold(true)

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = m.styles.listSel.Foreground(palette.accent)
	delegate.Styles.SelectedDesc = m.styles.listSel.Foreground(palette.textMuted)
	m.recentList = list.New(nil, delegate, 0, 0)
	m.recentList.Title = "Recent notebooks"
	m.recentList.SetShowStatusBar(false)
	m.recentList.SetFilteringEnabled(false)

	if len(paths) > 0 {
		m.shell = widgetNotebook
	}

	return m
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, restoreCmd())
}

// restoreCmd is the one-shot startup await: config and the recent store
// load off the event loop, and actions register only once this finishes.
func restoreCmd() tea.Cmd {
	return func() tea.Msg {
		cfg, cfgPath := loadUIConfig()
		store, storeErr := openRecentStore()
		var recent []recentEntry
		if storeErr == nil {
			recent, _ = store.List()
		}
		return restoredMsg{cfg: cfg, cfgPath: cfgPath, store: store, recent: recent, storeErr: storeErr}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if tick, ok := msg.(spinner.TickMsg); ok && m.spinnerActive {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(tick)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	switch message := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = message.Width, message.Height
		m.applyLayout()
		m.refresh()
		return m, nil

	case restoredMsg:
		return m, m.handleRestored(message)

	case notebookLoadedMsg:
		p := m.tracker.HandleLoaded(message, m.registry)
		if p != nil {
			if p.loadErr != nil {
				m.setToast("Failed to open "+filepath.Base(p.path), 5*time.Second)
			} else {
				m.telemetry.Emit(telemetryEvent{Event: "notebook_open", Notebook: p.path})
			}
		}
		m.refresh()
		return m, tea.Batch(cmds...)

	case sessionMsg:
		if cmd := m.handleSessionMessage(message); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case actionErrorMsg:
		m.setToast(message.err.Error(), 5*time.Second)
		m.lastStatus = message.err.Error()
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		if cmd := m.handleMouse(message); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(message); handled {
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}
	}

	if m.shell == widgetRecent {
		var cmd tea.Cmd
		m.recentList, cmd = m.recentList.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	} else if cmd := m.cellCol.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) handleRestored(msg restoredMsg) tea.Cmd {
	m.restored = true
	m.uiConfig = msg.cfg
	m.uiConfigPath = msg.cfgPath
	m.store = msg.store
	if msg.storeErr != nil {
		m.lastStatus = "recent store unavailable: " + msg.storeErr.Error()
	}

	if msg.cfg != nil {
		if theme := strings.TrimSpace(msg.cfg.Theme); theme != "" {
			m.markdownTheme = markdownThemeFromString(theme)
			setMarkdownTheme(m.markdownTheme)
		}
		if msg.cfg.WordWrap > 0 {
			setMarkdownWordWrap(msg.cfg.WordWrap)
		}
	}

	m.registerActions()
	m.setRecentItems(msg.recent)

	var cmds []tea.Cmd
	for _, path := range m.pendingPaths {
		if cmd := m.openNotebook(path); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	m.pendingPaths = nil
	m.refresh()
	return tea.Batch(cmds...)
}

func (m *model) setRecentItems(entries []recentEntry) {
	items := make([]list.Item, 0, len(entries))
	for _, entry := range entries {
		items = append(items, recentItem{entry: entry})
	}
	m.recentList.SetItems(items)
}

func (m *model) openNotebook(path string) tea.Cmd {
	_, cmd := m.tracker.Add(path)
	if err := m.store.Touch(path); err != nil {
		m.lastStatus = "recent store: " + err.Error()
	}
	m.shell = widgetNotebook
	m.refresh()
	return cmd
}

func (m *model) handleSessionMessage(msg sessionMsg) tea.Cmd {
	var cmds []tea.Cmd

	switch message := msg.(type) {
	case cellRunStartedMsg:
		m.markRunning(message.PanelID, message.Cell, true)
		m.spinnerActive = true
		cmds = append(cmds, m.spinner.Tick)
	case cellOutputMsg:
		if p := m.tracker.PanelByID(message.PanelID); p != nil {
			p.cellAt(message.Cell).AppendOutputLine(message.Line)
		}
	case cellRunFinishedMsg:
		m.markRunning(message.PanelID, message.Cell, false)
		if p := m.tracker.PanelByID(message.PanelID); p != nil {
			if cell := p.cellAt(message.Cell); cell != nil {
				p.execCounter++
				cell.SetExecutionCount(p.execCounter)
			}
		}
		if message.Err != nil {
			m.lastStatus = fmt.Sprintf("cell %d: %v", message.Cell+1, message.Err)
		}
	}

	if cmd := m.runner.Handle(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if !m.runner.Busy() {
		m.spinnerActive = false
	}

	m.refresh()
	return tea.Batch(cmds...)
}

func (m *model) markRunning(panelID, cell int, running bool) {
	cells := m.runningCells[panelID]
	if cells == nil {
		cells = make(map[int]bool)
		m.runningCells[panelID] = cells
	}
	if running {
		cells[cell] = true
	} else {
		delete(cells, cell)
	}
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.shell == widgetRecent && m.recentList.FilterState() == list.Filtering {
			return nil, false
		}
		return tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.applyLayout()
		return nil, true
	}

	if m.shell == widgetRecent {
		if msg.String() == "enter" {
			if item, ok := m.recentList.SelectedItem().(recentItem); ok {
				return m.openNotebook(item.entry.Path), true
			}
		}
		return nil, false
	}

	p := m.tracker.Current(false)

	switch {
	case key.Matches(msg, m.keys.NextTab):
		m.tracker.CycleActive(1)
		m.refresh()
		return nil, true

	case key.Matches(msg, m.keys.PrevTab):
		m.tracker.CycleActive(-1)
		m.refresh()
		return nil, true

	case key.Matches(msg, m.keys.CellDown):
		m.moveActiveCell(1)
		return nil, true

	case key.Matches(msg, m.keys.CellUp):
		m.moveActiveCell(-1)
		return nil, true

	case key.Matches(msg, m.keys.Collapse):
		if p.ready() {
			p.regionCollapsed[p.activeCell] = !p.regionCollapsed[p.activeCell]
			m.refresh()
		}
		return nil, true

	case key.Matches(msg, m.keys.RunCell):
		return m.dispatchFromUI(actionRunCell, nil), true

	case key.Matches(msg, m.keys.ToggleCode):
		// Keyboard path toggles against the authoritative flag directly,
		// bypassing the footer's local icon state. The icon stays stale
		// until the button itself is used; matches the footer contract.
		if p.ready() {
			if cell := p.currentCell(); cell != nil && cell.IsCode() {
				id := actionHideCode
				if cell.Metadata.SourceHidden {
					id = actionShowCode
				}
				return m.dispatchFromUI(id, nil), true
			}
		}
		return nil, true

	case key.Matches(msg, m.keys.ClearOutput):
		return m.dispatchFromUI(actionClearOutput, nil), true

	case key.Matches(msg, m.keys.CopySource):
		return m.dispatchFromUI(actionCopySource, nil), true

	case key.Matches(msg, m.keys.Save):
		if p.ready() {
			if err := p.nb.Save(); err != nil {
				m.setToast("Save failed: "+err.Error(), 5*time.Second)
			} else {
				m.setToast("Saved "+filepath.Base(p.path), 3*time.Second)
			}
		}
		return nil, true

	case key.Matches(msg, m.keys.Theme):
		m.applyMarkdownTheme(nextMarkdownTheme(m.markdownTheme))
		return nil, true
	}

	return nil, false
}

// dispatchFromUI checks enablement before dispatching, the way a button
// would be greyed out. Programmatic callers go through the registry
// directly, where enablement is not enforced.
func (m *model) dispatchFromUI(id string, args actionArgs) tea.Cmd {
	enabled, err := m.registry.Enabled(id)
	if err != nil {
		m.setToast(err.Error(), 5*time.Second)
		return nil
	}
	if !enabled {
		return nil
	}
	cmd, err := m.registry.Dispatch(id, args)
	if err != nil {
		m.setToast(err.Error(), 5*time.Second)
		return nil
	}
	return cmd
}

func (m *model) moveActiveCell(delta int) {
	p := m.tracker.Current(false)
	if !p.ready() || len(p.nb.Cells) == 0 {
		return
	}
	next := p.activeCell + delta
	if next < 0 {
		next = 0
	}
	if next >= len(p.nb.Cells) {
		next = len(p.nb.Cells) - 1
	}
	if next == p.activeCell {
		return
	}
	p.activeCell = next
	m.refresh()
	m.cellCol.ScrollToCell(next)
}

func (m *model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.shell != widgetNotebook {
		return nil
	}

	switch msg.Type {
	case tea.MouseWheelUp, tea.MouseWheelDown:
		return m.cellCol.Update(msg)
	case tea.MouseLeft:
	default:
		return nil
	}

	line := msg.Y - m.contentTop + m.cellCol.ScrollOffset()
	region, ok := m.cellCol.TargetAt(line)
	if !ok {
		return nil
	}

	p := m.tracker.Current(false)
	if !p.ready() {
		return nil
	}
	p.activeCell = region.cellIndex

	switch region.target {
	case targetFooter:
		// Footer clicks are consumed whole; they never reach the header
		// fold gesture below.
		footer := p.footerFor(region.cellIndex)
		if footer == nil {
			return nil
		}
		cmd, _ := footer.Click(msg.X - region.indent)
		m.refresh()
		return cmd
	case targetHeader:
		p.regionCollapsed[region.cellIndex] = !p.regionCollapsed[region.cellIndex]
		m.refresh()
	}
	return nil
}

// registerActions populates the registry after restore. All entries share
// one enablement predicate, evaluated fresh per query: a panel is tracked
// and the notebook surface is the current widget.
func (m *model) registerActions() {
	enabled := func() bool {
		return m.tracker.Current(false) != nil && m.shell == widgetNotebook
	}

	m.registry.Register(actionRunCell, actionEntry{
		label:   "Run cell",
		enabled: enabled,
		run: func(args actionArgs) tea.Cmd {
			p := m.tracker.Current(true)
			if !p.ready() {
				return nil
			}
			idx := argCellIndex(args, p.activeCell)
			req, err := runRequestFor(p, idx)
			if err != nil {
				m.setToast(err.Error(), 4*time.Second)
				return nil
			}
			m.telemetry.EmitAction(actionRunCell, p.path, idx)
			return m.runner.Enqueue(req)
		},
	})

	m.registry.Register(actionHideCode, actionEntry{
		label:   "Hide code",
		enabled: enabled,
		run: func(args actionArgs) tea.Cmd {
			m.setCellVisibility(args, true)
			return nil
		},
	})

	m.registry.Register(actionShowCode, actionEntry{
		label:   "Show code",
		enabled: enabled,
		run: func(args actionArgs) tea.Cmd {
			m.setCellVisibility(args, false)
			return nil
		},
	})

	m.registry.Register(actionClearOutput, actionEntry{
		label:   "Clear output",
		enabled: enabled,
		run: func(args actionArgs) tea.Cmd {
			p := m.tracker.Current(true)
			if !p.ready() {
				return nil
			}
			idx := argCellIndex(args, p.activeCell)
			if cell := p.cellAt(idx); cell != nil && cell.IsCode() {
				cell.ClearOutputs()
				m.telemetry.EmitAction(actionClearOutput, p.path, idx)
				m.refresh()
			}
			return nil
		},
	})

	m.registry.Register(actionCopySource, actionEntry{
		label:   "Copy source",
		enabled: enabled,
		run: func(args actionArgs) tea.Cmd {
			p := m.tracker.Current(true)
			if !p.ready() {
				return nil
			}
			idx := argCellIndex(args, p.activeCell)
			cell := p.cellAt(idx)
			if cell == nil {
				return nil
			}
			if err := clipboard.WriteAll(cell.SourceText()); err != nil {
				m.setToast("Clipboard unavailable", 4*time.Second)
				return nil
			}
			m.telemetry.EmitAction(actionCopySource, p.path, idx)
			m.setToast("Source copied to clipboard", 3*time.Second)
			return nil
		},
	})
}

func (m *model) setCellVisibility(args actionArgs, hidden bool) {
	p := m.tracker.Current(true)
	if !p.ready() {
		return
	}
	idx := argCellIndex(args, p.activeCell)
	cell := p.cellAt(idx)
	if cell == nil || !cell.IsCode() {
		return
	}
	cell.Metadata.SourceHidden = hidden
	id := actionShowCode
	if hidden {
		id = actionHideCode
	}
	m.telemetry.EmitAction(id, p.path, idx)
	m.refresh()
}

func argCellIndex(args actionArgs, fallback int) int {
	if args == nil {
		return fallback
	}
	raw, ok := args["cell"]
	if !ok {
		return fallback
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return idx
}

func (m *model) applyMarkdownTheme(theme markdownTheme) {
	m.markdownTheme = theme
	setMarkdownTheme(theme)
	if m.uiConfig != nil {
		m.uiConfig.Theme = theme.String()
		_ = saveUIConfig(m.uiConfig, m.uiConfigPath)
	}
	m.setToast("Markdown theme: "+theme.String(), 3*time.Second)
	m.refresh()
}

func (m *model) applyLayout() {
	m.contentTop = 2
	bottom := 2
	if m.help.ShowAll {
		bottom = 4
	}
	colHeight := m.height - m.contentTop - bottom
	if colHeight < 0 {
		colHeight = 0
	}
	m.cellCol.SetSize(m.width, colHeight)
	m.recentList.SetSize(m.width, colHeight)

	wrap := m.width - 6
	if m.uiConfig != nil && m.uiConfig.WordWrap > 0 && m.uiConfig.WordWrap < wrap {
		wrap = m.uiConfig.WordWrap
	}
	setMarkdownWordWrap(wrap)
}

func (m *model) refresh() {
	m.cellCol.Refresh(m.tracker.Current(false), m.styles)
}

func (m *model) setToast(msg string, duration time.Duration) {
	trimmed := strings.TrimSpace(msg)
	if trimmed == "" {
		m.toastMessage = ""
		m.toastExpires = time.Time{}
		return
	}
	if duration <= 0 {
		duration = 5 * time.Second
	}
	m.toastMessage = trimmed
	m.toastExpires = time.Now().Add(duration)
}

func (m *model) View() string {
	var builder strings.Builder

	helpWidth := m.width - 4
	if helpWidth < 0 {
		helpWidth = 0
	}
	m.help.Width = helpWidth

	title := "nbfold"
	if p := m.tracker.Current(false); p != nil {
		title += " • " + abbreviatePath(p.path)
	}
	builder.WriteString(m.styles.topBar.Width(m.width).Render(title))
	builder.WriteRune('\n')

	builder.WriteString(m.renderTabs())
	builder.WriteRune('\n')

	if m.shell == widgetRecent {
		builder.WriteString(m.recentList.View())
	} else {
		builder.WriteString(m.cellCol.View())
	}
	builder.WriteRune('\n')

	if helpView := m.help.View(m.keys); helpView != "" {
		builder.WriteString(helpView)
		if !strings.HasSuffix(helpView, "\n") {
			builder.WriteRune('\n')
		}
	}

	builder.WriteString(m.renderStatus())

	return m.styles.app.Render(builder.String())
}

func (m *model) renderTabs() string {
	if m.tracker.Len() == 0 {
		return m.styles.tabsRow.Render(m.styles.statusHint.Render("no notebooks open"))
	}
	var tabs []string
	active := m.tracker.Current(false)
	for _, p := range m.tracker.panels {
		label := filepath.Base(p.path)
		if p.loading {
			label += " …"
		}
		if active != nil && p.id == active.id {
			tabs = append(tabs, m.styles.tabActive.Render(label))
		} else {
			tabs = append(tabs, m.styles.tabInactive.Render(label))
		}
	}
	return m.styles.tabsRow.Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

func (m *model) renderStatus() string {
	var segments []string

	if m.spinnerActive {
		segments = append(segments, m.spinner.View()+"running")
	}
	if p := m.tracker.Current(false); p.ready() {
		segments = append(segments, fmt.Sprintf("cell %d/%d", p.activeCell+1, len(p.nb.Cells)))
	}
	if m.toastMessage != "" && time.Now().Before(m.toastExpires) {
		segments = append(segments, m.styles.toast.Render(m.toastMessage))
	} else if m.lastStatus != "" {
		segments = append(segments, m.styles.statusHint.Render(m.lastStatus))
	}

	return m.styles.statusBar.Render(strings.Join(segments, m.styles.statusSeg.Render("•")))
}
