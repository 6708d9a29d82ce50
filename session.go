package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/creack/pty"
)

// cellRunRequest is one queued execution of a code cell's source.
type cellRunRequest struct {
	panelID   int
	cellIndex int
	command   string
	args      []string
	source    string
	suffix    string
	dir       string
}

type sessionMsg interface {
	isSession()
	session() (panelID, cellIndex int)
}

type cellRunStartedMsg struct {
	PanelID int
	Cell    int
}

func (cellRunStartedMsg) isSession()            {}
func (m cellRunStartedMsg) session() (int, int) { return m.PanelID, m.Cell }

type cellOutputMsg struct {
	PanelID int
	Cell    int
	Line    string
}

func (cellOutputMsg) isSession()            {}
func (m cellOutputMsg) session() (int, int) { return m.PanelID, m.Cell }

type cellRunFinishedMsg struct {
	PanelID int
	Cell    int
	Err     error
}

func (cellRunFinishedMsg) isSession()            {}
func (m cellRunFinishedMsg) session() (int, int) { return m.PanelID, m.Cell }

type sessionClosedMsg struct{}

func (sessionClosedMsg) isSession()          {}
func (sessionClosedMsg) session() (int, int) { return 0, 0 }

// sessionRunner executes cell runs one at a time, FIFO. start is a seam so
// tests can observe scheduling without spawning a pty.
type sessionRunner struct {
	queue   []cellRunRequest
	current *cellRunRequest
	ch      chan sessionMsg
	running bool
	runs    int
	start   func(cellRunRequest, chan<- sessionMsg)
}

func newSessionRunner() *sessionRunner {
	return &sessionRunner{start: runCellSource}
}

func (sr *sessionRunner) Enqueue(req cellRunRequest) tea.Cmd {
	sr.queue = append(sr.queue, req)
	return sr.nextCmd()
}

func (sr *sessionRunner) Busy() bool {
	return sr.running
}

// Handle keeps the message pump alive: intermediate messages re-arm the
// wait on the current run's channel, terminal ones advance the queue.
func (sr *sessionRunner) Handle(msg sessionMsg) tea.Cmd {
	switch msg.(type) {
	case cellRunStartedMsg, cellOutputMsg:
		if sr.ch == nil {
			return nil
		}
		return waitForSessionMsg(sr.ch)
	case cellRunFinishedMsg, sessionClosedMsg:
		sr.running = false
		sr.current = nil
		sr.ch = nil
		return sr.nextCmd()
	}
	return nil
}

func (sr *sessionRunner) nextCmd() tea.Cmd {
	if sr.running || len(sr.queue) == 0 {
		return nil
	}
	req := sr.queue[0]
	sr.queue = sr.queue[1:]
	sr.current = &req
	sr.running = true
	sr.runs++

	ch := make(chan sessionMsg)
	sr.ch = ch
	go sr.start(req, ch)
	return waitForSessionMsg(ch)
}

func waitForSessionMsg(ch <-chan sessionMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return sessionClosedMsg{}
		}
		return msg
	}
}

// runCellSource writes the cell source to a scratch file and executes it
// under a pty so interpreters behave as they would interactively. Output is
// streamed back line by line.
func runCellSource(req cellRunRequest, ch chan<- sessionMsg) {
	defer close(ch)

	ch <- cellRunStartedMsg{PanelID: req.panelID, Cell: req.cellIndex}

	scratch, err := os.CreateTemp("", "nbfold-cell-*"+req.suffix)
	if err != nil {
		ch <- cellOutputMsg{PanelID: req.panelID, Cell: req.cellIndex, Line: err.Error()}
		ch <- cellRunFinishedMsg{PanelID: req.panelID, Cell: req.cellIndex, Err: err}
		return
	}
	defer os.Remove(scratch.Name())
	if _, err := scratch.WriteString(req.source); err != nil {
		scratch.Close()
		ch <- cellRunFinishedMsg{PanelID: req.panelID, Cell: req.cellIndex, Err: err}
		return
	}
	if err := scratch.Close(); err != nil {
		ch <- cellRunFinishedMsg{PanelID: req.panelID, Cell: req.cellIndex, Err: err}
		return
	}

	args := append(append([]string{}, req.args...), scratch.Name())
	cmd := exec.Command(req.command, args...)
	if req.dir != "" {
		cmd.Dir = req.dir
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		ch <- cellOutputMsg{PanelID: req.panelID, Cell: req.cellIndex, Line: err.Error()}
		ch <- cellRunFinishedMsg{PanelID: req.panelID, Cell: req.cellIndex, Err: err}
		return
	}
	defer ptmx.Close()

	scanner := bufio.NewScanner(ptmx)
	for scanner.Scan() {
		ch <- cellOutputMsg{PanelID: req.panelID, Cell: req.cellIndex, Line: scanner.Text()}
	}

	err = cmd.Wait()
	ch <- cellRunFinishedMsg{PanelID: req.panelID, Cell: req.cellIndex, Err: err}
}

// scriptSuffix picks a scratch-file extension so interpreters that care
// about extensions (python tracebacks, shell shebang-less exec) behave.
func scriptSuffix(command string) string {
	switch command {
	case "python3", "python":
		return ".py"
	case "bash", "sh":
		return ".sh"
	default:
		return ""
	}
}

func runRequestFor(p *notebookPanel, cellIndex int) (cellRunRequest, error) {
	cell := p.cellAt(cellIndex)
	if cell == nil || !cell.IsCode() {
		return cellRunRequest{}, fmt.Errorf("cell %d is not runnable", cellIndex)
	}
	command, args := interpreterFor(p.nb.Language())
	return cellRunRequest{
		panelID:   p.id,
		cellIndex: cellIndex,
		command:   command,
		args:      args,
		source:    cell.SourceText(),
		suffix:    scriptSuffix(command),
	}, nil
}
