package main

import (
	"testing"
	"time"
)

func channelStart(started chan int) func(cellRunRequest, chan<- sessionMsg) {
	return func(req cellRunRequest, ch chan<- sessionMsg) {
		started <- req.cellIndex
		close(ch)
	}
}

func expectStart(t *testing.T, started chan int, want int) {
	t.Helper()
	select {
	case got := <-started:
		if got != want {
			t.Fatalf("started cell %d, want %d", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cell %d never started", want)
	}
}

func expectIdle(t *testing.T, started chan int) {
	t.Helper()
	select {
	case got := <-started:
		t.Fatalf("unexpected start of cell %d", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunnerRunsOneAtATime(t *testing.T) {
	started := make(chan int, 4)
	runner := newSessionRunner()
	runner.start = channelStart(started)

	if cmd := runner.Enqueue(cellRunRequest{panelID: 1, cellIndex: 0}); cmd == nil {
		t.Fatal("first enqueue should start immediately")
	}
	expectStart(t, started, 0)
	if !runner.Busy() {
		t.Fatal("runner should be busy")
	}

	if cmd := runner.Enqueue(cellRunRequest{panelID: 1, cellIndex: 1}); cmd != nil {
		t.Fatal("second enqueue must wait for the first to finish")
	}
	if len(runner.queue) != 1 {
		t.Fatalf("expected one queued request, got %d", len(runner.queue))
	}
	expectIdle(t, started)
}

func TestRunnerAdvancesQueueOnFinish(t *testing.T) {
	started := make(chan int, 4)
	runner := newSessionRunner()
	runner.start = channelStart(started)

	runner.Enqueue(cellRunRequest{panelID: 1, cellIndex: 0})
	expectStart(t, started, 0)
	runner.Enqueue(cellRunRequest{panelID: 1, cellIndex: 1})

	if cmd := runner.Handle(cellRunFinishedMsg{PanelID: 1, Cell: 0}); cmd == nil {
		t.Fatal("finishing a run should start the next queued one")
	}
	expectStart(t, started, 1)

	if cmd := runner.Handle(cellRunFinishedMsg{PanelID: 1, Cell: 1}); cmd != nil {
		t.Fatal("nothing left to start")
	}
	if runner.Busy() {
		t.Fatal("runner should be idle")
	}
}

func TestRunnerRecoversFromClosedChannel(t *testing.T) {
	started := make(chan int, 4)
	runner := newSessionRunner()
	runner.start = channelStart(started)

	runner.Enqueue(cellRunRequest{panelID: 1, cellIndex: 0})
	expectStart(t, started, 0)
	runner.Enqueue(cellRunRequest{panelID: 1, cellIndex: 1})

	if cmd := runner.Handle(sessionClosedMsg{}); cmd == nil {
		t.Fatal("a closed channel should not stall the queue")
	}
	expectStart(t, started, 1)
}

func TestRunRequestFor(t *testing.T) {
	tracker := newDocTracker()
	reg := newActionRegistry()
	p, _ := tracker.Add("mem.ipynb")
	tracker.HandleLoaded(notebookLoadedMsg{panelID: p.id, nb: testNotebook()}, reg)

	req, err := runRequestFor(p, 1)
	if err != nil {
		t.Fatalf("runRequestFor: %v", err)
	}
	if req.command != "python3" || req.suffix != ".py" {
		t.Errorf("unexpected interpreter %q %q", req.command, req.suffix)
	}
	if req.source != "print(1)\n" {
		t.Errorf("unexpected source %q", req.source)
	}

	if _, err := runRequestFor(p, 0); err == nil {
		t.Fatal("markdown cells must not be runnable")
	}
	if _, err := runRequestFor(p, 99); err == nil {
		t.Fatal("out-of-range cells must not be runnable")
	}
}
