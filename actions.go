package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Action identifiers. These are the stable names footer buttons, key
// bindings, and programmatic callers all dispatch through.
const (
	actionRunCell     = "run-cell"
	actionHideCode    = "hide-code"
	actionShowCode    = "show-code"
	actionClearOutput = "clear-output"
	actionCopySource  = "copy-source"
)

type actionArgs map[string]string

type actionEntry struct {
	label   string
	run     func(actionArgs) tea.Cmd
	enabled func() bool
}

type unknownActionError struct {
	id string
}

func (e unknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.id)
}

// actionRegistry maps action identifiers to handlers. It is constructed once
// at startup and shared by reference; all access happens on the event loop.
type actionRegistry struct {
	entries map[string]actionEntry
}

func newActionRegistry() *actionRegistry {
	return &actionRegistry{entries: make(map[string]actionEntry)}
}

// Register stores the entry for id, replacing any prior entry.
func (r *actionRegistry) Register(id string, entry actionEntry) {
	r.entries[id] = entry
}

// Dispatch invokes the handler registered under id. Enablement is advisory
// for the UI and is not consulted here.
func (r *actionRegistry) Dispatch(id string, args actionArgs) (tea.Cmd, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, unknownActionError{id: id}
	}
	if entry.run == nil {
		return nil, nil
	}
	return entry.run(args), nil
}

// Enabled evaluates the enablement predicate for id. The predicate runs
// fresh on every call; its result is never cached.
func (r *actionRegistry) Enabled(id string) (bool, error) {
	entry, ok := r.entries[id]
	if !ok {
		return false, unknownActionError{id: id}
	}
	if entry.enabled == nil {
		return true, nil
	}
	return entry.enabled(), nil
}

func (r *actionRegistry) Label(id string) string {
	if entry, ok := r.entries[id]; ok {
		return entry.label
	}
	return id
}

func (r *actionRegistry) Has(id string) bool {
	_, ok := r.entries[id]
	return ok
}
