package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	cellTypeCode     = "code"
	cellTypeMarkdown = "markdown"
	cellTypeRaw      = "raw"
)

type notebook struct {
	Cells         []*notebookCell  `json:"cells"`
	Metadata      notebookMetadata `json:"metadata"`
	NBFormat      int              `json:"nbformat"`
	NBFormatMinor int              `json:"nbformat_minor"`

	path string
}

type notebookMetadata struct {
	Kernelspec   kernelspec   `json:"kernelspec,omitempty"`
	LanguageInfo languageInfo `json:"language_info,omitempty"`
}

type kernelspec struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Language    string `json:"language,omitempty"`
}

type languageInfo struct {
	Name string `json:"name,omitempty"`
}

type notebookCell struct {
	Type           string       `json:"cell_type"`
	Source         []string     `json:"source"`
	Metadata       cellMetadata `json:"metadata"`
	Outputs        []cellOutput `json:"outputs,omitempty"`
	ExecutionCount *int         `json:"execution_count,omitempty"`
}

type cellMetadata struct {
	// SourceHidden is the authoritative visibility flag the view renders
	// against. The footer's toggle state is a separate display cache.
	SourceHidden bool `json:"source_hidden,omitempty"`
}

type cellOutput struct {
	OutputType string   `json:"output_type"`
	Name       string   `json:"name,omitempty"`
	Text       []string `json:"text,omitempty"`
}

func loadNotebook(path string) (*notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var nb notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	nb.path = path
	for _, cell := range nb.Cells {
		if cell.Type == "" {
			cell.Type = cellTypeRaw
		}
	}
	return &nb, nil
}

func (nb *notebook) Save() error {
	if nb == nil || nb.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(nb, "", " ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(nb.path, data, 0o644)
}

func (nb *notebook) Path() string {
	if nb == nil {
		return ""
	}
	return nb.path
}

// Language reports the notebook language, preferring language_info over the
// kernelspec, defaulting to python.
func (nb *notebook) Language() string {
	if nb != nil {
		if lang := strings.TrimSpace(nb.Metadata.LanguageInfo.Name); lang != "" {
			return strings.ToLower(lang)
		}
		if lang := strings.TrimSpace(nb.Metadata.Kernelspec.Language); lang != "" {
			return strings.ToLower(lang)
		}
	}
	return "python"
}

// interpreterFor maps a notebook language to the command that can run one
// cell's source as a script. Unknown languages fall back to sh.
func interpreterFor(language string) (string, []string) {
	switch language {
	case "python", "python3":
		return "python3", nil
	case "bash":
		return "bash", nil
	case "sh", "shell":
		return "sh", nil
	default:
		return "sh", nil
	}
}

func (c *notebookCell) SourceText() string {
	if c == nil {
		return ""
	}
	return strings.Join(c.Source, "")
}

func (c *notebookCell) SourceLines() []string {
	text := strings.TrimRight(c.SourceText(), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func (c *notebookCell) IsCode() bool {
	return c != nil && c.Type == cellTypeCode
}

func (c *notebookCell) ClearOutputs() {
	if c == nil {
		return
	}
	c.Outputs = nil
	c.ExecutionCount = nil
}

func (c *notebookCell) AppendOutputLine(line string) {
	if c == nil {
		return
	}
	if n := len(c.Outputs); n > 0 && c.Outputs[n-1].OutputType == "stream" {
		c.Outputs[n-1].Text = append(c.Outputs[n-1].Text, line+"\n")
		return
	}
	c.Outputs = append(c.Outputs, cellOutput{
		OutputType: "stream",
		Name:       "stdout",
		Text:       []string{line + "\n"},
	})
}

func (c *notebookCell) OutputLines() []string {
	if c == nil {
		return nil
	}
	var lines []string
	for _, out := range c.Outputs {
		text := strings.TrimRight(strings.Join(out.Text, ""), "\n")
		if text == "" {
			continue
		}
		lines = append(lines, strings.Split(text, "\n")...)
	}
	return lines
}

func (c *notebookCell) SetExecutionCount(n int) {
	if c == nil {
		return
	}
	c.ExecutionCount = &n
}

func abbreviatePath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + strings.TrimPrefix(path, home)
	}
	return path
}
