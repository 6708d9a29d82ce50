// nbdump renders a notebook file to the terminal without the interactive
// UI: markdown cells through glamour, code cells with their outputs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
)

type notebook struct {
	Cells []struct {
		Type     string   `json:"cell_type"`
		Source   []string `json:"source"`
		Metadata struct {
			SourceHidden bool `json:"source_hidden,omitempty"`
		} `json:"metadata"`
		Outputs []struct {
			OutputType string   `json:"output_type"`
			Text       []string `json:"text,omitempty"`
		} `json:"outputs,omitempty"`
		ExecutionCount *int `json:"execution_count,omitempty"`
	} `json:"cells"`
}

func main() {
	style := flag.String("style", "auto", "glamour style: auto, light, or dark")
	width := flag.Int("width", 100, "render width for markdown cells")
	showHidden := flag.Bool("show-hidden", false, "render source marked hidden in cell metadata")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: nbdump [flags] NOTEBOOK...")
		os.Exit(2)
	}

	renderer, err := newRenderer(*style, *width)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	exitCode := 0
	for _, path := range flag.Args() {
		if err := dump(path, renderer, *showHidden); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func newRenderer(style string, width int) (*glamour.TermRenderer, error) {
	options := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch strings.ToLower(style) {
	case "light":
		options = append(options, glamour.WithStandardStyle("light"))
	case "dark":
		options = append(options, glamour.WithStandardStyle("dark"))
	default:
		options = append(options, glamour.WithAutoStyle())
	}
	return glamour.NewTermRenderer(options...)
}

func dump(path string, renderer *glamour.TermRenderer, showHidden bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var nb notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	for i, cell := range nb.Cells {
		source := strings.Join(cell.Source, "")
		switch cell.Type {
		case "markdown":
			rendered, err := renderer.Render(source)
			if err != nil {
				rendered = source
			}
			fmt.Print(rendered)
		case "code":
			counter := " "
			if cell.ExecutionCount != nil {
				counter = fmt.Sprintf("%d", *cell.ExecutionCount)
			}
			fmt.Printf("In [%s]:\n", counter)
			if cell.Metadata.SourceHidden && !showHidden {
				fmt.Printf("  ⋯ code hidden (%d lines)\n", strings.Count(source, "\n")+1)
			} else {
				for _, line := range strings.Split(strings.TrimRight(source, "\n"), "\n") {
					fmt.Printf("  %s\n", line)
				}
			}
			for _, out := range cell.Outputs {
				text := strings.TrimRight(strings.Join(out.Text, ""), "\n")
				if text == "" {
					continue
				}
				for _, line := range strings.Split(text, "\n") {
					fmt.Printf("  │ %s\n", line)
				}
			}
		default:
			fmt.Println(strings.TrimRight(source, "\n"))
		}
		if i < len(nb.Cells)-1 {
			fmt.Println()
		}
	}
	return nil
}
