package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type lineTarget int

const (
	targetNone lineTarget = iota
	targetHeader
	targetFooter
)

// cellRegion maps one rendered content line back to the cell it belongs to,
// so mouse clicks can be routed to headers and footer strips.
type cellRegion struct {
	cellIndex int
	target    lineTarget
	indent    int
}

const (
	footerIndent     = 2
	maxOutputLines   = 50
	outputTruncation = "… output truncated"
)

// cellColumn renders a panel's cells into a scrollable viewport and keeps
// the per-line hit regions from the last refresh.
type cellColumn struct {
	vp      viewport.Model
	width   int
	height  int
	regions []cellRegion
}

func newCellColumn() *cellColumn {
	vp := viewport.New(0, 0)
	return &cellColumn{vp: vp}
}

func (c *cellColumn) SetSize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c.width = width
	c.height = height
	c.vp.Width = width
	c.vp.Height = height
}

func (c *cellColumn) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.vp, cmd = c.vp.Update(msg)
	return cmd
}

func (c *cellColumn) View() string {
	return c.vp.View()
}

func (c *cellColumn) ScrollOffset() int {
	return c.vp.YOffset
}

// TargetAt resolves a content-line index (scroll already applied by the
// caller) to the region rendered there.
func (c *cellColumn) TargetAt(line int) (cellRegion, bool) {
	if line < 0 || line >= len(c.regions) {
		return cellRegion{}, false
	}
	region := c.regions[line]
	if region.target == targetNone {
		return cellRegion{}, false
	}
	return region, true
}

// Refresh rebuilds the rendered content and hit regions for the panel.
func (c *cellColumn) Refresh(p *notebookPanel, s styles) {
	var lines []string
	var regions []cellRegion

	push := func(text string, region cellRegion) {
		lines = append(lines, text)
		regions = append(regions, region)
	}

	switch {
	case p == nil:
		push(s.statusHint.Render("No notebook open."), cellRegion{target: targetNone})
	case p.loading:
		push(s.statusHint.Render("Loading "+abbreviatePath(p.path)+" …"), cellRegion{target: targetNone})
	case p.loadErr != nil:
		push(s.toast.Render("Failed to open: "+p.loadErr.Error()), cellRegion{target: targetNone})
	default:
		for i, cell := range p.nb.Cells {
			c.renderCell(p, i, cell, s, push)
		}
	}

	c.regions = regions
	c.vp.SetContent(strings.Join(lines, "\n"))
}

func (c *cellColumn) renderCell(p *notebookPanel, index int, cell *notebookCell, s styles, push func(string, cellRegion)) {
	headerStyle := s.cellHeader
	if index == p.activeCell {
		headerStyle = s.cellHeaderActive
	}
	marker := "▾"
	if p.regionCollapsed[index] {
		marker = "▸"
	}
	badge := ""
	if cell.IsCode() {
		if cell.ExecutionCount != nil {
			badge = fmt.Sprintf("[%d] ", *cell.ExecutionCount)
		} else {
			badge = "[ ] "
		}
	}
	header := fmt.Sprintf("%s %s%s", marker, badge, cell.Type)
	push(headerStyle.Render(header), cellRegion{cellIndex: index, target: targetHeader})

	if !p.regionCollapsed[index] {
		c.renderCellBody(index, cell, s, push)
	}

	if footer := p.footerFor(index); footer != nil {
		line := strings.Repeat(" ", footerIndent) + footer.Render(s)
		push(line, cellRegion{cellIndex: index, target: targetFooter, indent: footerIndent})
	}

	push("", cellRegion{target: targetNone})
}

func (c *cellColumn) renderCellBody(index int, cell *notebookCell, s styles, push func(string, cellRegion)) {
	body := cellRegion{cellIndex: index, target: targetNone}

	switch cell.Type {
	case cellTypeMarkdown:
		rendered := strings.TrimRight(RenderMarkdown(cell.SourceText()), "\n")
		if rendered != "" {
			for _, line := range strings.Split(rendered, "\n") {
				push(line, body)
			}
		}
	case cellTypeCode:
		if cell.Metadata.SourceHidden {
			count := len(cell.SourceLines())
			noun := "lines"
			if count == 1 {
				noun = "line"
			}
			push(s.sourceHidden.Render(fmt.Sprintf("⋯ code hidden (%d %s)", count, noun)), body)
		} else if src := strings.Join(cell.SourceLines(), "\n"); src != "" {
			rendered := s.source.Render(src)
			for _, line := range strings.Split(rendered, "\n") {
				push(line, body)
			}
		}
		outputs := cell.OutputLines()
		if len(outputs) > maxOutputLines {
			outputs = append(outputs[:maxOutputLines:maxOutputLines], outputTruncation)
		}
		for _, line := range outputs {
			push(s.output.Render(line), body)
		}
	default:
		for _, line := range cell.SourceLines() {
			push(s.listItem.Render(line), body)
		}
	}
}

// ScrollToCell keeps the active cell's header in view after navigation.
func (c *cellColumn) ScrollToCell(index int) {
	line := c.headerLine(index)
	if line < 0 {
		return
	}
	if line < c.vp.YOffset {
		c.vp.SetYOffset(line)
	} else if line >= c.vp.YOffset+c.vp.Height {
		c.vp.SetYOffset(line - c.vp.Height + 1)
	}
}

func (c *cellColumn) headerLine(index int) int {
	for i, region := range c.regions {
		if region.target == targetHeader && region.cellIndex == index {
			return i
		}
	}
	return -1
}
