package main

import "github.com/charmbracelet/lipgloss"

type colorPalette struct {
	text      lipgloss.AdaptiveColor
	textMuted lipgloss.AdaptiveColor
	accent    lipgloss.AdaptiveColor
	warn      lipgloss.AdaptiveColor
	border    lipgloss.AdaptiveColor
	selection lipgloss.AdaptiveColor
}

var palette = colorPalette{
	text:      lipgloss.AdaptiveColor{Light: "235", Dark: "252"},
	textMuted: lipgloss.AdaptiveColor{Light: "243", Dark: "245"},
	accent:    lipgloss.AdaptiveColor{Light: "26", Dark: "39"},
	warn:      lipgloss.AdaptiveColor{Light: "130", Dark: "214"},
	border:    lipgloss.AdaptiveColor{Light: "250", Dark: "238"},
	selection: lipgloss.AdaptiveColor{Light: "153", Dark: "24"},
}

type styles struct {
	app, topBar                      lipgloss.Style
	tabsRow, tabActive, tabInactive  lipgloss.Style
	cellHeader, cellHeaderActive     lipgloss.Style
	cellBadge                        lipgloss.Style
	source, sourceHidden             lipgloss.Style
	output                           lipgloss.Style
	footerBtn, footerBtnOff          lipgloss.Style
	columnTitle                      lipgloss.Style
	listItem, listSel                lipgloss.Style
	statusBar, statusSeg, statusHint lipgloss.Style
	toast                            lipgloss.Style
}

func newStyles() styles {
	base := lipgloss.NewStyle()

	return styles{
		app:              base,
		topBar:           base.Padding(0, 1).Bold(true),
		tabsRow:          base.Padding(0, 1),
		tabActive:        base.Padding(0, 1).Bold(true).Foreground(palette.accent),
		tabInactive:      base.Padding(0, 1).Foreground(palette.textMuted),
		cellHeader:       base.Padding(0, 1).Foreground(palette.textMuted),
		cellHeaderActive: base.Padding(0, 1).Bold(true).Foreground(palette.text).Background(palette.selection),
		cellBadge:        base.Foreground(palette.accent),
		source:           base.BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).BorderForeground(palette.border).PaddingLeft(1),
		sourceHidden:     base.Foreground(palette.textMuted).Italic(true).PaddingLeft(2),
		output:           base.Foreground(palette.textMuted).PaddingLeft(2),
		footerBtn:        base.Foreground(palette.accent),
		footerBtnOff:     base.Foreground(palette.textMuted).Faint(true),
		columnTitle:      base.Copy().Bold(true).Padding(0, 1),
		listItem:         base.Padding(0, 1),
		listSel:          base.Padding(0, 1).Bold(true),
		statusBar:        base.Padding(0, 1),
		statusSeg:        base.Padding(0, 1).MarginRight(1),
		statusHint:       base.Foreground(palette.textMuted),
		toast:            base.Padding(0, 1).Bold(true).Foreground(palette.warn),
	}
}
