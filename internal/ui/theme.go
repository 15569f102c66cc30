package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Border  lipgloss.Style
	Hint    lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style

	TopBar      lipgloss.Style
	StatusBar   lipgloss.Style
	PanelTitle  lipgloss.Style
	BorderFocus lipgloss.Style
	BorderDim   lipgloss.Style
	Dim         lipgloss.Style
	Tags        lipgloss.Style
	Selected    lipgloss.Style
	ModalBox    lipgloss.Style
	ModalTitle  lipgloss.Style
}

type palette struct {
	fg, dim, accent, border, muted, green, red, mauve, pink, bar string
}

var palettes = map[string]palette{
	"default": {fg: "#cdd6f4", dim: "#a6adc8", accent: "#89B4FA", border: "#585b70", muted: "#313244", green: "#A6E3A1", red: "#F38BA8", mauve: "#CBA6F7", pink: "#F2CDCD", bar: "#1e1e2e"},
	"light":   {fg: "#4c4f69", dim: "#6c6f85", accent: "#1e66f5", border: "#acb0be", muted: "#e6e9ef", green: "#40a02b", red: "#d20f39", mauve: "#8839ef", pink: "#dd7878", bar: "#eff1f5"},
}

// ThemeFor returns the named theme; unknown names get the default.
func ThemeFor(name string) Theme {
	p, ok := palettes[strings.ToLower(name)]
	if !ok {
		p = palettes["default"]
	}
	c := func(s string) lipgloss.Color { return lipgloss.Color(s) }
	return Theme{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(c(p.green)),
		Label:   lipgloss.NewStyle().Faint(true).Foreground(c(p.accent)),
		Value:   lipgloss.NewStyle().Foreground(c(p.pink)),
		Border:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1),
		Hint:    lipgloss.NewStyle().Faint(true).Foreground(c(p.mauve)),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(c(p.red)),
		Success: lipgloss.NewStyle().Bold(true).Foreground(c(p.green)),

		TopBar:      lipgloss.NewStyle().Foreground(c(p.fg)).Bold(true).Padding(0, 1),
		StatusBar:   lipgloss.NewStyle().Foreground(c(p.dim)).Background(c(p.muted)).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(c(p.fg)).Bold(true),
		BorderFocus: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c(p.accent)).Padding(0, 1),
		BorderDim:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c(p.border)).Padding(0, 1),
		Dim:         lipgloss.NewStyle().Foreground(c(p.dim)),
		Tags:        lipgloss.NewStyle().Foreground(c(p.mauve)).Faint(true),
		Selected:    lipgloss.NewStyle().Foreground(c(p.bar)).Background(c(p.accent)).Bold(true),
		ModalBox:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c(p.accent)).Padding(1, 2).Width(70),
		ModalTitle:  lipgloss.NewStyle().Bold(true).Foreground(c(p.fg)),
	}
}

var DefaultTheme = ThemeFor("default")

func (t Theme) border(focused bool) lipgloss.Style {
	if focused {
		return t.BorderFocus
	}
	return t.BorderDim
}
