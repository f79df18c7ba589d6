package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"relwatch/internal/update"
)

var (
	primaryColor = lipgloss.Color("#BD93F9")
	goodColor    = lipgloss.Color("#50FA7B")
	warnColor    = lipgloss.Color("#FFB86C")
	badColor     = lipgloss.Color("#FF5555")
	dimColor     = lipgloss.Color("#6272A4")
	textColor    = lipgloss.Color("#F8F8F2")

	styleApp     = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	styleLabel   = lipgloss.NewStyle().Foreground(dimColor)
	styleValue   = lipgloss.NewStyle().Foreground(textColor)
	styleVersion = lipgloss.NewStyle().Bold(true).Foreground(textColor)
	styleDim     = lipgloss.NewStyle().Foreground(dimColor)
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(badColor)
	styleWarn    = lipgloss.NewStyle().Foreground(warnColor)

	styleBanner = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(goodColor).
			Padding(0, 1)
)

const (
	labelWidth = 12
	wrapWidth  = 72
)

func outcomeStyle(o update.Outcome) lipgloss.Style {
	switch o {
	case update.OutcomeUpdated:
		return lipgloss.NewStyle().Bold(true).Foreground(goodColor)
	case update.OutcomeBaseline:
		return lipgloss.NewStyle().Foreground(primaryColor)
	case update.OutcomeFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(badColor)
	default:
		return lipgloss.NewStyle().Foreground(dimColor)
	}
}

// printField writes one "label  value" line with the label padded.
func printField(w io.Writer, label, value string) {
	pad := labelWidth - len(label)
	if pad < 1 {
		pad = 1
	}
	_, _ = fmt.Fprintf(w, "%s%s%s\n", styleLabel.Render(label), strings.Repeat(" ", pad), value)
}

// printDetail writes a wrapped, indented block under the previous field.
func printDetail(w io.Writer, text string) {
	_, _ = fmt.Fprintln(w, indent.String(wordwrap.String(text, wrapWidth), labelWidth))
}

func renderVersion(v update.Version, known bool) string {
	if !known {
		return styleDim.Render("none")
	}
	return styleVersion.Render(v.String())
}
