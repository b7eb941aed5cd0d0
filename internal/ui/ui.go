package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Brand colors
var (
	Brand    = color.New(color.FgHiCyan, color.Bold)
	Subtle   = color.New(color.FgHiBlack)
	Warn     = color.New(color.FgYellow)
	Info     = color.New(color.FgCyan)
	Good     = color.New(color.FgGreen)
	Bad      = color.New(color.FgRed)
	Critical = color.New(color.FgHiRed, color.Bold)
)

// Banner prints the netwatch banner.
func Banner(w io.Writer, subtitle string) {
	fmt.Fprintf(w, "%s %s\n\n", Brand.Sprint("netwatch"), Subtle.Sprint("- "+subtitle))
}

// Level colors a status, severity or threat level by how alarming it is.
func Level(s string) string {
	switch strings.ToLower(s) {
	case "normal", "low", "resolved", "false-positive":
		return Good.Sprint(s)
	case "warning", "medium", "investigating":
		return Warn.Sprint(s)
	case "high", "new":
		return Bad.Sprint(s)
	case "critical":
		return Critical.Sprint(s)
	}
	return s
}

// Table prints a simple aligned table. Widths are measured on the visible
// text so colored cells still line up.
func Table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := visibleLen(cell); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}

	headerLine := "  "
	sepLine := "  "
	for i, h := range headers {
		headerLine += fmt.Sprintf("%-*s  ", widths[i], h)
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	Subtle.Fprintln(w, strings.TrimRight(headerLine, " "))
	Subtle.Fprintln(w, strings.TrimRight(sepLine, " "))

	for _, row := range rows {
		var b strings.Builder
		b.WriteString("  ")
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-visibleLen(cell)+2))
			}
		}
		fmt.Fprintln(w, b.String())
	}
}

// visibleLen counts runes outside ANSI escape sequences.
func visibleLen(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			n++
		}
	}
	return n
}
