package util

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Colors
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBold   = "\033[1m"
)

// Emojis
const (
	EmojiError   = "❌"
	EmojiWarning = "⚠️"
	EmojiDone    = "🎯"
	EmojiSpeaker = "🔊"
	EmojiVoice   = "🗣️"
)

// Common formatting
const (
	SeparatorChar  = "-"
	SeparatorWidth = 80
)

// GetSeparator returns a separator line of standard width
func GetSeparator() string {
	return strings.Repeat(SeparatorChar, SeparatorWidth)
}

// Printer handles output formatting with configurable writer
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a new Printer with the given writer
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, color: true}
}

// NoColor disables ANSI colours, e.g. when output is not a terminal
func (p *Printer) NoColor() *Printer {
	p.color = false
	return p
}

func (p *Printer) paint(color, s string) string {
	if !p.color {
		return s
	}
	return color + s + ColorReset
}

// PrintTitle prints a title with an emoji and separator
func (p *Printer) PrintTitle(title string, emoji string) {
	fmt.Fprintf(p.out, "\n%s %s", emoji, p.paint(ColorBold, title))
	p.PrintSeparator()
}

const maxErrorLength = 300

// PrintError prints an error message
func (p *Printer) PrintError(message string) {
	message = strings.Join(strings.Fields(message), " ")
	if len(message) > maxErrorLength {
		message = message[:maxErrorLength-3] + "..."
	}
	fmt.Fprintln(p.out, p.paint(ColorRed, EmojiError+" "+message))
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) {
	fmt.Fprintf(p.out, "\n%s\n", p.paint(ColorGreen, EmojiDone+" "+message))
}

// PrintWarning prints a warning message
func (p *Printer) PrintWarning(message string) {
	fmt.Fprintln(p.out, p.paint(ColorYellow, EmojiWarning+" "+message))
}

// Printf formats and prints a message
func (p *Printer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

// PrintSeparator prints a separator line
func (p *Printer) PrintSeparator() {
	p.Printf("\n%s\n", GetSeparator())
}

// PrintTable prints rows with columns padded to their display width, so
// Devanagari and CJK voice names line up with ASCII ones.
func (p *Printer) PrintTable(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	p.Printf("%s\n", p.paint(ColorBold, formatRow(header, widths)))
	for _, row := range rows {
		p.Printf("%s\n", formatRow(row, widths))
	}
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i == len(widths)-1 {
			parts[i] = cell
			continue
		}
		parts[i] = runewidth.FillRight(cell, widths[i])
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}
