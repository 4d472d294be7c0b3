package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette used by the CLI. Keep inline lipgloss.Color literals out of
// the rest of the code.
var (
	// ColorCyan marks identifiable nouns: entry names, module ids, file names.
	ColorCyan = lipgloss.Color("14")

	// ColorGreenCheck marks the completion checkmark.
	ColorGreenCheck = lipgloss.Color("10")

	// ColorYellow marks warnings in summaries.
	ColorYellow = lipgloss.Color("220")

	// ColorDimGray marks structural chrome.
	ColorDimGray = lipgloss.Color("240")
)

var (
	// StyleNoun styles identifiable nouns.
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleDim styles sizes, separators and other secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(ColorDimGray)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)

	// StyleWarn styles warning lines in summaries.
	StyleWarn = lipgloss.NewStyle().Foreground(ColorYellow)

	styleCheck = lipgloss.NewStyle().Foreground(ColorGreenCheck)
)

// AssetLine is one row of the emission summary.
type AssetLine struct {
	Filename string
	Chunk    string
	Modules  int
	Size     int
}

// FormatSummary renders the emission summary: one line per asset followed by
// a completion line.
func FormatSummary(lines []AssetLine, dryRun bool) string {
	width := 0
	for _, l := range lines {
		if len(l.Filename) > width {
			width = len(l.Filename)
		}
	}

	var b strings.Builder
	for _, l := range lines {
		name := l.Filename + strings.Repeat(" ", width-len(l.Filename))
		fmt.Fprintf(&b, "  %s  %s %s\n",
			StyleNoun.Render(name),
			StyleDim.Render(FormatSize(l.Size)),
			StyleDim.Render(fmt.Sprintf("[%s, %d modules]", l.Chunk, l.Modules)),
		)
	}

	verb := "emitted"
	if dryRun {
		verb = "rendered (dry run)"
	}
	fmt.Fprintf(&b, "%s %s\n", styleCheck.Render("✔"), StyleSummary.Render(fmt.Sprintf("%d assets %s", len(lines), verb)))
	return b.String()
}

// FormatSize formats a byte count for humans.
func FormatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
