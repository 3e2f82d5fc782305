package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/httpsvendor/pkg/crawl"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan  = lipgloss.Color("36")  // Teal - primary actions
	colorGreen = lipgloss.Color("35")  // Green - success
	colorRed   = lipgloss.Color("167") // Soft red - errors
	colorWhite = lipgloss.Color("255") // Bright white - values
	colorGray  = lipgloss.Color("245") // Gray - secondary text
	colorDim   = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+msg)
}

// printError prints an error message.
func printError(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+msg)
}

// printInfo prints an info/status message.
func printInfo(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+msg)
}

// printDetail prints a detail line (indented).
func printDetail(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, "  "+StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints crawl statistics on a single line, leaving out zeros.
func printStats(w io.Writer, s crawl.Stats) {
	counts := []struct {
		n    int
		unit string
	}{
		{s.Local, "local"},
		{s.Remote, "cached"},
		{s.Redirects, "redirects"},
		{s.Data, "data"},
		{s.Skipped, "skipped"},
	}

	line := "  "
	first := true
	for _, c := range counts {
		if c.n == 0 {
			continue
		}
		if !first {
			line += StyleDim.Render(" · ")
		}
		line += StyleNumber.Render(fmt.Sprint(c.n)) + " " + StyleDim.Render(c.unit)
		first = false
	}
	if first {
		return
	}
	fmt.Fprintln(w, line)
}

// printSummary prints the outcome of a successful run. An empty policyPath
// means the policy went to standard output.
func printSummary(w io.Writer, res *crawl.Result, policyPath, graphPath string) {
	printSuccess(w, "Vendored %d modules in %s", res.Stats.Modules, res.Stats.Duration.Round(time.Millisecond))
	printStats(w, res.Stats)
	if policyPath != "" {
		printFile(w, policyPath)
	}
	if graphPath != "" {
		printFile(w, graphPath)
	}
}
