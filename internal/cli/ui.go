package cli

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/reana/pkg/analysis"
	"github.com/matzehuels/reana/pkg/rdg"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failed results.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(14)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
	rule        = "========================================="
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Analysis Report
// =============================================================================

// writeReport prints one line per configuration. Valid configurations come
// first, sorted by their string form. Every configuration that failed,
// whether it violates the feature model or could not be evaluated, follows
// as INVALID and is left out of the total.
func writeReport(w io.Writer, res *analysis.Results) {
	entries := res.Entries()
	var valid, invalid []analysis.Entry
	for _, e := range entries {
		if e.Err != nil {
			invalid = append(invalid, e)
		} else {
			valid = append(valid, e)
		}
	}
	slices.SortStableFunc(valid, func(a, b analysis.Entry) int {
		return cmp.Compare(a.Configuration.String(), b.Configuration.String())
	})

	fmt.Fprintln(w, StyleTitle.Render("Configurations:"))
	fmt.Fprintln(w, StyleDim.Render(rule))
	for _, e := range valid {
		fmt.Fprintln(w, e.Configuration.String()+" --> "+StyleNumber.Render(formatReliability(e.Reliability)))
	}
	for _, e := range invalid {
		fmt.Fprintln(w, e.Configuration.String()+" --> "+StyleWarning.Render("INVALID"))
	}
	fmt.Fprintln(w, StyleDim.Render(rule))
	fmt.Fprintf(w, ">>>> Total valid configurations: %d\n", len(valid))
}

func formatReliability(r float64) string {
	return fmt.Sprintf("%.10g", r)
}

// writeReuse prints the number of paths to every node of the closure and
// the share of evaluations saved by reusing sub-results.
func writeReuse(w io.Writer, order []*rdg.Node, paths map[*rdg.Node]int) {
	for _, n := range order {
		if p, ok := paths[n]; ok {
			fmt.Fprintf(w, "%s: %d paths\n", n.ID(), p)
		}
	}
	fmt.Fprintf(w, "Evaluation economy because of cache: %s%%\n",
		StyleNumber.Render(fmt.Sprintf("%.2f", rdg.EvaluationEconomy(paths))))
}
