package verify

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	pathStyle    = lipgloss.NewStyle().Faint(true)
)

func mark(s Status) string {
	switch s {
	case StatusPass:
		return passStyle.Render("✔")
	case StatusFail:
		return failStyle.Render("✘")
	default:
		return warnStyle.Render("!")
	}
}

// Render writes the report grouped by section, followed by the summary.
func Render(w io.Writer, r Report) {
	section := ""
	for _, res := range r.Results {
		if res.Section != section {
			if section != "" {
				fmt.Fprintln(w)
			}
			section = res.Section
			fmt.Fprintln(w, headingStyle.Render(section))
		}
		line := fmt.Sprintf("  %s %s", mark(res.Status), res.Description)
		if res.Path != "" {
			line += " " + pathStyle.Render(res.Path)
		}
		fmt.Fprintln(w, line)
	}

	rule := strings.Repeat("=", 50)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	switch {
	case r.Clean():
		fmt.Fprintln(w, passStyle.Render("Everything is configured."))
		fmt.Fprintln(w, "Next: npm run dev, npm run build, npm run preview, then deploy.")
	default:
		if r.Errors > 0 {
			fmt.Fprintln(w, failStyle.Render(fmt.Sprintf("%d error(s)", r.Errors)))
		}
		if r.Warnings > 0 {
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d warning(s)", r.Warnings)))
		}
		for _, hint := range r.Hints {
			fmt.Fprintf(w, "  - %s\n", hint)
		}
		if r.Errors > 0 {
			fmt.Fprintln(w, "  - check the missing files above")
		}
	}
	fmt.Fprintln(w, rule)
}
