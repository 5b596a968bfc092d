// Package observability provides the zap logger and formatted output for the CLI.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/portfolio-studio/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintIssues outputs validation issues, or a ready-to-publish note when there are none.
func (p *Printer) PrintIssues(issues []types.Issue) {
	if len(issues) == 0 {
		p.printBox("VALIDATION", "✓ Ready to publish")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d issue(s) block publishing:\n\n", len(issues)))
	for _, issue := range issues {
		sb.WriteString(fmt.Sprintf("  ✗ %s\n", issue.Message))
		sb.WriteString(fmt.Sprintf("    at %s\n", issue.Key))
	}
	p.printBox("VALIDATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSearchResults outputs search hits with the editor location of each.
func (p *Printer) PrintSearchResults(query string, hits []types.SearchEntry) {
	var sb strings.Builder
	if len(hits) == 0 {
		sb.WriteString(fmt.Sprintf("No matches for %q", query))
		p.printBox("SEARCH", sb.String())
		return
	}

	count := min(len(hits), maxItemsToShow)
	for i := 0; i < count; i++ {
		hit := hits[i]
		sb.WriteString(fmt.Sprintf("• %s\n", hit.Label))
		sb.WriteString(fmt.Sprintf("    %s\n", hit.Value))
		sb.WriteString(fmt.Sprintf("    → %s\n", navLabel(hit.Nav)))
	}
	if len(hits) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(hits)-maxItemsToShow))
	}
	p.printBox(fmt.Sprintf("SEARCH: %s", query), strings.TrimSuffix(sb.String(), "\n"))
}

func navLabel(nav types.NavTarget) string {
	if nav.SubTab == "" {
		return nav.Tab
	}
	return nav.Tab + " / " + nav.SubTab
}

// PrintCounts outputs the number of entries in each list field, sorted by field name.
func (p *Printer) PrintCounts(counts map[string]int) {
	if len(counts) == 0 {
		return
	}

	fields := make([]string, 0, len(counts))
	for f := range counts {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var sb strings.Builder
	for _, f := range fields {
		sb.WriteString(fmt.Sprintf("%-22s %3d\n", f, counts[f]))
	}
	p.printBox("CONTENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPalettes outputs the saved palettes, marking the selected one.
func (p *Printer) PrintPalettes(saved []types.SavedPalette, selected string) {
	if len(saved) == 0 {
		p.printBox("SAVED PALETTES", "(none)")
		return
	}

	var sb strings.Builder
	for _, sp := range saved {
		marker := " "
		if selected == "saved:"+sp.Name {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s %-24s %s  %s\n", marker, sp.Name, sp.Accent, sp.Accent2))
	}
	p.printBox("SAVED PALETTES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDraftStatus outputs whether a draft is pending and how many edits can be undone.
func (p *Printer) PrintDraftStatus(draftActive bool, undoDepth int) {
	status := "No draft. Edits autosave to the published site."
	if draftActive {
		status = "Draft active. Edits autosave to the draft until published."
	}
	p.printBox("DRAFT", fmt.Sprintf("%s\nUndo steps available: %d", status, undoDepth))
}
