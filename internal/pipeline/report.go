package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/sponsorgrader/internal/model"
)

// Reporter receives progress events from a run
type Reporter interface {
	Start(variant model.SheetVariant, total int)
	RecordStarted(index, total int, rec model.SponsorRecord)
	RecordDone(res RecordResult)
	Finish(s *Summary)
}

// NopReporter discards all events
type NopReporter struct{}

func (NopReporter) Start(model.SheetVariant, int)                {}
func (NopReporter) RecordStarted(int, int, model.SponsorRecord) {}
func (NopReporter) RecordDone(RecordResult)                     {}
func (NopReporter) Finish(*Summary)                             {}

const rule = "═══════════════════════════════════════════════════════════"

// ConsoleReporter prints banners and one line per record
type ConsoleReporter struct {
	w       io.Writer
	verbose bool
}

// NewConsoleReporter writes progress to w
func NewConsoleReporter(w io.Writer, verbose bool) *ConsoleReporter {
	return &ConsoleReporter{w: w, verbose: verbose}
}

func (c *ConsoleReporter) Start(variant model.SheetVariant, total int) {
	fmt.Fprintf(c.w, "\n")
	fmt.Fprintf(c.w, "%s\n", rule)
	fmt.Fprintf(c.w, "  Sponsor Grading: %s sheet\n", variant)
	fmt.Fprintf(c.w, "%s\n", rule)
	fmt.Fprintf(c.w, "\n")
	if total == 0 {
		fmt.Fprintf(c.w, "No unprocessed records found\n")
		return
	}
	fmt.Fprintf(c.w, "✓ Found %d unprocessed records\n\n", total)
}

func (c *ConsoleReporter) RecordStarted(index, total int, rec model.SponsorRecord) {
	fmt.Fprintf(c.w, "[%d/%d] Researching %s (row %d)...\n", index, total, rec.DisplayName(), rec.Row)
}

func (c *ConsoleReporter) RecordDone(res RecordResult) {
	fmt.Fprintf(c.w, "\n")
	switch {
	case res.WriteErr != nil:
		fmt.Fprintf(c.w, "✗ %s: update failed: %v\n", res.Company, res.WriteErr)
	case res.ResearchErr != nil:
		fmt.Fprintf(c.w, "✗ %s: research failed: %v\n", res.Company, res.ResearchErr)
		fmt.Fprintf(c.w, "  Decision: %s\n", res.Decision)
	default:
		fmt.Fprintf(c.w, "✓ %s → %s\n", res.Company, res.Decision.Category)
		if c.verbose {
			fmt.Fprintf(c.w, "  Reasoning: %s\n", res.Decision.Reasoning)
			fmt.Fprintf(c.w, "  Duration:  %s\n", res.Duration.Round(100*time.Millisecond))
		}
	}
	fmt.Fprintf(c.w, "\n")
}

func (c *ConsoleReporter) Finish(s *Summary) {
	title := "Grading Complete"
	if s.Interrupted {
		title = "Grading Interrupted"
	}
	fmt.Fprintf(c.w, "%s\n", rule)
	fmt.Fprintf(c.w, "  %s\n", title)
	fmt.Fprintf(c.w, "%s\n", rule)
	fmt.Fprintf(c.w, "\n")
	fmt.Fprintf(c.w, "  Processed:  %d of %d\n", s.Processed, s.Selected)
	fmt.Fprintf(c.w, "  Updated:    %d\n", s.Updated)
	fmt.Fprintf(c.w, "  Failures:   %d research, %d write\n", s.ResearchFailures, s.WriteFailures)
	fmt.Fprintf(c.w, "  Decisions:  %s\n", categoryLine(s.Categories))
	fmt.Fprintf(c.w, "  Duration:   %s\n", s.Duration.Round(time.Second))
	fmt.Fprintf(c.w, "\n")
}

func categoryLine(counts map[model.Category]int) string {
	parts := make([]string, 0, len(model.Categories))
	for _, c := range model.Categories {
		parts = append(parts, fmt.Sprintf("%s %d", c, counts[c]))
	}
	return strings.Join(parts, ", ")
}

// PrintPreview lists records for dry runs and diagnostics
func PrintPreview(w io.Writer, records []model.SponsorRecord, limit int) {
	for i, rec := range records {
		if limit > 0 && i >= limit {
			fmt.Fprintf(w, "  ... and %d more\n", len(records)-limit)
			return
		}
		fmt.Fprintf(w, "  row %-5d %s", rec.Row, rec.DisplayName())
		if site := rec.WebsiteURL(); site != "" {
			fmt.Fprintf(w, " (%s)", site)
		}
		fmt.Fprintf(w, "\n")
	}
}
