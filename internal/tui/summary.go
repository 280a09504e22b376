package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"imgconvert/internal/processor"
)

// NothingProcessed is printed when no job succeeded.
const NothingProcessed = "No valid images were found or processed in the specified location."

type SummaryRow struct {
	Label string
	Value string
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
		if len(row.Value) > valueWidth {
			valueWidth = len(row.Value)
		}
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		line := fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value))
		lines = append(lines, line)
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// Headline is the one-line result of a run, without styling.
func Headline(stats processor.RunStatistics) string {
	pct, ok := stats.Savings()
	if stats.Processed == 0 || !ok {
		return NothingProcessed
	}
	return fmt.Sprintf("%d file(s) were processed in %.2f seconds. Total size reduction: %.2f%%.",
		stats.Processed, stats.Elapsed.Seconds(), pct)
}

// RenderReport renders the end-of-run summary. Debug adds a per-job table.
func RenderReport(r processor.Report, debug bool) string {
	var b strings.Builder

	if r.Stats.Processed == 0 {
		b.WriteString(warnStyle.Render(NothingProcessed))
	} else {
		b.WriteString(successStyle.Render(Headline(r.Stats)))
		b.WriteString("\n\n")
		b.WriteString(labelStyle.Render("The images can be found in: ") + valueStyle.Render(outputLocation(r)))
	}
	b.WriteString("\n")

	b.WriteString(RenderSummary([]SummaryRow{
		{Label: "Processed", Value: fmt.Sprintf("%d", r.Stats.Processed)},
		{Label: "Failed", Value: fmt.Sprintf("%d", r.Stats.Failed)},
		{Label: "Skipped", Value: fmt.Sprintf("%d", r.Stats.Skipped)},
		{Label: "Original size", Value: FormatBytes(r.Stats.TotalOriginalBytes)},
		{Label: "New size", Value: FormatBytes(r.Stats.TotalNewBytes)},
		{Label: "Saved", Value: FormatBytes(r.Stats.SpaceSaved())},
	}))

	if failures := r.Failures(); len(failures) > 0 {
		b.WriteString("\n\n" + failStyle.Render("Failed:"))
		for _, o := range failures {
			b.WriteString(fmt.Sprintf("\n  %s: %v", jobLabel(o.Job), o.Err))
		}
	}

	if len(r.Skipped) > 0 {
		b.WriteString("\n\n" + dimStyle.Render("Skipped:"))
		for _, s := range r.Skipped {
			b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("  %s: %s", filepath.Base(s.Path), s.Reason)))
		}
	}

	if debug && len(r.Outcomes) > 0 {
		b.WriteString("\n\n" + renderJobTable(r.Outcomes))
	}

	return b.String()
}

func renderJobTable(outcomes []processor.Outcome) string {
	header := []string{"File", "Format", "Bucket", "Original", "New", "Saved", "Time"}
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		saved := "failed"
		if o.OK() {
			saved = fmt.Sprintf("%.1f%%", o.Savings())
		}
		rows = append(rows, []string{
			filepath.Base(o.Job.Source.Path),
			o.Job.Format.String(),
			o.Job.Bucket,
			FormatBytes(o.OriginalSize),
			FormatBytes(o.NewSize),
			saved,
			o.Duration.Round(time.Millisecond).String(),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	line := func(cells []string) string {
		padded := make([]string, len(cells))
		for i, cell := range cells {
			padded[i] = padRight(cell, widths[i])
		}
		return strings.Join(padded, "  ")
	}

	lines := []string{headerStyle.Render(line(header))}
	for _, row := range rows {
		lines = append(lines, line(row))
	}
	return strings.Join(lines, "\n")
}

func outputLocation(r processor.Report) string {
	if r.OutputDir == "" {
		return "next to the source files"
	}
	return r.OutputDir
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	if n < unit {
		return fmt.Sprintf("%s%d B", sign, n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%s%.1f %ciB", sign, float64(n)/float64(div), "KMGTPE"[exp])
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

var (
	valueStyle   = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(ColorAccentAlt).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorWarn)
	failStyle    = lipgloss.NewStyle().Foreground(ColorFail).Bold(true)
)
