package scan

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/coral-mesh/sigscan/internal/cli/helpers"
	"github.com/coral-mesh/sigscan/internal/report"
)

var (
	infectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	cleanStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// jsonReport is the machine readable output: the report plus throughput.
type jsonReport struct {
	*report.Report
	Metrics report.Metrics `json:"metrics"`
}

// render writes rep to w in the requested format.
func render(w io.Writer, rep *report.Report, format helpers.OutputFormat, verbose bool) error {
	switch format {
	case helpers.FormatJSON:
		return (&helpers.JSONFormatter{}).Format(jsonReport{Report: rep, Metrics: rep.Metrics()}, w)
	case helpers.FormatCSV:
		return (&helpers.CSVFormatter{}).Format(rep.MatchedSignatures, w)
	case helpers.FormatMarkdown:
		return helpers.RenderMarkdown(markdownReport(rep, verbose), w)
	case helpers.FormatTable:
		return renderTable(w, rep, verbose)
	}
	return fmt.Errorf("unsupported format: %s", format)
}

func verdict(rep *report.Report) string {
	switch {
	case rep.Failed():
		return errorStyle.Render(rep.Headline())
	case rep.IsInfected:
		return infectedStyle.Render(rep.Headline())
	}
	return cleanStyle.Render(rep.Headline())
}

func renderTable(w io.Writer, rep *report.Report, verbose bool) error {
	var b strings.Builder
	field := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label+":")), value))
	}

	b.WriteString(verdict(rep) + "\n\n")
	field("File", rep.FilePath)
	field("Size", fmt.Sprintf("%d bytes", rep.FileSize))
	field("Signatures", fmt.Sprintf("%d checked, %d skipped", rep.SignaturesChecked, rep.SignaturesSkipped))
	if rep.Device != "" {
		field("Device", rep.Device)
	}
	field("Scan time", rep.ScanTime.String())
	if !rep.Failed() {
		field("Occurrences", fmt.Sprintf("%d across %d signatures", rep.TotalOccurrences, rep.MatchesFound))
	}
	if verbose {
		field("Scan ID", rep.ScanID)
		if rep.FileHash != "" {
			field("xxh3", rep.FileHash)
		}
		if rep.Layout != nil {
			field("Layout", fmt.Sprintf("%d units x %d threads (%d lanes)",
				rep.Layout.Units, rep.Layout.ThreadsPerUnit, rep.Layout.Lanes()))
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if len(rep.MatchedSignatures) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := (&helpers.TableFormatter{}).Format(rep.MatchedSignatures, w); err != nil {
			return err
		}
	}

	if verbose && !rep.Failed() {
		m := rep.Metrics()
		_, err := fmt.Fprintf(w, "\n%s\n%s %.0f bytes/s, %.0f signatures/s, %.3g comparisons/s, kernel %.1f%%\n",
			helpers.RenderTree(stageTree(rep), 0),
			labelStyle.Render("Throughput:"),
			m.BytesPerSecond, m.SignaturesPerSecond, m.ComparisonsPerSecond, m.KernelEfficiency)
		return err
	}
	return nil
}

func stageTree(rep *report.Report) helpers.StageNode {
	t := rep.Timings
	d := func(v report.Duration) time.Duration { return time.Duration(v) }
	return helpers.StageNode{
		Name:     "scan",
		Duration: d(rep.ScanTime),
		Children: []helpers.StageNode{
			{Name: "load signatures", Duration: d(t.SignatureLoad)},
			{Name: "compile", Duration: d(t.Compile)},
			{Name: "table build", Duration: d(t.TableBuild)},
			{Name: "read file", Duration: d(t.FileRead)},
			{Name: "layout", Duration: d(t.Layout)},
			{Name: "transfer", Duration: d(t.Transfer)},
			{Name: "kernel", Duration: d(t.Kernel)},
			{Name: "retrieve", Duration: d(t.Retrieve)},
		},
	}
}

func markdownReport(rep *report.Report, verbose bool) string {
	var b strings.Builder
	b.WriteString("# Scan report\n\n")
	b.WriteString("**" + rep.Headline() + "**\n\n")
	b.WriteString(fmt.Sprintf("- File: `%s` (%d bytes)\n", rep.FilePath, rep.FileSize))
	b.WriteString(fmt.Sprintf("- Signatures: %d checked, %d skipped\n", rep.SignaturesChecked, rep.SignaturesSkipped))
	b.WriteString(fmt.Sprintf("- Scan time: %s (kernel %s)\n", rep.ScanTime, rep.KernelTime))
	if rep.Device != "" {
		b.WriteString(fmt.Sprintf("- Device: %s\n", rep.Device))
	}
	if verbose {
		b.WriteString(fmt.Sprintf("- Scan ID: `%s`\n", rep.ScanID))
	}

	if len(rep.MatchedSignatures) > 0 {
		b.WriteString("\n## Matches\n\n")
		rows := make([][]string, 0, len(rep.MatchedSignatures))
		for _, m := range rep.MatchedSignatures {
			rows = append(rows, []string{m.Name, fmt.Sprintf("%d", m.Count)})
		}
		b.WriteString(helpers.MarkdownTable([]string{"Signature", "Occurrences"}, rows))
	}

	if verbose && !rep.Failed() {
		b.WriteString("\n## Timings\n\n")
		tree := stageTree(rep)
		rows := make([][]string, 0, len(tree.Children))
		for _, stage := range tree.Children {
			rows = append(rows, []string{stage.Name, helpers.FormatDuration(stage.Duration)})
		}
		b.WriteString(helpers.MarkdownTable([]string{"Stage", "Duration"}, rows))
	}
	return b.String()
}
