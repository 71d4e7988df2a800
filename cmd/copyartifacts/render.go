package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"copyartifacts/internal/artifact"
	"copyartifacts/internal/session"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(headers ...string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)
	return tw
}

// renderReport writes the human-readable form of a report: entries, skipped
// artifacts, failed trees, and a summary line.
func renderReport(w io.Writer, report session.Report, colorize bool) {
	if len(report.Entries) > 0 {
		tw := newTable("Status", "Source", "Destination", "Kind", "Detail")
		for _, e := range report.Entries {
			tw.AppendRow(table.Row{statusLabel(e.Status, colorize), e.Source, e.Dest, e.Kind, e.Error})
		}
		fmt.Fprintln(w, tw.Render())
	}

	if len(report.Skipped) > 0 {
		fmt.Fprintln(w, "Skipped artifacts:")
		tw := newTable("Source", "Reason", "Candidates")
		for _, s := range report.Skipped {
			tw.AppendRow(table.Row{s.Source, s.Reason, strings.Join(s.Candidates, "\n")})
		}
		fmt.Fprintln(w, tw.Render())
	}

	if len(report.TreeErrors) > 0 {
		fmt.Fprintln(w, "Failed source trees:")
		tw := newTable("Root", "Kind", "Error")
		for _, te := range report.TreeErrors {
			tw.AppendRow(table.Row{te.Root, te.Kind, te.Error})
		}
		fmt.Fprintln(w, tw.Render())
	}

	fmt.Fprintln(w, summaryLine(report))
}

func summaryLine(report session.Report) string {
	s := report.Summary
	if report.DryRun {
		return fmt.Sprintf("Plan (%s): %d planned, %d skipped, %d tree errors", report.Mode, s.Planned, s.Skipped, s.TreeErrors)
	}
	return fmt.Sprintf("Session %s (%s): %d transferred, %d unchanged, %d failed, %d canceled, %d skipped, %d tree errors",
		report.SessionID, report.Mode, s.Transferred, s.Unchanged, s.Failed, s.Canceled, s.Skipped, s.TreeErrors)
}

func statusLabel(status string, colorize bool) string {
	if !colorize {
		return status
	}
	switch status {
	case string(artifact.StatusTransferred):
		return text.Colors{text.FgGreen}.Sprint(status)
	case string(artifact.StatusFailed), string(artifact.StatusCanceled):
		return text.Colors{text.FgRed}.Sprint(status)
	case string(artifact.StatusUnchanged):
		return text.Colors{text.FgHiBlack}.Sprint(status)
	default:
		return status
	}
}
