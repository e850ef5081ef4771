package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"lectern/internal/pipeline"
)

var stageOrder = []pipeline.StageName{
	pipeline.StageTranscribe,
	pipeline.StageLectureNotes,
	pipeline.StageReadingNotes,
	pipeline.StageArchive,
}

// renderReport formats the end-of-run summary: per-class stage counts, the
// failure detail, and the run totals.
func renderReport(report *pipeline.RunReport) string {
	if report.Empty() && !hasSkips(report) {
		return "Nothing to do: no pending audio, transcripts, or readings."
	}

	var rows []table.Row
	var failures []pipeline.Failure

	for _, cr := range report.Classes() {
		if cr.Skipped {
			rows = append(rows, table.Row{cr.Class, "skipped: " + cr.SkipReason, "-", "-"})
			continue
		}
		for _, stage := range stageOrder {
			counts, ok := cr.Stages[stage]
			if !ok {
				continue
			}
			rows = append(rows, table.Row{cr.Class, string(stage), counts.Succeeded, counts.Failed})
		}
		failures = append(failures, cr.Failures...)
	}

	var sb strings.Builder
	sb.WriteString(stageTable(rows))
	sb.WriteByte('\n')

	if len(failures) > 0 {
		sb.WriteString("\nFailures:\n")
		for _, failure := range failures {
			sb.WriteString(fmt.Sprintf("  [%s] %s %s: %s\n",
				failure.ErrorKind, failure.Class, failure.Path, failure.Message))
		}
	}

	succeeded, failed := report.Totals()
	elapsed := report.EndedAt.Sub(report.StartedAt).Round(10 * time.Millisecond)
	sb.WriteString(fmt.Sprintf("\n%d succeeded, %d failed in %s\n", succeeded, failed, elapsed))
	return sb.String()
}

// stageTable renders the per-class stage counts with the count columns
// right-aligned.
func stageTable(rows []table.Row) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Class", "Stage", "Succeeded", "Failed"})
	tw.AppendRows(rows)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func hasSkips(report *pipeline.RunReport) bool {
	for _, cr := range report.Classes() {
		if cr.Skipped {
			return true
		}
	}
	return false
}
