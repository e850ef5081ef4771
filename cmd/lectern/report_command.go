package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"lectern/internal/config"
	"lectern/internal/journal"
)

func newReportCommand(configFlag *string) *cobra.Command {
	var limit int
	var runID int64
	var showMoves bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show run history from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, exists, err := config.Load(*configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !exists {
				return fmt.Errorf("no configuration found (run `lectern config init` first)")
			}

			store, err := journal.Open(cfg.JournalPath())
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			runs, err := store.RecentRuns(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}

			fmt.Fprintln(out, runsTable(runs))

			target := runID
			if target == 0 {
				target = runs[0].ID
			}
			failures, err := store.FailedOutcomes(ctx, target)
			if err != nil {
				return err
			}
			if len(failures) > 0 {
				fmt.Fprintf(out, "\nFailures in run %d:\n", target)
				for _, failure := range failures {
					fmt.Fprintf(out, "  [%s] %s %s (%s): %s\n",
						failure.ErrorKind, failure.Class, failure.ItemID, failure.Stage, failure.ErrorMessage)
				}
			}

			if showMoves {
				moves, err := store.RecentMoves(ctx, limit*10)
				if err != nil {
					return err
				}
				if len(moves) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, movesTable(moves))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().Int64Var(&runID, "run", 0, "Show failures for a specific run (default: latest)")
	cmd.Flags().BoolVar(&showMoves, "moves", false, "Include the file move audit log")
	return cmd
}

func runsTable(runs []journal.RunRow) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Run", "Started", "Completed", "Succeeded", "Failed"})
	for _, run := range runs {
		completed := run.CompletedAt
		if completed == "" {
			completed = "(interrupted)"
		}
		tw.AppendRow(table.Row{run.ID, run.StartedAt, completed, run.Succeeded, run.Failed})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func movesTable(moves []journal.MoveRow) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Recorded", "Op", "Source", "Destination"})
	for _, move := range moves {
		tw.AppendRow(table.Row{move.RecordedAt, move.Operation, move.Source, move.Destination})
	}
	return tw.Render()
}
