package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"lectern/internal/workflow"
)

func newRunCommand(configFlag *string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process pending audio and readings for every class",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if dryRun {
				return runDry(cmd, *configFlag)
			}

			rt, err := buildRuntime(ctx, *configFlag, terminalProgress())
			if err != nil {
				return err
			}
			defer rt.Close()

			if len(rt.cfg.Paths.ClassDirs) == 0 {
				return fmt.Errorf("no class directories configured; set paths.class_dirs")
			}

			report, err := rt.orch.Run(ctx, rt.cfg.Paths.ClassDirs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderReport(report))
			if report.HasFailures() {
				_, failed := report.Totals()
				return fmt.Errorf("%d item(s) failed; inputs remain in place for the next run", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List pending work without processing anything")
	return cmd
}

func runDry(cmd *cobra.Command, configFlag string) error {
	rt, err := buildRuntime(cmd.Context(), configFlag, poolProgress{})
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()
	for _, plan := range workflow.Plan(rt.cfg.Paths.ClassDirs) {
		if plan.SkipReason != "" {
			fmt.Fprintf(out, "%s: skipped (%s)\n", plan.Class, plan.SkipReason)
			continue
		}
		if plan.Empty() {
			fmt.Fprintf(out, "%s: nothing pending\n", plan.Class)
			continue
		}
		fmt.Fprintf(out, "%s: %d recording(s), %d transcript(s), %d reading(s) pending\n",
			plan.Class, len(plan.Audio), len(plan.Transcripts), len(plan.Readings))
		for _, path := range plan.Audio {
			fmt.Fprintf(out, "  transcribe  %s\n", path)
		}
		for _, path := range plan.Transcripts {
			fmt.Fprintf(out, "  notes       %s\n", path)
		}
		for _, path := range plan.Readings {
			fmt.Fprintf(out, "  notes       %s\n", path)
		}
	}
	return nil
}

// terminalProgress wires progress bars when stderr is a terminal. Batch runs
// under cron or redirection stay quiet.
func terminalProgress() poolProgress {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return poolProgress{}
	}
	transcribeBar := newStageBar("transcribing")
	generateBar := newStageBar("generating notes")
	return poolProgress{
		transcribe: func(completed, total int, _ time.Duration) {
			transcribeBar(completed, total)
		},
		generate: generateBar,
	}
}

// newStageBar lazily creates one progress bar per pool submission. The bar is
// recreated whenever a new total appears, which happens once per class.
func newStageBar(description string) func(completed, total int) {
	var mu sync.Mutex
	var bar *progressbar.ProgressBar
	var barTotal int
	return func(completed, total int) {
		mu.Lock()
		defer mu.Unlock()
		if bar == nil || barTotal != total {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(description),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			barTotal = total
		}
		_ = bar.Set(completed)
	}
}
