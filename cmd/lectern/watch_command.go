package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lectern/internal/watch"
)

func newWatchCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run continuously, processing new input as it appears",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := buildRuntime(ctx, *configFlag, poolProgress{})
			if err != nil {
				return err
			}
			defer rt.Close()

			if len(rt.cfg.Paths.ClassDirs) == 0 {
				return fmt.Errorf("no class directories configured; set paths.class_dirs")
			}

			runner := func(ctx context.Context) error {
				report, err := rt.orch.Run(ctx, rt.cfg.Paths.ClassDirs)
				if err != nil {
					return err
				}
				if !report.Empty() {
					fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
				}
				return nil
			}

			debounce := time.Duration(rt.cfg.Watch.DebounceSeconds) * time.Second
			watcher := watch.New(rt.cfg.Paths.ClassDirs, debounce, runner, rt.logger)
			if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
