package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ArystanIgen/master-thesis-files/internal/config"
	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
)

const probeStatement = "GRAPH::SCAN('TSP')"

func probeCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		count    int
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Periodically run a health check unit of work against the engine",
		Long: `Runs a one-row scan inside its own unit of work every interval and prints
the outcome. In development the configuration directory is watched and the
engine endpoint follows edits to it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}

			watcher, err := config.NewConfigWatcher(a.container.Config, a.loader, a.container.Logger)
			if err != nil {
				return err
			}
			defer watcher.Stop()
			watcher.OnChange(a.container.Reconfigure)

			ctx := cmd.Context()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for n := 1; ; n++ {
				a.probeOnce(ctx, cmd.OutOrStdout(), n)
				if count > 0 && n >= count {
					return nil
				}
				select {
				case <-ctx.Done():
					a.container.Logger.Info("Probe stopped", zap.Int("probes", n))
					return nil
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Second, "Time between probes")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many probes (0 runs until interrupted)")
	return cmd
}

func (a *app) probeOnce(ctx context.Context, out io.Writer, n int) {
	start := time.Now()
	err := a.within(ctx, "probe", func(ctx context.Context, sm *graphdb.SessionManager) error {
		_, err := sm.ExecuteQuery(ctx, graphdb.Algebra(probeStatement), 1)
		return err
	})
	elapsed := time.Since(start).Round(time.Microsecond)

	breaker := "disabled"
	if a.container.Breaker != nil {
		breaker = a.container.Breaker.State()
	}
	if err != nil {
		fmt.Fprintf(out, "probe %d: failed after %s (breaker %s): %v\n", n, elapsed, breaker, err)
		return
	}
	fmt.Fprintf(out, "probe %d: ok in %s (breaker %s)\n", n, elapsed, breaker)
}
