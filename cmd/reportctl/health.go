package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreschagin/recycling-dashboard/internal/application/dto"
	"github.com/dreschagin/recycling-dashboard/internal/domain/entity"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

func newHealthCmd() *cobra.Command {
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Probe service health",
	}
	healthCmd.AddCommand(newHealthCheckCmd(), newHealthWatchCmd())
	return healthCmd
}

func newHealthCheckCmd() *cobra.Command {
	var failOnError bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single health probe and print the snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)

			a, err := newApp(ctx, 0)
			if err != nil {
				return err
			}
			defer a.Close()

			snapshot := a.monitor.Check(ctx)
			if err := writeJSON(cmd.OutOrStdout(), dto.FromHealthSnapshot(snapshot)); err != nil {
				return err
			}

			if failOnError && snapshot.Status() == valueobject.Failing {
				return fmt.Errorf("health status is %s", snapshot.Status())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit with non-zero code when status is error")

	return cmd
}

func newHealthWatchCmd() *cobra.Command {
	var (
		interval time.Duration
		count    int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll health periodically and print every snapshot as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, interval)
			if err != nil {
				return err
			}
			defer a.Close()

			// observer не вызывает Stop сам: snapshot'ы уходят в канал.
			// watchCtx отменяется до Stop, иначе observer может навсегда заблокироваться на отправке
			watchCtx, cancelWatch := context.WithCancel(ctx)
			snapshots := make(chan *entity.HealthSnapshot, 1)
			observer := func(snapshot *entity.HealthSnapshot) {
				select {
				case snapshots <- snapshot:
				case <-watchCtx.Done():
				}
			}

			if err := a.monitor.Start(observer); err != nil {
				cancelWatch()
				return err
			}
			defer func() {
				cancelWatch()
				a.monitor.Stop()
			}()

			printed := 0
			for {
				select {
				case <-ctx.Done():
					return nil
				case snapshot := <-snapshots:
					if err := writeJSON(cmd.OutOrStdout(), dto.FromHealthSnapshot(snapshot)); err != nil {
						return err
					}
					printed++
					if count > 0 && printed >= count {
						return nil
					}
				}
			}
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "polling interval (default HEALTH_POLL_INTERVAL)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after N snapshots (0 = until interrupted)")

	return cmd
}
