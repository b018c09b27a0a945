package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <project-id>",
		Short: "Re-crawl a project's sources on a timer",
		Long: `Continuously crawl the project's sources at a fixed interval so new
pages show up in the chunk store without manual runs. Handles
SIGINT/SIGTERM for graceful shutdown (finishes the current cycle).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			logger := newLogger()
			logger.Info().Dur("interval", interval).Int64("project_id", id).Msg("watch starting")

			cycle := 1
			for {
				start := time.Now()
				job, pages, err := engine.StartCrawl(ctx, id)
				if err != nil {
					logger.Warn().Err(err).Int("cycle", cycle).Msg("crawl cycle failed")
				} else {
					logger.Info().
						Int("cycle", cycle).
						Int64("job_id", job.ID).
						Int("pages", pages).
						Dur("elapsed", time.Since(start)).
						Msg("crawl cycle complete")
				}
				cycle++

				// Wait for the next tick or a shutdown signal.
				timer := time.NewTimer(interval)
				select {
				case <-sig:
					timer.Stop()
					fmt.Fprintln(os.Stderr, "watch: received shutdown signal, exiting")
					return nil
				case <-timer.C:
				}
			}
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", 30*time.Minute, "duration between crawl cycles (e.g. 5m, 1h)")
	return cmd
}
