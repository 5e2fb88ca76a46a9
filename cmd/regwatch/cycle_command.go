package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"regwatch/internal/workflow"
)

func newCycleCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run one ingest/notify/project cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runner, err := workflow.NewRunner(cfg, st, logger)
			if err != nil {
				return err
			}
			runner.SetDryRun(dryRun)

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := runner.RunCycle(runCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cycle %s finished in %s\n", result.CycleID, result.Duration.Round(10*time.Millisecond))
			fmt.Fprintf(out, "  ingested: %d created, %d updated, %d enriched (%d malformed, %d rejected)\n",
				result.Ingest.Created, result.Ingest.Updated, result.Ingest.Enriched,
				result.Ingest.Malformed, result.Ingest.Rejected)
			fmt.Fprintf(out, "  notified: %d posted, %d duplicate, %d failed, %d capped\n",
				result.Notify.Posted, result.Notify.Duplicate, result.Notify.Failed, result.Notify.Capped)
			if result.IngestErr != nil {
				fmt.Fprintf(out, "  warning: ingestion aborted early: %v\n", result.IngestErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Render and log without writing or posting")
	return cmd
}
