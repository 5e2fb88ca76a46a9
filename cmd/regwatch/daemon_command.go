package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"regwatch/internal/workflow"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run cycles continuously on the configured interval",
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
			daemon, err := workflow.NewDaemon(cfg, runner, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return daemon.Run(runCtx)
		},
	}
}
