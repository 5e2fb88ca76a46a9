package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"regwatch/internal/notify"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test post through the configured sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Bluesky.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "Bluesky posting is disabled; nothing to test.")
				return nil
			}

			sink := notify.NewSink(cfg)
			text := "🧪 regwatch connectivity test, " + time.Now().UTC().Format(time.RFC3339)
			postID, err := sink.Post(cmd.Context(), text)
			if err != nil {
				return fmt.Errorf("test post failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test post delivered: %s\n", postID)
			return nil
		},
	}
}
