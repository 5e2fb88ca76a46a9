package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"regwatch/internal/period"
	"regwatch/internal/store"
)

func newMarkPostedCommand(ctx *commandContext) *cobra.Command {
	var postID string

	cmd := &cobra.Command{
		Use:   "mark-posted <document-id> <stage>",
		Short: "Record a delivery receipt by hand",
		Long: "Record a delivery receipt without posting, for notices that went " +
			"out through another channel. The stage is permanently settled.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, ok := period.ParseStage(args[1])
			if !ok {
				return fmt.Errorf("unknown stage %q (valid: %v)", args[1], period.AllStages())
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			documentID := strings.TrimSpace(args[0])
			if _, err := st.Get(cmd.Context(), documentID); err != nil {
				return err
			}

			err = st.RecordDelivery(cmd.Context(), documentID, stage, postID)
			if errors.Is(err, store.ErrAlreadyDelivered) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s/%s was already delivered.\n", documentID, stage)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s/%s as delivered.\n", documentID, stage)
			return nil
		},
	}

	cmd.Flags().StringVar(&postID, "post-id", "manual", "External post identifier to record")
	return cmd
}
