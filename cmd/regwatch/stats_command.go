package main

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate tracking counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := st.GetStats(cmd.Context(), time.Now().UTC())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendRow(table.Row{"Tracked periods", stats.TotalPeriods})
			t.AppendRow(table.Row{"Open periods", stats.OpenPeriods})
			t.AppendRow(table.Row{"Announced periods", stats.AnnouncedPeriods})
			t.AppendRow(table.Row{"Delivery receipts", stats.TotalReceipts})
			t.Render()
			return nil
		},
	}
}
