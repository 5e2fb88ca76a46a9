package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"regwatch/internal/period"
	"regwatch/internal/store"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		topicFlag  string
		agencyFlag string
		sortFlag   string
		limitFlag  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open comment periods",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			filter := store.OpenFilter{
				AsOf:     time.Now().UTC(),
				AgencyID: strings.ToUpper(strings.TrimSpace(agencyFlag)),
				SortBy:   sortFlag,
				Limit:    limitFlag,
			}
			if topicFlag != "" {
				topic, ok := period.ParseTopic(topicFlag)
				if !ok {
					return fmt.Errorf("unknown topic %q", topicFlag)
				}
				filter.Topic = topic
			}

			periods, err := st.QueryOpen(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(periods) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No open comment periods.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Document", "Agency", "Closes", "Days", "Topics", "Title"})
			asOf := filter.AsOf
			for _, p := range periods {
				topics := make([]string, 0, len(p.Topics))
				for _, topic := range p.Topics {
					topics = append(topics, topic.Emoji())
				}
				title := p.Title
				if len([]rune(title)) > 60 {
					title = string([]rune(title)[:59]) + "…"
				}
				t.AppendRow(table.Row{
					p.DocumentID,
					p.AgencyID,
					p.CommentEnd.Format(time.DateOnly),
					p.DaysUntilClose(asOf),
					strings.Join(topics, " "),
					title,
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&topicFlag, "topic", "", "Filter by topic (e.g. environment)")
	cmd.Flags().StringVar(&agencyFlag, "agency", "", "Filter by agency id (e.g. EPA)")
	cmd.Flags().StringVar(&sortFlag, "sort", "deadline", "Sort by deadline or posted")
	cmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum rows (0 for all)")
	return cmd
}
