package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"regwatch/internal/period"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <document-id>",
		Short: "Show one tracked comment period with its delivery history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			documentID := strings.TrimSpace(args[0])
			p, err := st.Get(cmd.Context(), documentID)
			if err != nil {
				return err
			}
			receipts, err := st.Receipts(cmd.Context(), documentID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", p.Title)
			fmt.Fprintf(out, "  Document:  %s (docket %s)\n", p.DocumentID, p.DocketID)
			fmt.Fprintf(out, "  Agency:    %s (%s)\n", p.AgencyName, p.AgencyID)
			if p.DocumentType != "" {
				fmt.Fprintf(out, "  Type:      %s\n", p.DocumentType)
			}
			fmt.Fprintf(out, "  Posted:    %s\n", p.PostedDate.Format(time.DateOnly))
			fmt.Fprintf(out, "  Closes:    %s (%d days left)\n",
				p.CommentEnd.Format(time.DateOnly), p.DaysUntilClose(time.Now().UTC()))
			if len(p.Topics) > 0 {
				names := make([]string, 0, len(p.Topics))
				for _, topic := range p.Topics {
					names = append(names, topic.Emoji()+" "+topic.DisplayName())
				}
				fmt.Fprintf(out, "  Topics:    %s\n", strings.Join(names, ", "))
			}
			if p.Abstract != "" {
				fmt.Fprintf(out, "  Abstract:  %s\n", p.Abstract)
			}
			fmt.Fprintf(out, "  Comment:   %s\n", p.CommentURL)
			if p.FederalRegisterURL != "" {
				fmt.Fprintf(out, "  Register:  %s\n", p.FederalRegisterURL)
			}

			fmt.Fprintln(out, "  Deliveries:")
			for _, stage := range period.AllStages() {
				marker := " "
				detail := "pending"
				for _, receipt := range receipts {
					if receipt.Stage == stage {
						marker = "x"
						detail = receipt.DeliveredAt.Format(time.RFC3339)
						if receipt.ExternalPostID != "" {
							detail += " (" + receipt.ExternalPostID + ")"
						}
					}
				}
				fmt.Fprintf(out, "    [%s] %-12s %s\n", marker, stage, detail)
			}
			return nil
		},
	}
}
