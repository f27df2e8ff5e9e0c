package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kimhsiao/squishylog/internal/app"
	"github.com/kimhsiao/squishylog/internal/query"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show collection statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				s := query.Summarize(a.Records.List())

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Records:     %d\n", s.TotalCount)
				fmt.Fprintf(out, "Photos:      %d\n", s.ImageCount)
				fmt.Fprintf(out, "Total spent: %.2f\n", s.TotalSpent)

				shops := s.Shops
				if top > 0 && len(shops) > top {
					shops = shops[:top]
				}
				if len(shops) == 0 {
					return nil
				}
				fmt.Fprintln(out)
				rows := make([][]string, 0, len(shops))
				for _, shop := range shops {
					rows = append(rows, []string{shop.Name, fmt.Sprintf("%d", shop.Count)})
				}
				writeRows(out, []string{"Shop", "Records"}, rows, []columnAlignment{alignLeft, alignRight})
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&top, "top", 5, "Shops to list (0 for all)")
	return cmd
}
