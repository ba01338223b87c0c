package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brail/marketplace/internal/client"
	"github.com/brail/marketplace/internal/marketplace/infra/httpx"
)

func newOrdersCmd(g *globals) *cobra.Command {
	var tab, stage string
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders, or a back-office queue with --tab or --stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := g.client()
			var (
				orders []httpx.OrderResponse
				err    error
			)
			switch {
			case tab != "":
				orders, err = c.AdminOrders(cmd.Context(), tab)
			case stage != "":
				orders, err = c.LogisticsOrders(cmd.Context(), stage)
			default:
				orders, err = c.Orders(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("orders: %s", client.ErrorMessage(err))
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tSTATUS\tSTEP\tTOTAL\tDATE")
			for _, o := range orders {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d/6\t%s\t%s\n",
					o.ID, o.Kind, o.Status, o.StatusStep, o.TotalAmount.StringFixed(2), o.OrderDate.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&tab, "tab", "", "admin tab: pending or processed")
	cmd.Flags().StringVar(&stage, "stage", "", "logistics stage: processing, shipped, samples, customs, cleared or delivered")
	cmd.MarkFlagsMutuallyExclusive("tab", "stage")
	return cmd
}
