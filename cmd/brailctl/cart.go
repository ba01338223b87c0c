package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brail/marketplace/internal/client"
	"github.com/brail/marketplace/internal/marketplace/infra/httpx"
)

func newCartCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or edit the cart of the logged-in user",
	}
	cmd.AddCommand(newCartShowCmd(g), newCartSetCmd(g))
	return cmd
}

func newCartShowCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print cart lines and the minimum investment progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := g.client()
			cartID, err := c.CartID(cmd.Context())
			if err != nil {
				return fmt.Errorf("cart: %s", client.ErrorMessage(err))
			}
			return printCart(cmd.OutOrStdout(), c.CartData(cmd.Context(), cartID))
		},
	}
}

func newCartSetCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "set <item-id> <quantity>",
		Short: "Change a line quantity; values below the MOQ are raised to it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}

			ctx := cmd.Context()
			c := g.client()
			cartID, err := c.CartID(ctx)
			if err != nil {
				return fmt.Errorf("cart: %s", client.ErrorMessage(err))
			}

			editor := client.NewCartEditor(c, c.CartData(ctx, cartID))
			if err := editor.SetQuantity(itemID, qty); err != nil {
				return err
			}
			line, _ := editor.Line(itemID)
			if line.Quantity != qty {
				fmt.Fprintf(cmd.OutOrStdout(), "quantity raised to the MOQ of %d\n", line.MOQ)
			}
			if err := editor.Confirm(ctx, itemID); err != nil {
				return fmt.Errorf("update rejected, kept %d: %s", line.OriginalQuantity, client.ErrorMessage(err))
			}

			line, _ = editor.Line(itemID)
			fmt.Fprintf(cmd.OutOrStdout(), "line %d: %d x %s = %s\n",
				line.ID, line.Quantity, line.UnitPrice.StringFixed(2), line.TotalPrice.StringFixed(2))
			return nil
		},
	}
}

func printCart(w io.Writer, cart *httpx.CartResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tPRODUCT\tQTY\tMOQ\tUNIT\tTOTAL")
	for _, l := range cart.Items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\n",
			l.ID, l.Name, l.Quantity, l.MOQ, l.UnitPrice.StringFixed(2), l.TotalPrice.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	s := cart.Summary
	fmt.Fprintf(w, "total %s of %s minimum (%s%%), %s to go. %s\n",
		s.TotalAmount.StringFixed(2), s.MinInvestment.StringFixed(2),
		s.ProgressPercentage.StringFixed(1), s.RemainingAmount.StringFixed(2), s.ShippingNote)
	return nil
}
