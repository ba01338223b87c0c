package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brail/marketplace/internal/client"
)

func newCategoriesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List product categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, c := range g.client().Categories(cmd.Context()) {
				fmt.Fprintf(tw, "%s\t%s %s\n", c.ID, c.Icon, c.Name)
			}
			return tw.Flush()
		},
	}
}

func newProductsCmd(g *globals) *cobra.Command {
	var (
		query string
		page  int
	)
	cmd := &cobra.Command{
		Use:   "products <category-id>",
		Short: "List the products of a category, 8 per page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items := client.FilterProducts(g.client().ProductsByCategory(cmd.Context(), args[0]), query)
			p := client.NewPaginator(items, 0)
			if !p.GoTo(page) {
				return fmt.Errorf("page %d out of range 1..%d", page, p.TotalPages())
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tMOQ\tSTOCK")
			for _, it := range p.Items() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", it.ID, it.Title, it.Price.StringFixed(2), it.MOQ, it.Available)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d products)\n", p.Page(), p.TotalPages(), len(items))
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by title or description")
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	return cmd
}
