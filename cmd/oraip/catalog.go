package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go.ngs.io/oraip-profiles/internal/adapter/product"
	"go.ngs.io/oraip-profiles/internal/domain"
)

func newBasinsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "basins",
		Short: "List the basins and their minimum depths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "BASIN\tMIN DEPTH (m)\tDEFAULT PRODUCTS")
			for _, b := range domain.AllBasins() {
				fmt.Fprintf(tw, "%s\t%g\t%d\n", b, b.MinDepth(), len(product.DefaultRoster(b)))
			}
			return tw.Flush()
		},
	}
}

func newProductsCmd() *cobra.Command {
	var basin string
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the product catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var only domain.Basin
			if basin != "" {
				b, err := domain.ParseBasin(basin)
				if err != nil {
					return err
				}
				only = b
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tLEGEND\tMODE\tYEARS\tROLE")
			for _, p := range product.Catalog() {
				if only != "" && !p.Available(only) {
					continue
				}
				role := "model"
				switch {
				case p.Reference():
					role = "reference"
				case !p.Roster:
					role = "model (not in roster)"
				}
				first, last := p.Span()
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d-%d\t%s\n", p.Name(), p.Legend(), p.Mode(), first, last, role)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&basin, "for", "", "only list products covering this basin")
	return cmd
}
