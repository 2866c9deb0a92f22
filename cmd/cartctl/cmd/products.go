package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *cli) productsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := c.client.ListProducts(cmd.Context())
			if err != nil {
				return fmt.Errorf("list products: %w", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), products)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSIZES")
			for _, p := range products {
				id, _ := p.ResolveID()
				sizes := make([]string, 0, len(p.Sizes))
				for _, s := range p.Sizes {
					sizes = append(sizes, s.String())
				}
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", id, p.Name, p.Price, strings.Join(sizes, ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}
