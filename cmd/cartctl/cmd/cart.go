package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"solecart/pkg/cart"
	"solecart/pkg/domain"
)

func (c *cli) listCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items := c.svc.GetCart(cmd.Context())
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			return printCart(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the cart as JSON")
	return cmd
}

func (c *cli) totalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "total",
		Short: "Print the cart total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%.2f\n", c.svc.GetTotal(cmd.Context()))
			return err
		},
	}
}

func (c *cli) addCmd() *cobra.Command {
	var (
		size  string
		qty   int
		name  string
		price float64
		image string
	)
	cmd := &cobra.Command{
		Use:   "add <productId>",
		Short: "Add a product to the cart",
		Long: `Add a product in one size. Name, price and image are taken from the
catalog unless given as flags.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			product := domain.Product{ProductID: domain.ID(args[0])}
			manual := cmd.Flags().Changed("name") || cmd.Flags().Changed("price") || cmd.Flags().Changed("image")
			if !manual {
				found, err := c.client.GetProduct(ctx, args[0])
				if err != nil {
					c.logger.Warn("catalog lookup failed, adding without product details", "product_id", args[0], "err", err)
				} else {
					product = found
				}
			} else {
				product.Name, product.Price, product.Image = name, price, image
			}
			items, err := c.svc.AddToCart(ctx, product, qty, domain.NormalizeSize(size))
			if err != nil {
				return explain(err)
			}
			return printCart(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().StringVar(&size, "size", "", "size label (required)")
	cmd.Flags().IntVar(&qty, "qty", 1, "quantity to add; negative decrements")
	cmd.Flags().StringVar(&name, "name", "", "product name")
	cmd.Flags().Float64Var(&price, "price", 0, "unit price")
	cmd.Flags().StringVar(&image, "image", "", "product image URL")
	return cmd
}

func (c *cli) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <productId> <size>",
		Short: "Remove a row from the cart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			items := c.svc.RemoveFromCart(cmd.Context(), args[0], domain.NormalizeSize(args[1]))
			return printCart(cmd.OutOrStdout(), items)
		},
	}
}

func (c *cli) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <productId> <size> <quantity>",
		Short: "Set the quantity of a row; 0 removes it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[2])
			}
			items := c.svc.UpdateCartItem(cmd.Context(), args[0], domain.NormalizeSize(args[1]), qty)
			return printCart(cmd.OutOrStdout(), items)
		},
	}
}

func (c *cli) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.svc.ClearCart(cmd.Context()); err != nil {
				return explain(err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "cart cleared")
			return err
		},
	}
}

func explain(err error) error {
	switch {
	case errors.Is(err, cart.ErrSizeRequired):
		return errors.New("a size is required (use --size)")
	case errors.Is(err, cart.ErrMissingProductID):
		return errors.New("product has no id")
	case cart.IsUnauthorized(err):
		return fmt.Errorf("session rejected by server, run \"cartctl login\" again: %w", err)
	}
	return err
}

func printCart(w io.Writer, items domain.Lines) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "cart is empty")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tSIZE\tQTY\tPRICE\tSUBTOTAL\tNAME")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%.2f\t%s\n", it.ProductID, it.Size, it.Quantity, it.Price, it.Subtotal(), it.Name)
	}
	fmt.Fprintf(tw, "\t\t%d\t\t%.2f\t\n", items.Count(), items.Total())
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
