package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"solecart/pkg/cart"
)

func (c *cli) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <token>",
		Short: "Store an access token and move the guest cart to the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.session.Set(ctx, args[0]); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			res, err := c.svc.Sync(ctx)
			if err != nil {
				return fmt.Errorf("logged in, but cart sync failed: %w", err)
			}
			return printSync(cmd, res)
		},
	}
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.session.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear token: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return err
		},
	}
}

func (c *cli) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push the guest cart to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.svc.Sync(cmd.Context())
			if err != nil {
				return err
			}
			return printSync(cmd, res)
		},
	}
}

func printSync(cmd *cobra.Command, res cart.SyncResult) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "synced: %d pushed, %d kept locally\n", res.Pushed, len(res.Failed))
	return printCart(out, res.Items)
}
