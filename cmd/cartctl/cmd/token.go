package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"solecart/internal/usertoken"
)

func tokenCmd() *cobra.Command {
	var (
		subject  string
		secret   string
		issuer   string
		audience string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token for cartd",
		Long: `Mint an HS256 access token accepted by a cartd configured with the same
secret. The secret defaults to $JWT_SECRET.

Example:
  cartctl login "$(cartctl token --sub alice)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return errors.New("a signing secret is required (--secret or JWT_SECRET)")
			}
			signer, err := usertoken.NewSigner(usertoken.Config{
				Secret:   secret,
				Issuer:   issuer,
				Audience: audience,
				TTL:      ttl,
			})
			if err != nil {
				return err
			}
			token, err := signer.Sign(subject)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "account id the token is issued for (required)")
	cmd.Flags().StringVar(&secret, "secret", "", "HS256 signing secret")
	cmd.Flags().StringVar(&issuer, "issuer", "", "token issuer (default solecart)")
	cmd.Flags().StringVar(&audience, "audience", "", "token audience (default solecart-api)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return offline(cmd)
}
