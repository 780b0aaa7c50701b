package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/auth"
)

func newTokenCmd(e *env) *cobra.Command {
	var (
		secret string
		email  string
		expiry time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token for a signed-in owner",
		Long: `token signs a JWT the storefront service accepts as a signed-in owner.
The secret defaults to $STOREFRONT_JWT_SECRET.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("STOREFRONT_JWT_SECRET")
			}
			if secret == "" {
				return errors.New("no signing secret: pass --secret or set STOREFRONT_JWT_SECRET")
			}

			token, err := auth.NewJWTManager(secret, expiry).GenerateToken(args[0], email)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC signing secret")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&expiry, "expiry", 24*time.Hour, "token lifetime")
	return cmd
}
