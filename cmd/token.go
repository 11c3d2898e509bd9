package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/AnnaCarter465/tax-advisor/auth"
	"github.com/AnnaCarter465/tax-advisor/config"
	"github.com/spf13/cobra"
)

var errNoSecret = errors.New("JWT_SECRET is not set")

func newTokenCommand() *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin token for the calculation service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if cfg.Auth.JWTSecret == "" {
				return errNoSecret
			}

			tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)

			token, expires, err := tokens.NewAdminToken(subject)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\nexpires %s\n", token, expires.Format(time.RFC3339))
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "subject of the token")

	return cmd
}
