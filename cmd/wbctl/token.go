package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/auth"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/config"
)

func tokenCmd() *cobra.Command {
	var (
		displayName string
		expiry      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a development access token",
		Long: `Mint an access token signed with JWT_SECRET.

Pass it to the websocket endpoint as ?token=... or as a Bearer header on
the REST API.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if expiry <= 0 {
				expiry = cfg.Auth.AccessTokenExpiry
			}

			token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, expiry).GenerateAccessToken(args[0], displayName)
			if err != nil {
				return fmt.Errorf("mint token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&displayName, "name", "n", "", "Display name carried in the token")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "Token lifetime (default ACCESS_TOKEN_EXPIRY)")
	return cmd
}
