package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/config"
)

// NewTokenCmd issues a signed bearer token for a host or player, for local
// testing against a server that has auth.jwt_secret set.
func NewTokenCmd(flags *globalFlags) *cobra.Command {
	var (
		name string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token for a user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured; the server accepts X-User-ID instead")
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			token, err := auth.NewVerifier(cfg.Auth.JWTSecret, ttl).Issue(args[0], name)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	return cmd
}
