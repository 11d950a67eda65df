package cli

import (
	"fmt"
	"time"

	"resumescore/internal/server"

	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Issue a bearer token for the per-user API routes",
	Long: `Sign a JWT for user-id with server.jwt.secret. The token authenticates the
/me routes of the HTTP API.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		logger := getLoggerFromContext(cmd.Context())

		jwtConfig := cfg.Server.JWT
		if tokenTTL > 0 {
			jwtConfig.TTL = tokenTTL
		}
		jwtService, err := server.NewJWTService(jwtConfig)
		if err != nil {
			return err
		}

		token, expiresAt, err := jwtService.GenerateToken(args[0])
		if err != nil {
			return err
		}

		logger.Info("Token issued", "user_id", args[0], "expires_at", expiresAt.Format(time.RFC3339))
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default: server.jwt.ttl)")
}
