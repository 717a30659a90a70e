package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"timetracker/internal/auth"
	"timetracker/internal/models"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token for a user",
	Long: `token prints a signed bearer token for the named user, suitable for the
Authorization header of API requests. It is signed with TIMETRACKER_JWT_SECRET
and expires after TIMETRACKER_TOKEN_TTL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		if err := cfg.RequireSecret(); err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		u, err := store.GetUserByUsername(cmd.Context(), username)
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("no user named %q", username)
		}
		if err != nil {
			return err
		}

		tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			return err
		}
		token, expires, err := tokens.Issue(u.ID)
		if err != nil {
			return err
		}
		log.Debug("token issued", "user_id", u.ID, "expires_at", expires.Format(time.RFC3339))
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("username", "", "account to issue the token for (required)")
}
