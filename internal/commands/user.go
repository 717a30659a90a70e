package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"timetracker/internal/auth"
	"timetracker/internal/models"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		firstName, _ := cmd.Flags().GetString("first-name")
		lastName, _ := cmd.Flags().GetString("last-name")
		email, _ := cmd.Flags().GetString("email")

		if strings.TrimSpace(username) == "" {
			return errors.New("--username is required")
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		u, err := store.CreateUser(cmd.Context(), models.User{
			Username:     username,
			FirstName:    firstName,
			LastName:     lastName,
			Email:        email,
			PasswordHash: hash,
		})
		if errors.Is(err, models.ErrConflict) {
			return fmt.Errorf("user %q already exists", username)
		}
		if err != nil {
			return err
		}
		log.Info("user created", "user_id", u.ID, "username", u.Username)
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", u.Username, u.ID)
		return nil
	},
}

var userPasswordCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Replace an account's password",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		hash, err := auth.HashPassword(password)
		if err != nil {
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
		if err := store.SetPassword(cmd.Context(), u.ID, hash); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", u.Username)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		users, err := store.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(users) == 0 {
			fmt.Fprintln(out, "No users found. Use 'timetracker user create' to add one.")
			return nil
		}
		fmt.Fprintf(out, "%-4s %-20s %-30s %s\n", "ID", "USERNAME", "NAME", "EMAIL")
		fmt.Fprintln(out, strings.Repeat("-", 70))
		for _, u := range users {
			name := strings.TrimSpace(u.FirstName + " " + u.LastName)
			fmt.Fprintf(out, "%-4d %-20s %-30s %s\n", u.ID, u.Username, name, u.Email)
		}
		return nil
	},
}

func init() {
	userCreateCmd.Flags().String("username", "", "login name (required)")
	userCreateCmd.Flags().String("password", "", "initial password (required)")
	userCreateCmd.Flags().String("first-name", "", "given name")
	userCreateCmd.Flags().String("last-name", "", "family name")
	userCreateCmd.Flags().String("email", "", "email address")

	userPasswordCmd.Flags().String("username", "", "login name (required)")
	userPasswordCmd.Flags().String("password", "", "new password (required)")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userPasswordCmd)
	userCmd.AddCommand(userListCmd)
}
