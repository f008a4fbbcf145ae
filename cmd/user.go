package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/pidruchnyk/internal/auth"
	"github.com/abhisek/pidruchnyk/internal/content"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account, e.g. the first admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		name, _ := cmd.Flags().GetString("name")
		admin, _ := cmd.Flags().GetBool("admin")
		role := content.RoleUser
		if admin {
			role = content.RoleAdmin
		}

		st, _, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		// Sessions are not needed to create an account.
		svc := auth.NewService(st, nil, 0)
		u, err := svc.CreateUser(cmd.Context(), email, password, name, role)
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			return fmt.Errorf("an account for %s already exists", email)
		case errors.Is(err, auth.ErrWeakPassword):
			return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
		case err != nil:
			return err
		}
		fmt.Printf("Created %s account %s (%s).\n", u.Role, u.Email, u.ID)
		return nil
	},
}

func init() {
	f := userCreateCmd.Flags()
	f.String("email", "", "Email address")
	f.String("password", "", "Password")
	f.String("name", "", "Display name (default: part of the email before @)")
	f.Bool("admin", false, "Grant the admin role")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
}
