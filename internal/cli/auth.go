package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	nameFlag     string
	emailFlag    string
	passwordFlag string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		if err := a.Sessions.Register(cmd.Context(), nameFlag, emailFlag, passwordFlag); err != nil {
			return err
		}

		user, _ := a.Sessions.User()
		fmt.Printf("Welcome, %s! You are now logged in as %s.\n", user.Name, user.Email)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with an existing account.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		if err := a.Sessions.Login(cmd.Context(), emailFlag, passwordFlag); err != nil {
			return err
		}

		user, _ := a.Sessions.User()
		fmt.Printf("Logged in as %s (%d URLs).\n", user.Email, user.URLCount)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		a.Sessions.Logout()
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireSession()
		if err != nil {
			return err
		}

		user, _ := a.Sessions.User()
		fmt.Printf("%s <%s>\nURLs owned: %d\n", user.Name, user.Email, user.URLCount)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&nameFlag, "name", "", "display name for the new account")
	registerCmd.Flags().StringVar(&emailFlag, "email", "", "account email")
	registerCmd.Flags().StringVar(&passwordFlag, "password", "", "account password")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("password")

	loginCmd.Flags().StringVar(&emailFlag, "email", "", "account email")
	loginCmd.Flags().StringVar(&passwordFlag, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
}
