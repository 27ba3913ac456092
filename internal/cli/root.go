// Package cli wires the client's stores to a small command tree. Every
// command is a thin dispatcher: it builds the app, triggers one store
// operation, and renders the result or the store's error.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sundayezeilo/shortener-cli/internal/app"
	"github.com/sundayezeilo/shortener-cli/internal/errx"
)

var rootCmd = &cobra.Command{
	Use:           "shortlink",
	Short:         "Manage your shortened URLs from the command line.",
	Long:          "shortlink talks to the URL-shortening service: sign in once and create, list, open, and delete your short links.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errx.MessageOf(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(openCmd)
}

// buildApp wires the stores for one command invocation. The teardown
// hook tells the user to sign back in when the service rejects the
// stored credential mid-command.
func buildApp() (*app.App, error) {
	return app.New(app.Options{
		OnInvalidate: func() {
			fmt.Fprintln(os.Stderr, "Your session has expired. Please log in again.")
		},
	})
}

// requireSession builds the app and fails early when no one is signed
// in, so authenticated commands give a clear message instead of a 401.
func requireSession() (*app.App, error) {
	a, err := buildApp()
	if err != nil {
		return nil, err
	}
	if !a.Sessions.Authenticated() {
		return nil, fmt.Errorf("not logged in (run \"shortlink login\" first)")
	}
	return a, nil
}
