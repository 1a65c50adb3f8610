package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ai-companion-chat/client/internal/session"
	"ai-companion-chat/client/internal/ui"
)

var loginCmd = &cobra.Command{
	Use:   "login <google-id-token>",
	Short: "Sign in with a Google identity token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sp := ui.NewSpinner("Signing in...")
		sp.Start()
		signIn, err := container.API.GoogleAuth(cmd.Context(), args[0])
		sp.Stop()
		if err != nil {
			return err
		}

		if err := container.Session.SignIn(signIn.Token); err != nil {
			return err
		}
		container.Store.SetCredits(signIn.User.Credits)

		green := color.New(color.FgGreen)
		name := signIn.User.Name
		if name == "" {
			name = signIn.User.Email
		}
		green.Fprintf(os.Stderr, "Signed in as %s\n", name)
		fmt.Fprintf(os.Stderr, "Credit balance: %.2f\n", signIn.User.Credits)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the local session",
	RunE: func(cmd *cobra.Command, args []string) error {
		container.Session.SignOut()
		if err := session.Clear(container.Config.State.Dir); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Signed out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
