package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the local session state",
	RunE: func(cmd *cobra.Command, args []string) error {
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)

		if container.Session.SignedIn() {
			green.Fprintln(os.Stdout, "signed in")
			fmt.Fprintf(os.Stdout, "user:    %s\n", container.Session.UserID())
			fmt.Fprintf(os.Stdout, "account: %s\n", container.Session.AccountID())
		} else {
			red.Fprintln(os.Stdout, "signed out")
		}

		fmt.Fprintf(os.Stdout, "backend: %s\n", container.Config.API.BaseURL)
		fmt.Fprintf(os.Stdout, "credits: %.2f\n", container.Store.Credits())

		chats := container.Store.Chats()
		fmt.Fprintf(os.Stdout, "cached conversations: %d\n", len(chats))
		for _, c := range chats {
			name := c.CharacterID
			if c.Character != nil && c.Character.Name != "" {
				name = c.Character.Name
			}
			fmt.Fprintf(os.Stdout, "  %s  (%d messages, %s replies)\n",
				name, len(c.History), c.Attributes.ReturnType)
		}
		return nil
	},
}
