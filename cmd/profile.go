package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ai-companion-chat/client/internal/ui"
)

var (
	profileName    string
	profileAgeType string
	listAgeTypes   bool
	deleteAccount  bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the signed-in profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if listAgeTypes {
			types, err := container.API.AgeTypes(ctx)
			if err != nil {
				return err
			}
			for _, t := range types {
				fmt.Fprintln(os.Stdout, t)
			}
			return nil
		}

		if deleteAccount {
			fmt.Fprint(os.Stderr, "Delete your account and all conversations? Type 'yes' to confirm: ")
			var answer string
			fmt.Fscanln(os.Stdin, &answer)
			if strings.TrimSpace(answer) != "yes" {
				fmt.Fprintln(os.Stderr, "Aborted")
				return nil
			}
			if err := container.API.DeleteAccount(ctx); err != nil {
				return err
			}
			container.Session.SignOut()
			fmt.Fprintln(os.Stderr, "Account deleted")
			return nil
		}

		fields := map[string]string{}
		if profileName != "" {
			fields["name"] = profileName
		}
		if profileAgeType != "" {
			fields["age_type"] = profileAgeType
		}

		if len(fields) > 0 {
			user, err := container.API.UpdateProfile(ctx, fields)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(os.Stderr, "Profile updated: %s\n", user.Name)
			return nil
		}

		sp := ui.NewSpinner("Loading profile...")
		sp.Start()
		user, err := container.API.Me(ctx)
		sp.Stop()
		if err != nil {
			return err
		}
		container.Store.SetCredits(user.Credits)

		bold := color.New(color.Bold)
		bold.Fprintf(os.Stdout, "%s\n", user.Name)
		fmt.Fprintf(os.Stdout, "email:   %s\n", user.Email)
		fmt.Fprintf(os.Stdout, "age:     %s\n", user.AgeType)
		fmt.Fprintf(os.Stdout, "credits: %.2f\n", user.Credits)
		return nil
	},
}

func init() {
	profileCmd.Flags().StringVar(&profileName, "name", "", "Set the display name")
	profileCmd.Flags().StringVar(&profileAgeType, "age-type", "", "Set the age bracket")
	profileCmd.Flags().BoolVar(&listAgeTypes, "age-types", false, "List the available age brackets")
	profileCmd.Flags().BoolVar(&deleteAccount, "delete-account", false, "Permanently delete the account")
}
