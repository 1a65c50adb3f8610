// Package cmd defines the companion CLI command tree. Every command builds
// the dependency container in its pre-run hook; Execute flushes state back
// to disk after the command returns, so local session state survives
// restarts whether the command succeeded or not.
package cmd

import (
	"github.com/spf13/cobra"

	"ai-companion-chat/client/pkg/di"
)

var container *di.Container

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "companion",
	Short: "Chat with your AI companion from the terminal",
	Long: `companion is the terminal client for the companion chat service.

Sign in with a Google identity token, pick a character, and talk. Replies
stream in live; switch a conversation to voice mode to have spoken replies
saved alongside the text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := di.New()
		if err != nil {
			return err
		}
		container = c
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(charactersCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(plansCmd)
	rootCmd.AddCommand(creditsCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(statusCmd)
}

// SetVersion records the build version for `companion --version`.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the entry point called from main. The state flush runs here
// rather than in a post-run hook because cobra skips those when RunE
// errors, and a failed turn still has history worth persisting.
func Execute() error {
	err := rootCmd.Execute()
	if container != nil {
		if ferr := container.Shutdown(); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}
