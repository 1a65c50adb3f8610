package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ai-companion-chat/client/internal/ui"
)

var relationshipsFor string

var charactersCmd = &cobra.Command{
	Use:   "characters",
	Short: "List the character catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		if relationshipsFor != "" {
			types, err := container.API.RelationshipTypes(cmd.Context(), relationshipsFor)
			if err != nil {
				return err
			}
			for _, t := range types {
				fmt.Fprintln(os.Stdout, t)
			}
			return nil
		}

		sp := ui.NewSpinner("Loading characters...")
		sp.Start()
		chars, err := container.API.Characters(cmd.Context())
		sp.Stop()
		if err != nil {
			return err
		}
		container.Store.SetCharacters(chars)

		if len(chars) == 0 {
			fmt.Fprintln(os.Stderr, "No characters available")
			return nil
		}

		bold := color.New(color.Bold)
		dim := color.New(color.Faint)
		for _, ch := range chars {
			bold.Fprintf(os.Stdout, "%s", ch.Name)
			dim.Fprintf(os.Stdout, "  (%s)\n", ch.ID)
			if ch.Summary != "" {
				fmt.Fprintf(os.Stdout, "  %s\n", ch.Summary)
			}
			if len(ch.RelationshipTypes) > 0 {
				dim.Fprintf(os.Stdout, "  relationships: %s\n", strings.Join(ch.RelationshipTypes, ", "))
			}
		}
		return nil
	},
}

func init() {
	charactersCmd.Flags().StringVar(&relationshipsFor, "relationships", "", "List the relationship types for a character id")
}
