package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ai-companion-chat/client/internal/api"
	"ai-companion-chat/client/internal/ui"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <recording>",
	Short: "Turn a voice recording into text",
	Long: `Upload a recording and print the recognized text. Useful for
dictating a message before sending it with the chat command.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		sp := ui.NewSpinner("Transcribing...")
		sp.Start()
		text, err := container.API.Transcribe(cmd.Context(), api.TranscribeRequest{
			Voice:     f,
			DataType:  container.Config.Chat.TranscribeType,
			ModelName: container.Config.Chat.ModelName,
			FileName:  filepath.Base(args[0]),
		})
		sp.Stop()
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, text)
		return nil
	},
}
