package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ai-companion-chat/client/internal/models"
	"ai-companion-chat/client/internal/realtime"
	"ai-companion-chat/client/internal/ui"
	apperrors "ai-companion-chat/client/pkg/errors"
)

var (
	chatRelationship string
	chatVoice        bool
)

var chatCmd = &cobra.Command{
	Use:   "chat <character-id>",
	Short: "Open a conversation with a character",
	Long: `Open (or start) a conversation with a character and talk
interactively. Replies stream in as they are generated.

In-chat commands:
  /voice               toggle between text and voice replies
  /relationship <type> change the relationship
  /history             reprint the conversation so far
  /delete              delete this conversation and leave
  exit                 leave the chat`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !container.Session.SignedIn() {
			return apperrors.NewError(apperrors.CodeNotSignedIn, "sign in first with `companion login`")
		}
		ctx := cmd.Context()
		characterID := args[0]

		sp := ui.NewSpinner("Loading conversation...")
		sp.Start()
		conv, err := container.Chat.LoadByCharacter(ctx, characterID)
		if err != nil && (apperrors.Is(err, apperrors.CodeAPI) || apperrors.Is(err, apperrors.CodeInvalidPayload)) {
			// no usable conversation yet, start one
			mode := models.ReturnType(container.Config.Chat.DefaultReturn)
			if chatVoice {
				mode = models.ReturnVoice
			}
			conv, err = container.Chat.Start(ctx, characterID, chatRelationship, mode)
		}
		sp.Stop()
		if err != nil {
			return err
		}

		name := "companion"
		if conv.Character != nil && conv.Character.Name != "" {
			name = conv.Character.Name
		}

		dim := color.New(color.Faint)
		green := color.New(color.FgGreen)

		// live balance updates for the duration of the chat
		sub, err := realtime.Subscribe(ctx, container.Config.API.SocketURL,
			container.Session.Token(), container.Session.AccountID(), container.Logger)
		if err != nil {
			dim.Fprintln(os.Stderr, "balance updates unavailable")
		} else {
			defer sub.Close()
			go func() {
				for ev := range sub.Events() {
					container.Store.SetCredits(ev.Credit)
					dim.Fprintf(os.Stderr, "\n(balance: %.2f)\n", ev.Credit)
				}
			}()
		}

		fmt.Fprintln(os.Stderr)
		ui.PrintTranscript(os.Stdout, conv)
		dim.Fprintln(os.Stderr, "Type 'exit' to leave.")
		fmt.Fprintln(os.Stderr)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			green.Fprint(os.Stderr, "you: ")
			if !scanner.Scan() {
				break
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}
			if input == "exit" || input == "quit" {
				break
			}
			if strings.HasPrefix(input, "/") {
				done, err := runChatCommand(cmd, input)
				if err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
				}
				if done {
					break
				}
				continue
			}

			renderer := ui.NewStreamRenderer(os.Stdout, name)
			if err := container.Chat.Send(ctx, input, renderer.Delta); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			finishTurn(renderer)
		}
		return scanner.Err()
	},
}

// finishTurn settles the terminal after a send: closes the streamed reply
// line and prints anything that reached history without streaming live,
// such as a moderation recovery reply or a voice-mode transcript.
func finishTurn(renderer *ui.StreamRenderer) {
	cur := container.Store.CurrentChat()
	if cur == nil || len(cur.History) == 0 {
		renderer.Finish("")
		return
	}

	last := cur.History[len(cur.History)-1]
	if last.Role == models.RoleAssistant {
		renderer.Finish(last.Content)
	} else {
		renderer.Finish("")
	}

	// a flagged user message means this turn went through moderation
	for i := len(cur.History) - 1; i >= 0; i-- {
		msg := cur.History[i]
		if msg.Role == models.RoleUser {
			if msg.ModerationFailed {
				color.New(color.FgRed).Fprintln(os.Stderr, "(your message was held by moderation)")
			}
			break
		}
	}
}

func runChatCommand(cmd *cobra.Command, input string) (bool, error) {
	ctx := cmd.Context()
	fields := strings.Fields(input)

	switch fields[0] {
	case "/voice":
		conv, err := container.Chat.ToggleReturnType(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(os.Stderr, "replies are now %s\n", conv.Attributes.ReturnType)
	case "/relationship":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: /relationship <type>")
		}
		conv, err := container.Chat.UpdateRelationship(ctx, fields[1])
		if err != nil {
			return false, err
		}
		fmt.Fprintf(os.Stderr, "relationship is now %s\n", conv.Attributes.RelationshipType)
	case "/history":
		if cur := container.Store.CurrentChat(); cur != nil {
			ui.PrintTranscript(os.Stdout, cur)
		}
	case "/delete":
		cur := container.Store.CurrentChat()
		if cur == nil {
			return true, nil
		}
		if err := container.Chat.Delete(ctx, cur.ID); err != nil {
			return false, err
		}
		fmt.Fprintln(os.Stderr, "conversation deleted")
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
	return false, nil
}

func init() {
	chatCmd.Flags().StringVar(&chatRelationship, "relationship", "friend", "Relationship type for a new conversation")
	chatCmd.Flags().BoolVar(&chatVoice, "voice", false, "Start a new conversation in voice mode")
}
