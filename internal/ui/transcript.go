package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"ai-companion-chat/client/internal/models"
)

var (
	companionName = color.New(color.FgMagenta, color.Bold)
	userName      = color.New(color.FgCyan, color.Bold)
	flaggedNote   = color.New(color.FgRed)
	mediaNote     = color.New(color.FgYellow)
	faintNote     = color.New(color.Faint)
)

// PrintTranscript renders a conversation's history, oldest first.
func PrintTranscript(w io.Writer, conv *models.Conversation) {
	name := "companion"
	if conv.Character != nil && conv.Character.Name != "" {
		name = conv.Character.Name
	}

	for _, msg := range conv.History {
		PrintMessage(w, name, msg)
	}
}

// PrintMessage renders a single history entry with its speaker label and
// any status annotations.
func PrintMessage(w io.Writer, companion string, msg models.Message) {
	switch msg.Role {
	case models.RoleUser:
		userName.Fprint(w, "you")
	default:
		companionName.Fprint(w, companion)
	}
	fmt.Fprint(w, ": ")

	if msg.Type == models.MessageVideo {
		mediaNote.Fprintf(w, "[video] %s\n", msg.MediaURL)
		return
	}

	fmt.Fprint(w, msg.Content)
	if msg.ModerationFailed {
		flaggedNote.Fprint(w, "  (held by moderation)")
	}
	if msg.IsResolutionResponse {
		faintNote.Fprint(w, "  (recovered)")
	}
	fmt.Fprintln(w)
}

// StreamRenderer writes reply fragments as they arrive, prefixing the
// companion's name before the first one. Its Delta method is safe to hand
// to the turn pipeline as a callback.
type StreamRenderer struct {
	w         io.Writer
	companion string
	started   bool
	wrote     bool
}

// NewStreamRenderer builds a renderer labelled with the companion's name
func NewStreamRenderer(w io.Writer, companion string) *StreamRenderer {
	return &StreamRenderer{w: w, companion: companion}
}

// Delta writes one reply fragment
func (r *StreamRenderer) Delta(text string) {
	if text == "" {
		return
	}
	if !r.started {
		companionName.Fprint(r.w, r.companion)
		fmt.Fprint(r.w, ": ")
		r.started = true
	}
	fmt.Fprint(r.w, text)
	r.wrote = true
}

// Finish terminates the reply line. Safe to call when nothing streamed.
func (r *StreamRenderer) Finish(full string) {
	if r.wrote {
		if !strings.HasSuffix(full, "\n") {
			fmt.Fprintln(r.w)
		}
		return
	}
	// nothing streamed live, print the merged result if there is one
	if full != "" {
		companionName.Fprint(r.w, r.companion)
		fmt.Fprintf(r.w, ": %s\n", full)
	}
}
