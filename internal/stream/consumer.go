// Package stream consumes a chat-completion response incrementally. It
// reconstructs the assistant's reply token by token from an event stream
// (or a plain JSON fallback), detects embedded error/moderation events, and
// triggers the companion voice fetch once a message id is known.
package stream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"ai-companion-chat/client/internal/models"
	"ai-companion-chat/client/internal/textutil"
	apperrors "ai-companion-chat/client/pkg/errors"
	"ai-companion-chat/client/pkg/logger"
)

// Sentinel data lines that carry no payload.
const (
	doneSentinel = "[DONE]"
	nullSentinel = "null"
)

// HistorySink is where reconstructed messages land. The store satisfies it.
type HistorySink interface {
	UpdateChatHistory(msg models.Message, chatID string)
}

// Consumer processes one chat-completion response for one conversation. It
// never merges into any conversation other than the one it was built for.
type Consumer struct {
	chatID string
	mode   models.ReturnType
	sink   HistorySink
	log    *logger.Logger

	// OnModeration receives the details of a server-flagged message. Once it
	// fires, no further streaming is consumed for the turn.
	OnModeration func(ctx context.Context, details models.ModerationDetails)

	// OnAudio fires when the finished reply has a message id, so the caller
	// can fetch the companion voice payload.
	OnAudio func(ctx context.Context, messageID string)

	// OnDelta observes each extracted text fragment, for live rendering.
	OnDelta func(text string)
}

// New builds a consumer targeting chatID in the given return mode
func New(chatID string, mode models.ReturnType, sink HistorySink, log *logger.Logger) *Consumer {
	return &Consumer{
		chatID: chatID,
		mode:   mode,
		sink:   sink,
		log:    log.WithComponent("stream").WithChatID(chatID),
	}
}

// deltaPayload is the union of shapes a data line can carry.
type deltaPayload struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Content   string                   `json:"content"`
	Text      string                   `json:"text"`
	MessageID string                   `json:"message_id"`
	Error     json.RawMessage          `json:"error"`
	Details   models.ModerationDetails `json:"details"`
}

// text extracts the content fragment, in priority order.
func (d deltaPayload) text() string {
	if len(d.Choices) > 0 && d.Choices[0].Delta.Content != "" {
		return d.Choices[0].Delta.Content
	}
	if d.Content != "" {
		return d.Content
	}
	return d.Text
}

// flagsError reports whether the payload itself carries an error field.
func (d deltaPayload) flagsError() bool {
	return len(d.Error) > 0 && string(d.Error) != "null" && string(d.Error) != "false"
}

// Consume reads the response to completion. Cancellation of ctx aborts the
// read cleanly: the accumulated partial message stays committed and no
// error is returned. Real I/O errors are logged and swallowed the same way;
// the caller's view is always "the turn ended".
func (c *Consumer) Consume(ctx context.Context, resp *http.Response) error {
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "text/event-stream") {
		c.consumeEventStream(ctx, resp.Body)
		return nil
	}
	return c.consumeJSON(ctx, resp)
}

func (c *Consumer) consumeEventStream(ctx context.Context, body io.Reader) {
	var (
		dec       chunkDecoder
		buf       string
		eventType string
		msg       = models.Message{Role: models.RoleAssistant}
		messageID string
		aborted   bool
	)

	chunk := make([]byte, 2048)

readLoop:
	for {
		n, err := body.Read(chunk)
		if n > 0 {
			buf += dec.Decode(chunk[:n])
			for {
				nl := strings.IndexByte(buf, '\n')
				if nl < 0 {
					// incomplete trailing line stays buffered
					break
				}
				line := buf[:nl]
				buf = buf[nl+1:]
				if c.handleLine(ctx, line, &eventType, &msg, &messageID) {
					return
				}
			}
		}
		if err != nil {
			switch {
			case err == io.EOF:
				break readLoop
			case ctx.Err() != nil:
				c.log.Debug("stream read aborted", "reason", ctx.Err().Error())
				aborted = true
				break readLoop
			default:
				c.log.LogError(err, "stream read failed")
				aborted = true
				break readLoop
			}
		}
	}

	// a final line without a trailing newline is still a complete line once
	// the reader reports no more data
	if tail := buf + dec.Flush(); tail != "" && !aborted {
		c.handleLine(ctx, tail, &eventType, &msg, &messageID)
	}

	c.finish(ctx, msg, messageID, aborted)
}

// handleLine classifies one complete line. Returns true when the turn is
// over (moderation event) and no further streaming should be consumed.
func (c *Consumer) handleLine(ctx context.Context, line string, eventType *string, msg *models.Message, messageID *string) bool {
	line = strings.TrimRight(line, "\r")

	if strings.HasPrefix(line, "event: ") {
		// sticky until the next event line; data lines do not clear it
		*eventType = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		return false
	}
	if !strings.HasPrefix(line, "data: ") {
		return false
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, "data: "))
	if payload == "" || payload == doneSentinel || payload == nullSentinel {
		return false
	}

	var delta deltaPayload
	if err := json.Unmarshal([]byte(payload), &delta); err != nil {
		// malformed fragments are discarded per line, never abort the stream
		c.log.Debug("discarding unparseable stream line", "error", err.Error())
		return false
	}

	if *eventType == "error" || delta.flagsError() {
		details := delta.Details
		if details == nil {
			details = models.ModerationDetails{}
		}
		if c.OnModeration != nil {
			c.OnModeration(ctx, details)
		}
		return true
	}

	if delta.MessageID != "" {
		// latest wins
		*messageID = delta.MessageID
	}

	text := delta.text()
	if text == "" {
		return false
	}

	if textutil.IsSingleEmoji(text) {
		msg.IsBouncyEmoji = true
	}
	msg.Content += text

	if c.OnDelta != nil {
		c.OnDelta(text)
	}

	if c.mode != models.ReturnVoice {
		// text mode merges incrementally; the same-role tail grows in place
		merged := *msg
		merged.ID = *messageID
		c.sink.UpdateChatHistory(merged, c.chatID)
	}
	return false
}

// finish commits whatever accumulated and, when a message id was captured,
// kicks off the companion audio fetch. Voice replies merge only here; text
// replies were merged per delta and get a final pass to stamp the id. An
// aborted turn keeps its partial content but skips the audio fetch.
func (c *Consumer) finish(ctx context.Context, msg models.Message, messageID string, aborted bool) {
	msg.ID = messageID

	if c.mode == models.ReturnVoice {
		if msg.Content != "" || msg.IsBouncyEmoji {
			c.sink.UpdateChatHistory(msg, c.chatID)
		}
	} else if msg.Content != "" && messageID != "" {
		c.sink.UpdateChatHistory(msg, c.chatID)
	}

	if messageID != "" && !aborted && c.OnAudio != nil {
		c.OnAudio(ctx, messageID)
	}
}

// jsonReply is the non-streaming completion shape.
type jsonReply struct {
	Data struct {
		Text      string   `json:"text"`
		Emojis    []string `json:"emojis"`
		Reaction  []string `json:"reaction"`
		MessageID string   `json:"message_id"`
	} `json:"data"`
}

// filteringReply is the non-OK moderation shape.
type filteringReply struct {
	Reason  string                   `json:"reason"`
	Details models.ModerationDetails `json:"details"`
}

func (c *Consumer) consumeJSON(ctx context.Context, resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if apperrors.IsCanceled(err) || ctx.Err() != nil {
			c.log.Debug("response read aborted")
			return nil
		}
		c.log.LogError(err, "failed to read completion response")
		return apperrors.FromTransport(err)
	}

	if resp.StatusCode != http.StatusOK {
		var filtered filteringReply
		if json.Unmarshal(body, &filtered) == nil && filtered.Reason == "filtering" {
			details := filtered.Details
			if details == nil {
				details = models.ModerationDetails{}
			}
			if c.OnModeration != nil {
				c.OnModeration(ctx, details)
			}
			return nil
		}
		return apperrors.FromStatus(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var reply jsonReply
	if err := json.Unmarshal(body, &reply); err != nil {
		c.log.LogError(err, "failed to parse completion response")
		return apperrors.NewInvalidPayloadError("malformed completion payload").WithCause(err)
	}

	// emoji/reaction arrays are joined with spaces and prepended to the text
	parts := append(append([]string{}, reply.Data.Emojis...), reply.Data.Reaction...)
	text := reply.Data.Text
	if joined := strings.Join(parts, " "); joined != "" {
		text = strings.TrimSpace(joined + " " + text)
	}

	msg := models.Message{
		ID:            reply.Data.MessageID,
		Role:          models.RoleAssistant,
		Content:       text,
		IsBouncyEmoji: textutil.IsSingleEmoji(text),
	}
	c.sink.UpdateChatHistory(msg, c.chatID)

	if c.OnDelta != nil && text != "" {
		c.OnDelta(text)
	}

	if reply.Data.MessageID != "" && c.OnAudio != nil {
		c.OnAudio(ctx, reply.Data.MessageID)
	}
	return nil
}
