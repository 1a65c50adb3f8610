package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-companion-chat/client/internal/models"
	"ai-companion-chat/client/pkg/logger"
)

type recordingSink struct {
	messages []models.Message
	chatIDs  []string
}

func (r *recordingSink) UpdateChatHistory(msg models.Message, chatID string) {
	r.messages = append(r.messages, msg)
	r.chatIDs = append(r.chatIDs, chatID)
}

func (r *recordingSink) last() models.Message {
	return r.messages[len(r.messages)-1]
}

func sseResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/event-stream; charset=utf-8"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.DefaultConfig())
}

func TestConsumeEventStreamAccumulatesDeltas(t *testing.T) {
	sink := &recordingSink{}
	c := New("chat-1", models.ReturnText, sink, testLogger())

	var audioID string
	c.OnAudio = func(ctx context.Context, id string) { audioID = id }

	body := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"A"}}]}`,
		`data: {"choices":[{"delta":{"content":"B"}}]}`,
		`data: {"message_id":"m1"}`,
		`data: [DONE]`,
		"",
	}, "\n")

	err := c.Consume(context.Background(), sseResponse(body))
	require.NoError(t, err)

	require.NotEmpty(t, sink.messages)
	last := sink.last()
	assert.Equal(t, "AB", last.Content)
	assert.Equal(t, "m1", last.ID)
	assert.Equal(t, models.RoleAssistant, last.Role)
	assert.Equal(t, "chat-1", sink.chatIDs[0])
	assert.Equal(t, "m1", audioID)
}

func TestConsumeEventStreamTextModeMergesPerDelta(t *testing.T) {
	sink := &recordingSink{}
	c := New("chat-1", models.ReturnText, sink, testLogger())

	var deltas []string
	c.OnDelta = func(text string) { deltas = append(deltas, text) }

	body := "data: {\"content\":\"he\"}\ndata: {\"content\":\"llo\"}\n"
	require.NoError(t, c.Consume(context.Background(), sseResponse(body)))

	assert.Equal(t, []string{"he", "llo"}, deltas)
	// each delta merged, growing in place
	require.GreaterOrEqual(t, len(sink.messages), 2)
	assert.Equal(t, "he", sink.messages[0].Content)
	assert.Equal(t, "hello", sink.messages[1].Content)
}

func TestConsumeEventStreamSkipsSentinelsAndBadJSON(t *testing.T) {
	sink := &recordingSink{}
	c := New("chat-1", models.ReturnText, sink, testLogger())

	body := strings.Join([]string{
		`data: [DONE]`,
		`data: null`,
		`data: `,
		`data: {not json`,
		`data: {"content":"ok","message_id":"m1"}`,
		"",
	}, "\n")

	require.NoError(t, c.Consume(context.Background(), sseResponse(body)))
	require.NotEmpty(t, sink.messages)
	assert.Equal(t, "ok", sink.last().Content)
}

func TestConsumeEventStreamModerationEventStopsTurn(t *testing.T) {
	sink := &recordingSink{}
	c := New("chat-1", models.ReturnText, sink, testLogger())

	var details models.ModerationDetails
	moderated := false
	c.OnModeration = func(ctx context.Context, d models.ModerationDetails) {
		moderated = true
		details = d
	}
	audioCalled := false
	c.OnAudio = func(context.Context, string) { audioCalled = true }

	body := strings.Join([]string{
		"event: error",
		`data: {"details":["sexual_content"]}`,
		`data: {"content":"never seen"}`,
		"",
	}, "\n")

	require.NoError(t, c.Consume(context.Background(), sseResponse(body)))

	assert.True(t, moderated)
	require.Len(t, details, 1)
	assert.Equal(t, "sexual_content", details[0])
	assert.Empty(t, sink.messages)
	assert.False(t, audioCalled)
}

func TestConsumeEventStreamInlineErrorField(t *testing.T) {
	sink := &recordingSink{}
	c := New("chat-1", models.ReturnText, sink, testLogger())

	var details models.ModerationDetails
	c.OnModeration = func(ctx context.Context, d models.ModerationDetails) { details = d }

	body := "data: {\"error\":{\"message\":\"flagged\"}}\n"
	require.NoError(t, c.Consume(context.Background(), sseResponse(body)))

	// details default to an empty, non-nil list
	require.NotNil(t, details)
	assert.Empty(t, details)
}

func TestConsumeEventStreamVoiceModeMergesOnce(t *testing.T) {
	sink := &recordingSink{}
	c := New("chat-1", models.ReturnVoice, sink, testLogger())

	body := strings.Join([]string{
		`data: {"content":"he"}`,
		`data: {"content":"llo"}`,
		`data: {"message_id":"m9"}`,
		"",
	}, "\n")

	require.NoError(t, c.Consume(context.Background(), sseResponse(body)))

	require.Len(t, sink.messages, 1)
	assert.Equal(t, "hello", sink.messages[0].Content)
	assert.Equal(t, "m9", sink.messages[0].ID)
}

func TestConsumeEventStreamSingleEmojiDeltaSetsBouncy(t *testing.T) {
	sink := &recordingSink{}
	c := New("chat-1", models.ReturnText, sink, testLogger())

	body := "data: {\"content\":\"🎉\",\"message_id\":\"m1\"}\n"
	require.NoError(t, c.Consume(context.Background(), sseResponse(body)))

	require.NotEmpty(t, sink.messages)
	assert.True(t, sink.last().IsBouncyEmoji)
}

func TestConsumeEventStreamFinalLineWithoutNewline(t *testing.T) {
	sink := &recordingSink{}
	c := New("chat-1", models.ReturnText, sink, testLogger())

	body := `data: {"content":"tail","message_id":"m1"}`
	require.NoError(t, c.Consume(context.Background(), sseResponse(body)))

	require.NotEmpty(t, sink.messages)
	assert.Equal(t, "tail", sink.last().Content)
}

// drip yields one byte per Read call, exercising every possible chunk
// boundary inside lines and multi-byte runes.
type drip struct {
	data []byte
}

func (d *drip) Read(p []byte) (int, error) {
	if len(d.data) == 0 {
		return 0, io.EOF
	}
	p[0] = d.data[0]
	d.data = d.data[1:]
	return 1, nil
}

func TestConsumeEventStreamByteAtATime(t *testing.T) {
	sink := &recordingSink{}
	c := New("chat-1", models.ReturnText, sink, testLogger())

	body := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"A"}}]}`,
		`data: {"choices":[{"delta":{"content":"B"}}]}`,
		`data: {"content":"émoji 😀","message_id":"m1"}`,
		`data: [DONE]`,
		"",
	}, "\n")

	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
		Body:       io.NopCloser(&drip{data: []byte(body)}),
	}

	require.NoError(t, c.Consume(context.Background(), resp))
	require.NotEmpty(t, sink.messages)
	assert.Equal(t, "ABémoji 😀", sink.last().Content)
	assert.Equal(t, "m1", sink.last().ID)
}

// failingReader yields some payload and then a read error.
type failingReader struct {
	data io.Reader
	err  error
	done bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.done {
		n, err := f.data.Read(p)
		if err == io.EOF {
			f.done = true
			return n, nil
		}
		return n, err
	}
	return 0, f.err
}

func TestConsumeEventStreamCancellationKeepsPartial(t *testing.T) {
	sink := &recordingSink{}
	c := New("chat-1", models.ReturnText, sink, testLogger())

	audioCalled := false
	c.OnAudio = func(context.Context, string) { audioCalled = true }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
		Body: io.NopCloser(&failingReader{
			data: strings.NewReader("data: {\"content\":\"part\",\"message_id\":\"m1\"}\n"),
			err:  context.Canceled,
		}),
	}

	err := c.Consume(ctx, resp)
	require.NoError(t, err)

	// partial stays committed, audio skipped
	require.NotEmpty(t, sink.messages)
	assert.Equal(t, "part", sink.last().Content)
	assert.False(t, audioCalled)
}

func TestConsumeEventStreamReadErrorSwallowed(t *testing.T) {
	sink := &recordingSink{}
	c := New("chat-1", models.ReturnText, sink, testLogger())

	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
		Body: io.NopCloser(&failingReader{
			data: strings.NewReader("data: {\"content\":\"part\"}\n"),
			err:  errors.New("connection reset"),
		}),
	}

	assert.NoError(t, c.Consume(context.Background(), resp))
}

func TestConsumeJSONFallbackPrependsEmojisAndReactions(t *testing.T) {
	sink := &recordingSink{}
	c := New("chat-1", models.ReturnText, sink, testLogger())

	var audioID string
	c.OnAudio = func(ctx context.Context, id string) { audioID = id }

	body := `{"data":{"text":"hello","emojis":["😊"],"reaction":["*waves*"],"message_id":"m2"}}`
	require.NoError(t, c.Consume(context.Background(), jsonResponse(http.StatusOK, body)))

	require.Len(t, sink.messages, 1)
	assert.Equal(t, "😊 *waves* hello", sink.messages[0].Content)
	assert.Equal(t, "m2", sink.messages[0].ID)
	assert.Equal(t, "m2", audioID)
}

func TestConsumeJSONFallbackFilteringDecision(t *testing.T) {
	sink := &recordingSink{}
	c := New("chat-1", models.ReturnText, sink, testLogger())

	var details models.ModerationDetails
	c.OnModeration = func(ctx context.Context, d models.ModerationDetails) { details = d }

	body := `{"reason":"filtering","details":["violence"]}`
	require.NoError(t, c.Consume(context.Background(), jsonResponse(http.StatusUnprocessableEntity, body)))

	require.Len(t, details, 1)
	assert.Equal(t, "violence", details[0])
	assert.Empty(t, sink.messages)
}

func TestConsumeJSONFallbackPlainErrorSurfaces(t *testing.T) {
	sink := &recordingSink{}
	c := New("chat-1", models.ReturnText, sink, testLogger())

	err := c.Consume(context.Background(), jsonResponse(http.StatusInternalServerError, `{"message":"boom"}`))
	assert.Error(t, err)
	assert.Empty(t, sink.messages)
}

func TestConsumeJSONFallbackSingleEmojiTextBouncy(t *testing.T) {
	sink := &recordingSink{}
	c := New("chat-1", models.ReturnVoice, sink, testLogger())

	body := `{"data":{"text":"❤️","message_id":"m3"}}`
	require.NoError(t, c.Consume(context.Background(), jsonResponse(http.StatusOK, body)))

	require.Len(t, sink.messages, 1)
	assert.True(t, sink.messages[0].IsBouncyEmoji)
}
