package audio

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ai-companion-chat/client/pkg/errors"
	"ai-companion-chat/client/pkg/logger"
)

type stubFetcher struct {
	data []byte
	err  error
}

func (s stubFetcher) StreamSpeech(ctx context.Context, messageID string) ([]byte, error) {
	return s.data, s.err
}

type recordingPlayer struct {
	played  []string
	stopped bool
}

func (p *recordingPlayer) Play(ctx context.Context, messageID string, data []byte) error {
	p.played = append(p.played, messageID)
	return nil
}

func (p *recordingPlayer) Stop() { p.stopped = true }

func testLogger() *logger.Logger {
	return logger.New(logger.DefaultConfig())
}

func TestSpeakPlaysFetchedPayload(t *testing.T) {
	player := &recordingPlayer{}
	svc := NewService(stubFetcher{data: []byte("mp3")}, player, testLogger())

	svc.Speak(context.Background(), "m1")
	assert.Equal(t, []string{"m1"}, player.played)
}

func TestSpeakSwallowsFetchErrors(t *testing.T) {
	player := &recordingPlayer{}
	svc := NewService(stubFetcher{err: errors.New("boom")}, player, testLogger())

	svc.Speak(context.Background(), "m1")
	assert.Empty(t, player.played)
}

func TestSpeakSkipsOnCancellation(t *testing.T) {
	player := &recordingPlayer{}
	svc := NewService(stubFetcher{err: apperrors.NewCanceledError("aborted")}, player, testLogger())

	svc.Speak(context.Background(), "m1")
	assert.Empty(t, player.played)
}

func TestSpeakSkipsEmptyPayload(t *testing.T) {
	player := &recordingPlayer{}
	svc := NewService(stubFetcher{data: nil}, player, testLogger())

	svc.Speak(context.Background(), "m1")
	assert.Empty(t, player.played)
}

func TestStopForwardsToPlayer(t *testing.T) {
	player := &recordingPlayer{}
	svc := NewService(stubFetcher{}, player, testLogger())

	svc.Stop()
	assert.True(t, player.stopped)
}

func TestFilePlayerWritesPayload(t *testing.T) {
	dir := t.TempDir()
	p := &FilePlayer{Dir: dir, Log: testLogger()}

	require.NoError(t, p.Play(context.Background(), "m1", []byte("audio-bytes")))

	data, err := os.ReadFile(p.LastPath())
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))
}

func TestFilePlayerStopDropsInFlight(t *testing.T) {
	p := &FilePlayer{Dir: t.TempDir()}
	p.Stop()

	require.NoError(t, p.Play(context.Background(), "m1", []byte("late")))
	assert.Empty(t, p.LastPath())
}
