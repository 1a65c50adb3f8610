package audio

import (
	"context"

	apperrors "ai-companion-chat/client/pkg/errors"
	"ai-companion-chat/client/pkg/logger"
)

// Fetcher retrieves the voice payload for a message id; the API client
// satisfies it.
type Fetcher interface {
	StreamSpeech(ctx context.Context, messageID string) ([]byte, error)
}

// Service fetches and plays voice payloads. Every failure mode here is
// non-blocking: an empty or missing payload means playback simply does not
// start.
type Service struct {
	fetcher Fetcher
	player  Player
	log     *logger.Logger
}

// NewService wires a fetcher to a player
func NewService(fetcher Fetcher, player Player, log *logger.Logger) *Service {
	if player == nil {
		player = NopPlayer{}
	}
	return &Service{
		fetcher: fetcher,
		player:  player,
		log:     log.WithComponent("audio"),
	}
}

// Speak fetches the payload for messageID and hands it to the player
func (s *Service) Speak(ctx context.Context, messageID string) {
	data, err := s.fetcher.StreamSpeech(ctx, messageID)
	if err != nil {
		if apperrors.IsCanceled(err) {
			return
		}
		s.log.LogError(err, "voice fetch failed", "message_id", messageID)
		return
	}
	if len(data) == 0 {
		s.log.Warn("empty voice payload", "message_id", messageID)
		return
	}

	if err := s.player.Play(ctx, messageID, data); err != nil {
		s.log.LogError(err, "voice playback failed", "message_id", messageID)
	}
}

// Stop halts any pending playback
func (s *Service) Stop() {
	s.player.Stop()
}
