// Package chat orchestrates a conversation turn end to end: the optimistic
// local echo, the completion request, stream consumption, moderation
// escalation and the follow-up voice fetch. It owns no state of its own;
// the store is the single source of truth for history.
package chat

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"ai-companion-chat/client/internal/api"
	"ai-companion-chat/client/internal/audio"
	"ai-companion-chat/client/internal/models"
	"ai-companion-chat/client/internal/store"
	"ai-companion-chat/client/internal/stream"
	"ai-companion-chat/client/internal/textutil"
	apperrors "ai-companion-chat/client/pkg/errors"
	"ai-companion-chat/client/pkg/logger"
)

// Service drives conversation turns against the active chat
type Service struct {
	api     *api.Client
	store   *store.Store
	audio   *audio.Service
	limiter *rate.Limiter
	log     *logger.Logger
}

// New wires the turn pipeline. The limiter throttles outgoing sends so a
// paste flood cannot hammer the completion endpoint.
func New(apiClient *api.Client, st *store.Store, speaker *audio.Service, limiter *rate.Limiter, log *logger.Logger) *Service {
	return &Service{
		api:     apiClient,
		store:   st,
		audio:   speaker,
		limiter: limiter,
		log:     log.WithComponent("chat"),
	}
}

// Start creates a conversation with a character and makes it current. The
// opening line arrives with the create response and is merged like any
// assistant message.
func (s *Service) Start(ctx context.Context, characterID, relationshipType string, returnType models.ReturnType) (*models.Conversation, error) {
	created, err := s.api.CreateChat(ctx, characterID, relationshipType, returnType)
	if err != nil {
		return nil, err
	}

	conv := models.Conversation{
		ID:          created.ID,
		CharacterID: characterID,
		Attributes: models.Attributes{
			ReturnType:       returnType,
			RelationshipType: relationshipType,
		},
	}
	s.store.SetCurrentChat(conv)

	if created.Text != "" {
		s.store.UpdateChatHistory(models.Message{
			ID:            created.MessageID,
			Role:          models.RoleAssistant,
			Content:       created.Text,
			IsBouncyEmoji: textutil.IsSingleEmoji(created.Text),
		}, created.ID)
		if created.MessageID != "" {
			s.audio.Speak(ctx, created.MessageID)
		}
	}
	return s.store.CurrentChat(), nil
}

// LoadByCharacter fetches the conversation for a character and makes it
// current, merging it with any cached copy. A server error marker or an
// id-less payload is rejected before it touches the store, so whatever
// conversation was current stays current and untouched.
func (s *Service) LoadByCharacter(ctx context.Context, characterID string) (*models.Conversation, error) {
	conv, err := s.api.ChatByCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if !conv.Valid() {
		return nil, apperrors.NewInvalidPayloadError("no usable conversation for this character")
	}
	s.store.SetCurrentChat(conv)
	return s.store.CurrentChat(), nil
}

// Delete removes a conversation server-side and locally
func (s *Service) Delete(ctx context.Context, chatID string) error {
	if err := s.api.DeleteChat(ctx, chatID); err != nil {
		return err
	}
	s.store.DeleteChat(chatID)
	return nil
}

// ToggleReturnType flips the active conversation between text and voice
func (s *Service) ToggleReturnType(ctx context.Context) (*models.Conversation, error) {
	cur := s.store.CurrentChat()
	if cur == nil {
		return nil, apperrors.NewNoActiveChatError()
	}
	conv, err := s.api.ToggleReturnType(ctx, cur.ID)
	if err != nil {
		return nil, err
	}
	s.store.SetCurrentChat(conv)
	return s.store.CurrentChat(), nil
}

// UpdateRelationship changes the relationship label of the active chat
func (s *Service) UpdateRelationship(ctx context.Context, relationshipType string) (*models.Conversation, error) {
	cur := s.store.CurrentChat()
	if cur == nil {
		return nil, apperrors.NewNoActiveChatError()
	}
	conv, err := s.api.UpdateRelationship(ctx, cur.ID, relationshipType)
	if err != nil {
		return nil, err
	}
	s.store.SetCurrentChat(conv)
	return s.store.CurrentChat(), nil
}

// Send runs one full turn: echo the user's text into history immediately,
// post the completion request, and let the stream consumer reconstruct the
// reply. onDelta, if non-nil, observes each text fragment as it lands.
//
// Cancellation mid-stream is not an error: whatever partial reply arrived
// stays in history and the voice fetch is skipped.
func (s *Service) Send(ctx context.Context, text string, onDelta func(string)) error {
	cur := s.store.CurrentChat()
	if cur == nil {
		return apperrors.NewNoActiveChatError()
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return apperrors.FromTransport(err)
	}

	userMsg := models.Message{
		ID:            uuid.NewString(),
		Role:          models.RoleUser,
		Content:       text,
		IsBouncyEmoji: textutil.IsSingleEmoji(text),
	}
	s.store.UpdateChatHistory(userMsg, cur.ID)

	cur = s.store.CurrentChat()
	resp, err := s.api.SendCompletion(ctx, cur.ID, cur.History)
	if err != nil {
		return err
	}

	consumer := stream.New(cur.ID, cur.Attributes.ReturnType, s.store, s.log)
	consumer.OnDelta = onDelta
	consumer.OnModeration = func(ctx context.Context, details models.ModerationDetails) {
		s.resolveModeration(ctx, cur.ID, userMsg, details)
	}
	// Companion audio is fetched in both modes; in text mode the payload is
	// kept as a voice-over rather than played inline.
	consumer.OnAudio = func(ctx context.Context, messageID string) {
		s.audio.Speak(ctx, messageID)
	}
	return consumer.Consume(ctx, resp)
}

// resolveModeration handles a server filtering decision for the turn. The
// user's message stays in history, flagged, and the escalation endpoint
// supplies the assistant's recovery reply.
func (s *Service) resolveModeration(ctx context.Context, chatID string, userMsg models.Message, details models.ModerationDetails) {
	flagged := userMsg
	flagged.ModerationFailed = true
	s.store.UpdateChatHistory(flagged, chatID)

	resolution, err := s.api.ResolveModeration(ctx, chatID, details)
	if err != nil {
		s.log.LogError(err, "moderation escalation failed", "chat_id", chatID)
		return
	}
	if resolution.Text == "" {
		s.log.Warn("moderation resolution carried no reply", "chat_id", chatID)
		return
	}

	s.store.UpdateChatHistory(models.Message{
		ID:                   resolution.MessageID,
		Role:                 models.RoleAssistant,
		Content:              resolution.Text,
		IsResolutionResponse: true,
		IsBouncyEmoji:        textutil.IsSingleEmoji(resolution.Text),
	}, chatID)

	if resolution.MessageID != "" {
		s.audio.Speak(ctx, resolution.MessageID)
	}
}
