package api

import (
	"context"
	"fmt"
	"net/http"

	"ai-companion-chat/client/internal/models"
	apperrors "ai-companion-chat/client/pkg/errors"
)

// ChatCreated is the response to starting a new relationship: the new
// conversation id plus the character's opening line.
type ChatCreated struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	MessageID string `json:"message_id"`
}

// CreateChat starts a conversation with a character
func (c *Client) CreateChat(ctx context.Context, characterID, relationshipType string, returnType models.ReturnType) (ChatCreated, error) {
	body := map[string]string{
		"character_id":      characterID,
		"relationship_type": relationshipType,
		"return_type":       string(returnType),
	}
	var resp struct {
		Data ChatCreated `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/chats", body, &resp); err != nil {
		return ChatCreated{}, err
	}
	if resp.Data.ID == "" {
		return ChatCreated{}, apperrors.NewInvalidPayloadError("chat created without an id")
	}
	return resp.Data, nil
}

// ChatByCharacter loads the conversation for a character, history included.
// A payload with the server error marker comes back as-is: the store is the
// boundary that filters it.
func (c *Client) ChatByCharacter(ctx context.Context, characterID string) (models.Conversation, error) {
	raw, err := c.doRaw(ctx, http.MethodGet, "/chats/by-character/"+characterID, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	conv, err := models.DecodeConversation(raw)
	if err != nil {
		return models.Conversation{}, apperrors.NewInvalidPayloadError("malformed conversation payload").WithCause(err)
	}
	return conv, nil
}

// DeleteChat removes a conversation server-side
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/chats/"+chatID, nil, nil)
}

// ToggleReturnType flips a conversation between text and voice replies
func (c *Client) ToggleReturnType(ctx context.Context, chatID string) (models.Conversation, error) {
	raw, err := c.doRaw(ctx, http.MethodPatch, fmt.Sprintf("/chats/%s/toggle-return-type", chatID), nil)
	if err != nil {
		return models.Conversation{}, err
	}
	conv, err := models.DecodeConversation(raw)
	if err != nil {
		return models.Conversation{}, apperrors.NewInvalidPayloadError("malformed conversation payload").WithCause(err)
	}
	return conv, nil
}

// UpdateRelationship changes the relationship label of a conversation
func (c *Client) UpdateRelationship(ctx context.Context, chatID, relationshipType string) (models.Conversation, error) {
	body := map[string]string{"relationship_type": relationshipType}
	raw, err := c.doRaw(ctx, http.MethodPatch, fmt.Sprintf("/chats/%s/update-relationship", chatID), body)
	if err != nil {
		return models.Conversation{}, err
	}
	conv, err := models.DecodeConversation(raw)
	if err != nil {
		return models.Conversation{}, apperrors.NewInvalidPayloadError("malformed conversation payload").WithCause(err)
	}
	return conv, nil
}

// SendCompletion posts the message history and returns the raw response,
// event stream or JSON, for the stream consumer to own.
func (c *Client) SendCompletion(ctx context.Context, chatID string, messages []models.Message) (*http.Response, error) {
	body := map[string]any{"messages": messages}
	return c.doStream(ctx, http.MethodPost, "/chat-completions/"+chatID, body)
}

// ModerationResolution is the assistant's recovery reply after a filtering
// decision was escalated.
type ModerationResolution struct {
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

// ResolveModeration escalates moderation details for a conversation
func (c *Client) ResolveModeration(ctx context.Context, chatID string, details models.ModerationDetails) (ModerationResolution, error) {
	body := map[string]any{"details": details}
	var resp struct {
		Data ModerationResolution `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/moderation-resolutions/"+chatID, body, &resp); err != nil {
		return ModerationResolution{}, err
	}
	return resp.Data, nil
}
