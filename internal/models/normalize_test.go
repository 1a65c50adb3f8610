package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConversationFlat(t *testing.T) {
	raw := []byte(`{
		"id": "chat-1",
		"attributes": {"return_type": "voice", "relationship_type": "friend"},
		"character_id": "char-1",
		"chatHistory": [{"role": "user", "content": "hi"}]
	}`)

	conv, err := DecodeConversation(raw)
	require.NoError(t, err)
	assert.Equal(t, "chat-1", conv.ID)
	assert.Equal(t, ReturnVoice, conv.Attributes.ReturnType)
	assert.Equal(t, "friend", conv.Attributes.RelationshipType)
	assert.Equal(t, "char-1", conv.CharacterID)
	require.Len(t, conv.History, 1)
	assert.Equal(t, "hi", conv.History[0].Content)
	assert.True(t, conv.Valid())
}

func TestDecodeConversationDataEnvelope(t *testing.T) {
	raw := []byte(`{"data": {"id": "chat-2", "attributes": {"return_type": "text"}}}`)

	conv, err := DecodeConversation(raw)
	require.NoError(t, err)
	assert.Equal(t, "chat-2", conv.ID)
	assert.Equal(t, ReturnText, conv.Attributes.ReturnType)
}

func TestDecodeConversationErrorMarker(t *testing.T) {
	conv, err := DecodeConversation([]byte(`{"errors": true}`))
	require.NoError(t, err)
	assert.True(t, conv.Errors)
	assert.False(t, conv.Valid())
}

func TestDecodeConversationMalformed(t *testing.T) {
	_, err := DecodeConversation([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeCharactersAttributedList(t *testing.T) {
	raw := []byte(`{"data": [
		{"id": "c1", "attributes": {"name": "Mira", "summary": "warm"}},
		{"id": "c2", "name": "Kato"}
	]}`)

	chars, err := DecodeCharacters(raw)
	require.NoError(t, err)
	require.Len(t, chars, 2)
	assert.Equal(t, "c1", chars[0].ID)
	assert.Equal(t, "Mira", chars[0].Name)
	assert.Equal(t, "Kato", chars[1].Name)
}

func TestDecodeUserStringAndNumberCredit(t *testing.T) {
	u, err := DecodeUser([]byte(`{"data": {"id": "u1", "credit": 42.5, "account_id": "a1"}}`))
	require.NoError(t, err)
	assert.Equal(t, 42.5, u.Credits)
	assert.Equal(t, "a1", u.AccountID)
}

func TestAttributesMergeIncomingWins(t *testing.T) {
	base := Attributes{ReturnType: ReturnText, RelationshipType: "friend"}

	merged := base.Merge(Attributes{ReturnType: ReturnVoice})
	assert.Equal(t, ReturnVoice, merged.ReturnType)
	assert.Equal(t, "friend", merged.RelationshipType)

	merged = base.Merge(Attributes{})
	assert.Equal(t, base, merged)
}
