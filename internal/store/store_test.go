package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-companion-chat/client/internal/models"
	"ai-companion-chat/client/pkg/logger"
)

func newTestStore() *Store {
	return New(logger.New(logger.DefaultConfig()), 0)
}

func seedChat(s *Store, id string) {
	s.SetCurrentChat(models.Conversation{ID: id})
}

func TestUpdateChatHistoryAppendsUserMessage(t *testing.T) {
	s := newTestStore()
	seedChat(s, "chat-1")

	s.UpdateChatHistory(models.Message{ID: "m1", Role: models.RoleUser, Content: "hi"}, "chat-1")

	cur := s.CurrentChat()
	require.NotNil(t, cur)
	require.Len(t, cur.History, 1)
	assert.Equal(t, "hi", cur.History[0].Content)
}

func TestUpdateChatHistoryMergesStreamingAssistantTail(t *testing.T) {
	s := newTestStore()
	seedChat(s, "chat-1")

	s.UpdateChatHistory(models.Message{Role: models.RoleUser, Content: "hi"}, "chat-1")
	s.UpdateChatHistory(models.Message{Role: models.RoleAssistant, Content: "he"}, "chat-1")
	s.UpdateChatHistory(models.Message{Role: models.RoleAssistant, Content: "hello"}, "chat-1")
	s.UpdateChatHistory(models.Message{Role: models.RoleAssistant, Content: "hello there"}, "chat-1")

	cur := s.CurrentChat()
	require.Len(t, cur.History, 2)
	assert.Equal(t, "hello there", cur.History[1].Content)
}

func TestUpdateChatHistoryVideoAlwaysAppends(t *testing.T) {
	s := newTestStore()
	seedChat(s, "chat-1")

	s.UpdateChatHistory(models.Message{Role: models.RoleAssistant, Content: "look"}, "chat-1")
	s.UpdateChatHistory(models.Message{Role: models.RoleAssistant, Type: models.MessageVideo, MediaURL: "u1"}, "chat-1")
	s.UpdateChatHistory(models.Message{Role: models.RoleAssistant, Type: models.MessageVideo, MediaURL: "u2"}, "chat-1")

	cur := s.CurrentChat()
	require.Len(t, cur.History, 3)
	assert.Equal(t, "u1", cur.History[1].MediaURL)
	assert.Equal(t, "u2", cur.History[2].MediaURL)
}

func TestUpdateChatHistoryChatIDMismatchIsNoOp(t *testing.T) {
	s := newTestStore()
	seedChat(s, "chat-1")
	s.UpdateChatHistory(models.Message{Role: models.RoleUser, Content: "hi"}, "chat-1")

	before := s.CurrentChat()
	sigBefore := s.HistorySignal()

	s.UpdateChatHistory(models.Message{Role: models.RoleUser, Content: "other"}, "chat-2")

	after := s.CurrentChat()
	assert.Equal(t, before, after)
	assert.Equal(t, sigBefore, s.HistorySignal())
}

func TestUpdateChatHistoryCapsAtSeventyOldestFirst(t *testing.T) {
	s := newTestStore()
	seedChat(s, "chat-1")

	for i := 0; i < MaxHistory+10; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		// distinct ids so no entry merges with the tail
		s.UpdateChatHistory(models.Message{
			ID: fmt.Sprintf("m%d", i), Role: role,
			Type: models.MessageVideo, Content: fmt.Sprintf("c%d", i),
		}, "chat-1")
	}

	cur := s.CurrentChat()
	require.Len(t, cur.History, MaxHistory)
	assert.Equal(t, "c10", cur.History[0].Content)
	assert.Equal(t, fmt.Sprintf("c%d", MaxHistory+9), cur.History[MaxHistory-1].Content)
}

func TestConfiguredHistoryLimitOverridesDefault(t *testing.T) {
	s := New(logger.New(logger.DefaultConfig()), 3)
	seedChat(s, "chat-1")

	for i := 0; i < 5; i++ {
		s.UpdateChatHistory(models.Message{
			ID: fmt.Sprintf("m%d", i), Role: models.RoleUser,
			Type: models.MessageVideo, Content: fmt.Sprintf("c%d", i),
		}, "chat-1")
	}

	cur := s.CurrentChat()
	require.Len(t, cur.History, 3)
	assert.Equal(t, "c2", cur.History[0].Content)
	assert.Equal(t, "c4", cur.History[2].Content)
}

func TestHistorySignalOnlyCountsUserWrites(t *testing.T) {
	s := newTestStore()
	seedChat(s, "chat-1")

	base := s.HistorySignal()
	s.UpdateChatHistory(models.Message{Role: models.RoleUser, Content: "hi"}, "chat-1")
	assert.Equal(t, base+1, s.HistorySignal())

	s.UpdateChatHistory(models.Message{Role: models.RoleAssistant, Content: "hello"}, "chat-1")
	s.UpdateChatHistory(models.Message{Role: models.RoleAssistant, Content: "hello there"}, "chat-1")
	assert.Equal(t, base+1, s.HistorySignal())
}

func TestSetChatsFiltersInvalidConversations(t *testing.T) {
	s := newTestStore()

	s.SetChats(
		models.Conversation{ID: "good"},
		models.Conversation{},                          // missing id
		models.Conversation{ID: "bad", Errors: true},   // server error marker
	)

	chats := s.Chats()
	require.Len(t, chats, 1)
	assert.Equal(t, "good", chats[0].ID)
}

func TestSetChatsMergesAttributesAndPreservesHistory(t *testing.T) {
	s := newTestStore()
	s.SetChats(models.Conversation{
		ID:         "chat-1",
		Attributes: models.Attributes{ReturnType: models.ReturnText, RelationshipType: "friend"},
		History:    []models.Message{{Role: models.RoleUser, Content: "hi"}},
	})

	// incoming carries no history: local history survives
	s.SetChats(models.Conversation{
		ID:         "chat-1",
		Attributes: models.Attributes{ReturnType: models.ReturnVoice},
	})

	chats := s.Chats()
	require.Len(t, chats, 1)
	assert.Equal(t, models.ReturnVoice, chats[0].Attributes.ReturnType)
	assert.Equal(t, "friend", chats[0].Attributes.RelationshipType)
	require.Len(t, chats[0].History, 1)

	// incoming history replaces wholesale
	s.SetChats(models.Conversation{
		ID:      "chat-1",
		History: []models.Message{{Role: models.RoleUser, Content: "a"}, {Role: models.RoleAssistant, Content: "b"}},
	})
	chats = s.Chats()
	require.Len(t, chats[0].History, 2)
}

func TestSetCurrentChatRejectsErrorPayload(t *testing.T) {
	s := newTestStore()
	seedChat(s, "chat-1")

	s.SetCurrentChat(models.Conversation{ID: "chat-2", Errors: true})

	cur := s.CurrentChat()
	require.NotNil(t, cur)
	assert.Equal(t, "chat-1", cur.ID)
}

func TestCurrentChatReturnsClone(t *testing.T) {
	s := newTestStore()
	seedChat(s, "chat-1")
	s.UpdateChatHistory(models.Message{Role: models.RoleUser, Content: "hi"}, "chat-1")

	cur := s.CurrentChat()
	cur.History[0].Content = "mutated"

	assert.Equal(t, "hi", s.CurrentChat().History[0].Content)
}

func TestDeleteChatClearsCurrentWhenItMatches(t *testing.T) {
	s := newTestStore()
	seedChat(s, "chat-1")

	s.DeleteChat("chat-1")

	assert.Nil(t, s.CurrentChat())
	assert.Empty(t, s.Chats())
}

func TestCreditsRoundTrip(t *testing.T) {
	s := newTestStore()
	s.SetCredits(12.5)
	assert.Equal(t, 12.5, s.Credits())
}
