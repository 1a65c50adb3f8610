package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-companion-chat/client/internal/models"
)

func TestSaveAndLoadSnapshot(t *testing.T) {
	dir := t.TempDir()

	s := newTestStore()
	s.SetChats(models.Conversation{
		ID:         "chat-1",
		Attributes: models.Attributes{ReturnType: models.ReturnVoice},
		History:    []models.Message{{Role: models.RoleUser, Content: "hi"}},
	})
	s.SetCredits(9.5)
	require.NoError(t, s.Save(dir))

	restored := newTestStore()
	require.NoError(t, restored.Load(dir))

	chats := restored.Chats()
	require.Len(t, chats, 1)
	assert.Equal(t, "chat-1", chats[0].ID)
	assert.Equal(t, models.ReturnVoice, chats[0].Attributes.ReturnType)
	require.Len(t, chats[0].History, 1)
	assert.Equal(t, 9.5, restored.Credits())
}

func TestLoadMissingSnapshotIsFine(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Load(t.TempDir()))
	assert.Empty(t, s.Chats())
}

func TestLoadCorruptSnapshotDiscarded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, snapshotFile), []byte("{broken"), 0o600))

	s := newTestStore()
	require.NoError(t, s.Load(dir))
	assert.Empty(t, s.Chats())
}
