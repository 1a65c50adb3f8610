package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"ai-companion-chat/client/internal/models"
)

const snapshotFile = "session.json"

// snapshot is the on-disk shape of a session. Only the conversation catalog
// and the credit balance survive restarts; catalogs of read-only backend
// entities are refetched.
type snapshot struct {
	Chats   []models.Conversation `json:"chats"`
	Credits float64               `json:"credits"`
}

// Save writes the session snapshot under dir
func (s *Store) Save(dir string) error {
	s.mu.Lock()
	snap := snapshot{
		Chats:   make([]models.Conversation, len(s.chats)),
		Credits: s.credits,
	}
	for i, c := range s.chats {
		snap.Chats[i] = cloneConversation(c)
	}
	s.mu.Unlock()

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, snapshotFile), data, 0o600)
}

// Load restores a previously saved session snapshot. A missing file is not
// an error; a corrupt one is logged and discarded.
func (s *Store) Load(dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, snapshotFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn("discarding corrupt session snapshot", "error", err.Error())
		return nil
	}

	s.SetChats(snap.Chats...)
	s.SetCredits(snap.Credits)
	return nil
}
