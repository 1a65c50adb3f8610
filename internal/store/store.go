// Package store is the single source of truth for session state: the active
// conversation, the conversation catalog, the character/plan catalogs and
// the credit balance. Every mutation is a synchronous, atomic state
// transition behind one mutex, so the logically concurrent flows that feed
// it (optimistic send, stream deltas, full reloads, moderation resolutions,
// realtime credit pushes) interleave only at call granularity.
package store

import (
	"slices"
	"sync"

	"ai-companion-chat/client/internal/models"
	"ai-companion-chat/client/pkg/logger"
)

// MaxHistory caps a conversation's message sequence; the oldest entries are
// discarded first.
const MaxHistory = 70

// Store holds all client-side session state. Construct it explicitly and
// pass the handle down; there is no package-level instance.
type Store struct {
	mu  sync.Mutex
	log *logger.Logger

	current     *models.Conversation
	chats       []models.Conversation
	characters  []models.Character
	plans       []models.Plan
	creditPacks []models.CreditPack
	credits     float64

	// historySignal increments only on user-role history updates, letting an
	// observer tell "user just sent something" from "assistant content is
	// still streaming in" without diffing message content.
	historySignal uint64

	maxHistory int
}

// New creates an empty store. historyLimit caps each conversation's message
// sequence; zero or negative falls back to MaxHistory.
func New(log *logger.Logger, historyLimit int) *Store {
	if historyLimit <= 0 {
		historyLimit = MaxHistory
	}
	return &Store{log: log.WithComponent("store"), maxHistory: historyLimit}
}

// UpdateChatHistory reconciles a message into the current conversation's
// history. It is a no-op when there is no current conversation or chatID
// does not match it, which keeps a stale or aborted stream from writing
// into a conversation the user has navigated away from.
func (s *Store) UpdateChatHistory(msg models.Message, chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.ID != chatID {
		return
	}

	s.current.History = applyMessage(s.current.History, msg, s.maxHistory)
	s.mirrorCurrentLocked()

	if msg.Role == models.RoleUser {
		s.historySignal++
	}
}

// applyMessage implements the merge rules: a video message always appends;
// a non-video message whose role matches a non-video tail replaces it in
// place (how a streaming reply grows without re-appending per token);
// anything else appends. The result is capped at limit entries.
func applyMessage(history []models.Message, msg models.Message, limit int) []models.Message {
	switch {
	case msg.Type == models.MessageVideo:
		history = append(history, msg)
	case len(history) > 0 &&
		history[len(history)-1].Role == msg.Role &&
		history[len(history)-1].Type != models.MessageVideo:
		history[len(history)-1] = msg
	default:
		history = append(history, msg)
	}

	return capHistory(history, limit)
}

func capHistory(history []models.Message, limit int) []models.Message {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history
}

// mirrorCurrentLocked copies the current conversation back into the catalog
// entry with the same id. Caller must hold the lock.
func (s *Store) mirrorCurrentLocked() {
	for i := range s.chats {
		if s.chats[i].ID == s.current.ID {
			s.chats[i] = cloneConversation(*s.current)
			return
		}
	}
}

// HistorySignal returns the monotonically increasing counter of user-role
// history updates.
func (s *Store) HistorySignal() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historySignal
}

// SetChats merges one or more conversations into the catalog. Entries
// missing an id or carrying the server error marker are filtered and
// logged, never stored. An existing entry is merged: attributes shallowly
// (incoming wins per key), history replaced only when the incoming payload
// carries one, so a reload without history preserves an optimistic append
// the backend hasn't learned about yet.
func (s *Store) SetChats(convs ...models.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, in := range convs {
		if !in.Valid() {
			s.log.Warn("discarding invalid conversation payload",
				"chat_id", in.ID,
				"server_errors", in.Errors,
			)
			continue
		}
		s.upsertChatLocked(in)
	}
}

func (s *Store) upsertChatLocked(in models.Conversation) {
	for i := range s.chats {
		if s.chats[i].ID != in.ID {
			continue
		}
		merged := s.chats[i]
		merged.Attributes = merged.Attributes.Merge(in.Attributes)
		if in.Character != nil {
			merged.Character = in.Character
		}
		if in.CharacterID != "" {
			merged.CharacterID = in.CharacterID
		}
		if in.History != nil {
			merged.History = capHistory(slices.Clone(in.History), s.maxHistory)
		}
		s.chats[i] = merged
		return
	}
	s.chats = append(s.chats, cloneConversation(in))
}

// SetCurrentChat switches the active conversation. When the catalog already
// knows the id, the catalog entry's attributes merge with the incoming
// payload (incoming wins) and history prefers the incoming payload's when
// provided; otherwise the incoming payload becomes a catalog-less current
// view. The dual path exists because "current" is set either from a fresh
// network load (full payload) or a local catalog click-through (id only).
func (s *Store) SetCurrentChat(in models.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !in.Valid() {
		s.log.Warn("refusing invalid conversation as current", "chat_id", in.ID)
		return
	}

	for i := range s.chats {
		if s.chats[i].ID != in.ID {
			continue
		}
		cur := cloneConversation(s.chats[i])
		cur.Attributes = cur.Attributes.Merge(in.Attributes)
		if in.Character != nil {
			cur.Character = in.Character
		}
		if in.CharacterID != "" {
			cur.CharacterID = in.CharacterID
		}
		if in.History != nil {
			cur.History = capHistory(slices.Clone(in.History), s.maxHistory)
		}
		s.current = &cur
		s.mirrorCurrentLocked()
		return
	}

	cur := cloneConversation(in)
	cur.History = capHistory(cur.History, s.maxHistory)
	s.current = &cur
}

// CurrentChat returns a copy of the active conversation, or nil
func (s *Store) CurrentChat() *models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	cur := cloneConversation(*s.current)
	return &cur
}

// ClearCurrentChat drops the active conversation pointer
func (s *Store) ClearCurrentChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Chats returns a copy of the conversation catalog
func (s *Store) Chats() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Conversation, len(s.chats))
	for i, c := range s.chats {
		out[i] = cloneConversation(c)
	}
	return out
}

// DeleteChat removes a conversation from the catalog; if it is current, the
// current pointer is cleared too.
func (s *Store) DeleteChat(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chats = slices.DeleteFunc(s.chats, func(c models.Conversation) bool {
		return c.ID == id
	})
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
}

// SetCharacters replaces the cached character working set
func (s *Store) SetCharacters(chars []models.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters = slices.Clone(chars)
}

// Characters returns the cached character working set
func (s *Store) Characters() []models.Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.characters)
}

// SetPlans stores the per-session plan catalog
func (s *Store) SetPlans(plans []models.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = slices.Clone(plans)
}

// Plans returns the per-session plan catalog
func (s *Store) Plans() []models.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.plans)
}

// SetCreditPacks stores the per-session credit pack catalog
func (s *Store) SetCreditPacks(packs []models.CreditPack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creditPacks = slices.Clone(packs)
}

// CreditPacks returns the per-session credit pack catalog
func (s *Store) CreditPacks() []models.CreditPack {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.creditPacks)
}

// SetCredits writes the spendable credit balance. Callers coerce string
// payloads to a number before this write.
func (s *Store) SetCredits(credits float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits = credits
}

// Credits reads the spendable credit balance
func (s *Store) Credits() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits
}

func cloneConversation(c models.Conversation) models.Conversation {
	c.History = slices.Clone(c.History)
	if c.Character != nil {
		ch := *c.Character
		c.Character = &ch
	}
	return c
}
