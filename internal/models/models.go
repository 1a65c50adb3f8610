// Package models holds the client-side view of the backend's entities.
// The backend owns all durable state; these types only describe what a
// session needs in memory.
package models

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageType distinguishes plain text from media messages
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageVideo MessageType = "video"
)

// ReturnType selects how the assistant replies
type ReturnType string

const (
	ReturnText  ReturnType = "text"
	ReturnVoice ReturnType = "voice"
)

// Message is a single entry in a conversation's history. Assistant content
// accumulates incrementally while a reply streams in.
type Message struct {
	ID                   string      `json:"id,omitempty"`
	Role                 Role        `json:"role"`
	Content              string      `json:"content"`
	Type                 MessageType `json:"messageType,omitempty"`
	MediaURL             string      `json:"mediaUrl,omitempty"`
	ModerationFailed     bool        `json:"moderationFailed,omitempty"`
	IsResolutionResponse bool        `json:"isResolutionResponse,omitempty"`
	IsBouncyEmoji        bool        `json:"isBouncyEmoji,omitempty"`
}

// Attributes are the mutable settings of a conversation
type Attributes struct {
	ReturnType       ReturnType `json:"return_type,omitempty"`
	RelationshipType string     `json:"relationship_type,omitempty"`
}

// Merge returns a shallow per-key merge where non-empty incoming values win
func (a Attributes) Merge(in Attributes) Attributes {
	out := a
	if in.ReturnType != "" {
		out.ReturnType = in.ReturnType
	}
	if in.RelationshipType != "" {
		out.RelationshipType = in.RelationshipType
	}
	return out
}

// Conversation is one chat session between the user and a character.
// History is append-ordered and capped; the cap is enforced by the store.
type Conversation struct {
	ID          string     `json:"id"`
	Attributes  Attributes `json:"attributes"`
	CharacterID string     `json:"character_id,omitempty"`
	Character   *Character `json:"character,omitempty"`
	History     []Message  `json:"chatHistory,omitempty"`

	// Errors is the server-side error marker; a conversation carrying it is
	// filtered at the store boundary and never kept.
	Errors bool `json:"errors,omitempty"`
}

// Valid reports whether the conversation may enter the catalog
func (c Conversation) Valid() bool {
	return c.ID != "" && !c.Errors
}

// Character is a static descriptive entity from the backend catalog
type Character struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	AvatarURL         string   `json:"avatar_url,omitempty"`
	Summary           string   `json:"summary,omitempty"`
	RelationshipTypes []string `json:"relationship_types,omitempty"`
	Media             []string `json:"media,omitempty"`
}

// Plan is a paid subscription plan, read-only on the client
type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Interval string   `json:"interval,omitempty"`
	Features []string `json:"features,omitempty"`
}

// CreditPack is a one-off credit purchase option, read-only on the client
type CreditPack struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Credits float64 `json:"credits"`
	Price   float64 `json:"price"`
}

// User is the signed-in profile payload. Credits seeds the balance; the
// realtime channel owns it afterwards.
type User struct {
	ID        string  `json:"id"`
	Email     string  `json:"email,omitempty"`
	Name      string  `json:"name,omitempty"`
	AccountID string  `json:"account_id,omitempty"`
	AgeType   string  `json:"age_type,omitempty"`
	Credits   float64 `json:"credit,omitempty"`
}

// ModerationDetails is the opaque detail list attached to a filtering
// decision; it is carried verbatim to the resolution endpoint.
type ModerationDetails []any
