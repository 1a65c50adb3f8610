package models

import (
	"encoding/json"
)

// The backend is inconsistent about envelopes: some endpoints return the
// entity flat, others wrap it as {"data": ...}, and catalog entities may
// nest their fields under "attributes". Normalization happens exactly once
// here, at the network boundary; nothing downstream duck-types payloads.

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// unwrapData peels a {"data": ...} envelope if present, otherwise returns
// the payload unchanged.
func unwrapData(raw []byte) []byte {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	return raw
}

// unwrapAttributed hoists the fields of a nested "attributes" object up to
// the top level, keeping sibling keys like id and chatHistory. On a key
// collision the top-level value wins. Entities already flat pass through.
func unwrapAttributed(raw []byte) []byte {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return raw
	}
	attrs, ok := fields["attributes"]
	if !ok {
		return raw
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(attrs, &nested); err != nil {
		return raw
	}
	delete(fields, "attributes")
	for k, v := range nested {
		if _, exists := fields[k]; !exists {
			fields[k] = v
		}
	}
	flat, err := json.Marshal(fields)
	if err != nil {
		return raw
	}
	return flat
}

// wireConversation is the flattened network shape of a conversation; the
// attribute fields sit at the top level after unwrapAttributed ran.
type wireConversation struct {
	ID               string     `json:"id"`
	ReturnType       ReturnType `json:"return_type"`
	RelationshipType string     `json:"relationship_type"`
	CharacterID      string     `json:"character_id"`
	Character        *Character `json:"character"`
	History          []Message  `json:"chatHistory"`
	Errors           bool       `json:"errors"`
}

// DecodeConversation normalizes a conversation payload, wrapped or flat.
// A payload carrying the {"errors": true} marker decodes into a
// Conversation with Errors set; the store filters it.
func DecodeConversation(raw []byte) (Conversation, error) {
	body := unwrapData(raw)

	var marker struct {
		Errors bool `json:"errors"`
	}
	if err := json.Unmarshal(body, &marker); err == nil && marker.Errors {
		return Conversation{Errors: true}, nil
	}

	var wire wireConversation
	if err := json.Unmarshal(unwrapAttributed(body), &wire); err != nil {
		return Conversation{}, err
	}
	return Conversation{
		ID: wire.ID,
		Attributes: Attributes{
			ReturnType:       wire.ReturnType,
			RelationshipType: wire.RelationshipType,
		},
		CharacterID: wire.CharacterID,
		Character:   wire.Character,
		History:     wire.History,
	}, nil
}

// DecodeCharacters normalizes a character catalog payload
func DecodeCharacters(raw []byte) ([]Character, error) {
	return decodeList[Character](raw)
}

// DecodePlans normalizes a plan catalog payload
func DecodePlans(raw []byte) ([]Plan, error) {
	return decodeList[Plan](raw)
}

// DecodeCreditPacks normalizes a credit pack catalog payload
func DecodeCreditPacks(raw []byte) ([]CreditPack, error) {
	return decodeList[CreditPack](raw)
}

// DecodeUser normalizes a user payload
func DecodeUser(raw []byte) (User, error) {
	var u User
	if err := json.Unmarshal(unwrapAttributed(unwrapData(raw)), &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func decodeList[T any](raw []byte) ([]T, error) {
	body := unwrapData(raw)

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(unwrapAttributed(item), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
