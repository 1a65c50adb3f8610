package api

import (
	"context"
	"fmt"
	"net/http"

	"ai-companion-chat/client/internal/models"
	apperrors "ai-companion-chat/client/pkg/errors"
)

// Characters fetches the character catalog, cached per session
func (c *Client) Characters(ctx context.Context) ([]models.Character, error) {
	return cached(c, "characters", func() ([]models.Character, error) {
		raw, err := c.doRaw(ctx, http.MethodGet, "/characters", nil)
		if err != nil {
			return nil, err
		}
		chars, err := models.DecodeCharacters(raw)
		if err != nil {
			return nil, apperrors.NewInvalidPayloadError("malformed character catalog").WithCause(err)
		}
		return chars, nil
	})
}

// RelationshipTypes fetches the relationship options for a character
func (c *Client) RelationshipTypes(ctx context.Context, characterID string) ([]string, error) {
	return cached(c, "relationship-types:"+characterID, func() ([]string, error) {
		var resp struct {
			Data []string `json:"data"`
		}
		path := fmt.Sprintf("/characters/%s/relationship-types", characterID)
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		return resp.Data, nil
	})
}
