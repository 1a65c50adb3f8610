package api

import (
	"context"
	"net/http"

	"ai-companion-chat/client/internal/models"
	apperrors "ai-companion-chat/client/pkg/errors"
)

// SignIn is the backend's answer to a successful authentication: the bearer
// token plus the signed-in user payload (which seeds the credit balance).
type SignIn struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// GoogleAuth exchanges an identity-provider token for a backend session.
// This is the one call that carries no bearer token.
func (c *Client) GoogleAuth(ctx context.Context, idToken string) (SignIn, error) {
	body := map[string]string{"id_token": idToken}
	var resp struct {
		Data SignIn `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/users/auth/google", body, &resp, withoutAuth()); err != nil {
		return SignIn{}, err
	}
	if resp.Data.Token == "" {
		return SignIn{}, apperrors.NewInvalidPayloadError("sign-in response missing token")
	}
	return resp.Data, nil
}

// Me fetches the signed-in user's profile
func (c *Client) Me(ctx context.Context) (models.User, error) {
	raw, err := c.doRaw(ctx, http.MethodGet, "/users", nil)
	if err != nil {
		return models.User{}, err
	}
	user, err := models.DecodeUser(raw)
	if err != nil {
		return models.User{}, apperrors.NewInvalidPayloadError("malformed user payload").WithCause(err)
	}
	return user, nil
}

// UpdateProfile patches profile fields; only non-empty entries are sent
func (c *Client) UpdateProfile(ctx context.Context, fields map[string]string) (models.User, error) {
	body := map[string]string{}
	for k, v := range fields {
		if v != "" {
			body[k] = v
		}
	}
	raw, err := c.doRaw(ctx, http.MethodPatch, "/users", body)
	if err != nil {
		return models.User{}, err
	}
	user, err := models.DecodeUser(raw)
	if err != nil {
		return models.User{}, apperrors.NewInvalidPayloadError("malformed user payload").WithCause(err)
	}
	return user, nil
}

// DeleteAccount removes the signed-in user's account
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/users", nil, nil)
}

// AgeTypes lists the profile age brackets
func (c *Client) AgeTypes(ctx context.Context) ([]string, error) {
	return cached(c, "age-types", func() ([]string, error) {
		var resp struct {
			Data []string `json:"data"`
		}
		if err := c.doJSON(ctx, http.MethodGet, "/users/age-types", nil, &resp); err != nil {
			return nil, err
		}
		return resp.Data, nil
	})
}
