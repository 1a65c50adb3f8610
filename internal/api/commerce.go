package api

import (
	"context"
	"net/http"

	"ai-companion-chat/client/internal/models"
	apperrors "ai-companion-chat/client/pkg/errors"
)

// PaidPlans fetches the subscription plan catalog, cached per session
func (c *Client) PaidPlans(ctx context.Context) ([]models.Plan, error) {
	return cached(c, "plans", func() ([]models.Plan, error) {
		raw, err := c.doRaw(ctx, http.MethodGet, "/plans/paid", nil)
		if err != nil {
			return nil, err
		}
		plans, err := models.DecodePlans(raw)
		if err != nil {
			return nil, apperrors.NewInvalidPayloadError("malformed plan catalog").WithCause(err)
		}
		return plans, nil
	})
}

// CreditPacks fetches the credit pack catalog, cached per session
func (c *Client) CreditPacks(ctx context.Context) ([]models.CreditPack, error) {
	return cached(c, "credit-packs", func() ([]models.CreditPack, error) {
		raw, err := c.doRaw(ctx, http.MethodGet, "/credit-packs", nil)
		if err != nil {
			return nil, err
		}
		packs, err := models.DecodeCreditPacks(raw)
		if err != nil {
			return nil, apperrors.NewInvalidPayloadError("malformed credit pack catalog").WithCause(err)
		}
		return packs, nil
	})
}

// OrderRequest creates a checkout order for a plan or a credit pack
type OrderRequest struct {
	PlanID       string `json:"plan_id,omitempty"`
	CreditPackID string `json:"credit_pack_id,omitempty"`
}

// Order is the created checkout order; CheckoutURL is where the external
// payment provider takes over.
type Order struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

// CreateOrder starts a checkout with the external payment provider
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	var resp struct {
		Data Order `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/orders", req, &resp); err != nil {
		return Order{}, err
	}
	return resp.Data, nil
}

// CancelActiveOrder cancels the account's active subscription order
func (c *Client) CancelActiveOrder(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPatch, "/orders/active/cancel", nil, nil)
}
