package api

import (
	"context"
	"fmt"
	"net/url"

	"libris/internal/models"
)

type createPaymentRequest struct {
	PlanID int64 `json:"plan_id"`
}

// CreatePayment starts a gateway transaction for a subscription plan. The
// returned payment carries the gateway URL the user completes checkout at
// and the transaction id the poller watches.
func (c *Client) CreatePayment(ctx context.Context, planID int64) (*models.Payment, error) {
	var payment models.Payment
	if err := c.post(ctx, "/payments/payment", createPaymentRequest{PlanID: planID}, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetSubscription returns the user's current subscription, or nil when they
// have none.
func (c *Client) GetSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	var sub models.Subscription
	if err := c.get(ctx, fmt.Sprintf("/subscription/%d", userID), nil, &sub); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ListPlans returns the plan tiers. Cached; pricing pages barely change.
func (c *Client) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	if err := c.getCached(ctx, "plans", "/subscription-plan/", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

type paymentStatusResponse struct {
	Status string `json:"status"`
}

// PaymentStatus asks the gateway callback endpoint where a transaction
// stands: pending, paid or failed.
func (c *Client) PaymentStatus(ctx context.Context, tranID string) (string, error) {
	query := url.Values{}
	query.Set("tran_id", tranID)

	var resp paymentStatusResponse
	if err := c.get(ctx, "/stripe/callback", query, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
