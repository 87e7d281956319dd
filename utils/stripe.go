package utils

import (
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

// StripeGateway wraps the Stripe API client and webhook verification behind
// the small surface the order controller consumes.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway builds a gateway client from the secret API key and the
// webhook signing secret.
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{
		api:           api,
		webhookSecret: webhookSecret,
	}
}

// CreateCheckoutSession creates a hosted checkout session.
func (g *StripeGateway) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return g.api.CheckoutSessions.New(params)
}

// ListLineItems fetches the gateway's own record of the session's line items
// with the product (and its metadata) expanded. This is the authoritative
// line-item source at settlement time, not the originally submitted cart.
func (g *StripeGateway) ListLineItems(sessionID string) ([]*stripe.LineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.AddExpand("data.price.product")

	iter := g.api.CheckoutSessions.ListLineItems(params)
	var items []*stripe.LineItem
	for iter.Next() {
		items = append(items, iter.LineItem())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ConstructWebhookEvent verifies the event signature against the raw request
// body and returns the parsed event. Verification fails closed: any error
// means the event must be rejected without further processing.
func (g *StripeGateway) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
