// internal/stripeapi/client.go
package stripeapi

import (
	"context"
	"errors"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// SessionInput carries the checkout fields the handlers validate before any
// Stripe call is made.
type SessionInput struct {
	PriceID    string
	SuccessURL string
	CancelURL  string
	Mode       string // "payment" or "subscription"
	CustomerID string // optional; set on the authenticated route
}

// Client wraps the Stripe SDK with the narrow surface this service needs.
type Client struct {
	api *client.API
}

func New(secretKey string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api}
}

// CreateCheckoutSession creates a hosted checkout session: card only, a single
// line item with quantity 1, automatic billing-address collection, and the
// "donate" submit label for one-time payments. No idempotency key is sent, so
// retried calls create distinct sessions.
func (c *Client) CreateCheckoutSession(ctx context.Context, in SessionInput) (*stripe.CheckoutSession, error) {
	params := sessionParams(in)
	params.Context = ctx
	return c.api.CheckoutSessions.New(params)
}

func sessionParams(in SessionInput) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(in.PriceID),
			Quantity: stripe.Int64(1),
		}},
		Mode:                     stripe.String(in.Mode),
		SuccessURL:               stripe.String(in.SuccessURL),
		CancelURL:                stripe.String(in.CancelURL),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionAuto)),
	}
	if in.Mode == string(stripe.CheckoutSessionModePayment) {
		params.SubmitType = stripe.String(string(stripe.CheckoutSessionSubmitTypeDonate))
	}
	if in.CustomerID != "" {
		params.Customer = stripe.String(in.CustomerID)
	}
	return params
}

// ListActiveProducts returns a single bounded page of up to 100 active
// products, in Stripe's listing order. Products beyond the page are omitted.
func (c *Client) ListActiveProducts(ctx context.Context) ([]*stripe.Product, error) {
	params := &stripe.ProductListParams{Active: stripe.Bool(true)}
	params.Context = ctx
	params.Limit = stripe.Int64(100)
	var out []*stripe.Product
	it := c.api.Products.List(params)
	for it.Next() {
		out = append(out, it.Product())
		if len(out) == 100 {
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActivePrices returns the active prices of a product in Stripe's order;
// callers treat the first as the default.
func (c *Client) ListActivePrices(ctx context.Context, productID string) ([]*stripe.Price, error) {
	params := &stripe.PriceListParams{
		Product: stripe.String(productID),
		Active:  stripe.Bool(true),
	}
	params.Context = ctx
	var out []*stripe.Price
	it := c.api.Prices.List(params)
	for it.Next() {
		out = append(out, it.Price())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCustomer creates a Stripe customer for a storefront user.
func (c *Client) CreateCustomer(ctx context.Context, email, userID string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{
		Email:    stripe.String(email),
		Metadata: map[string]string{"user_id": userID},
	}
	params.Context = ctx
	return c.api.Customers.New(params)
}

// ParseWebhookEvent verifies the Stripe-Signature header and decodes the event.
func ParseWebhookEvent(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, secret)
}

// InvalidRequestMessage reports whether err is Stripe's malformed-request class
// and, if so, the message that is safe to surface as a 400.
func InvalidRequestMessage(err error) (string, bool) {
	var se *stripe.Error
	if errors.As(err, &se) && se.Type == stripe.ErrorTypeInvalidRequest {
		return se.Msg, true
	}
	return "", false
}
