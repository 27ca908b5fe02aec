package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// CustomerMapping ties a storefront user to its Stripe customer.
type CustomerMapping struct {
	UserID     string
	CustomerID string
	Email      string
}

// SubscriptionRecord mirrors the subscription state Stripe reports on webhook
// events, keyed by customer (one subscription per customer in this app).
type SubscriptionRecord struct {
	CustomerID         string
	SubscriptionID     string
	PriceID            string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
}

// UserSubscription is the joined read the subscription screen consumes; the
// paywall branches on Status == "active".
type UserSubscription struct {
	Status           string    `json:"subscription_status"`
	PriceID          string    `json:"price_id"`
	CurrentPeriodEnd time.Time `json:"current_period_end"`
}

type Provider interface {
	// CustomerForUser resolves the Stripe customer id, or ErrNotFound.
	CustomerForUser(ctx context.Context, userID string) (string, error)
	SaveCustomer(ctx context.Context, m CustomerMapping) error
	UpsertSubscription(ctx context.Context, rec SubscriptionRecord) error
	// UserSubscription joins customer and subscription for one user, or ErrNotFound.
	UserSubscription(ctx context.Context, userID string) (UserSubscription, error)
}
