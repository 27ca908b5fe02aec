package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryProviderRoundtrip(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider(zap.NewNop().Sugar())

	_, err := p.CustomerForUser(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, p.SaveCustomer(ctx, CustomerMapping{
		UserID: "user-1", CustomerID: "cus_1", Email: "fern@example.com",
	}))
	id, err := p.CustomerForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", id)

	_, err = p.UserSubscription(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNotFound, "no subscription yet")

	end := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	require.NoError(t, p.UpsertSubscription(ctx, SubscriptionRecord{
		CustomerID:       "cus_1",
		SubscriptionID:   "sub_1",
		PriceID:          "price_1",
		Status:           "active",
		CurrentPeriodEnd: end,
	}))

	sub, err := p.UserSubscription(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "active", sub.Status)
	assert.Equal(t, "price_1", sub.PriceID)
	assert.Equal(t, end, sub.CurrentPeriodEnd)

	// Upsert replaces, keyed by customer.
	require.NoError(t, p.UpsertSubscription(ctx, SubscriptionRecord{
		CustomerID: "cus_1", SubscriptionID: "sub_1", Status: "canceled",
	}))
	sub, err = p.UserSubscription(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "canceled", sub.Status)
}
