// internal/store/memory.go
package store

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type memProvider struct {
	log    *zap.SugaredLogger
	mu     sync.RWMutex
	byUser map[string]CustomerMapping    // user_id -> mapping
	subs   map[string]SubscriptionRecord // customer_id -> record
}

// NewMemoryProvider is the dev fallback used when DATABASE_URL is unset.
// State lives for the process only.
func NewMemoryProvider(log *zap.SugaredLogger) Provider {
	return &memProvider{
		log:    log,
		byUser: map[string]CustomerMapping{},
		subs:   map[string]SubscriptionRecord{},
	}
}

func (m *memProvider) CustomerForUser(ctx context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.byUser[userID]; ok {
		return c.CustomerID, nil
	}
	return "", ErrNotFound
}

func (m *memProvider) SaveCustomer(ctx context.Context, c CustomerMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUser[c.UserID] = c
	return nil
}

func (m *memProvider) UpsertSubscription(ctx context.Context, rec SubscriptionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[rec.CustomerID] = rec
	return nil
}

func (m *memProvider) UserSubscription(ctx context.Context, userID string) (UserSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byUser[userID]
	if !ok {
		return UserSubscription{}, ErrNotFound
	}
	rec, ok := m.subs[c.CustomerID]
	if !ok {
		return UserSubscription{}, ErrNotFound
	}
	return UserSubscription{
		Status:           rec.Status,
		PriceID:          rec.PriceID,
		CurrentPeriodEnd: rec.CurrentPeriodEnd,
	}, nil
}
