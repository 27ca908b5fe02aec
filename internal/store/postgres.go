// internal/store/postgres.go
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgProvider implements Provider backed by PostgreSQL.
type pgProvider struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

func NewPostgresProvider(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Provider {
	return &pgProvider{dbPool: dbPool, log: log}
}

// EnsureSchema creates the customer/subscription tables and the joined view the
// subscription screen reads. Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS stripe_customers (
  user_id uuid PRIMARY KEY,
  customer_id text UNIQUE NOT NULL,
  email text,
  created_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS stripe_subscriptions (
  customer_id text PRIMARY KEY REFERENCES stripe_customers(customer_id) ON DELETE CASCADE,
  subscription_id text,
  price_id text,
  status text NOT NULL DEFAULT 'not_started',
  current_period_start timestamptz,
  current_period_end timestamptz,
  cancel_at_period_end boolean NOT NULL DEFAULT false,
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE OR REPLACE VIEW stripe_user_subscriptions AS
  SELECT c.user_id,
         s.status AS subscription_status,
         s.price_id,
         s.current_period_end
    FROM stripe_customers c
    JOIN stripe_subscriptions s ON s.customer_id = c.customer_id;
`)
	return err
}

func (p *pgProvider) CustomerForUser(ctx context.Context, userID string) (string, error) {
	var id string
	err := p.dbPool.QueryRow(ctx,
		`SELECT customer_id FROM stripe_customers WHERE user_id=$1`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *pgProvider) SaveCustomer(ctx context.Context, m CustomerMapping) error {
	_, err := p.dbPool.Exec(ctx, `
INSERT INTO stripe_customers (user_id, customer_id, email) VALUES ($1,$2,$3)
ON CONFLICT (user_id) DO UPDATE SET customer_id=EXCLUDED.customer_id, email=EXCLUDED.email`,
		m.UserID, m.CustomerID, m.Email)
	return err
}

func (p *pgProvider) UpsertSubscription(ctx context.Context, rec SubscriptionRecord) error {
	_, err := p.dbPool.Exec(ctx, `
INSERT INTO stripe_subscriptions
  (customer_id, subscription_id, price_id, status, current_period_start, current_period_end, cancel_at_period_end, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
ON CONFLICT (customer_id) DO UPDATE SET
  subscription_id=EXCLUDED.subscription_id,
  price_id=EXCLUDED.price_id,
  status=EXCLUDED.status,
  current_period_start=EXCLUDED.current_period_start,
  current_period_end=EXCLUDED.current_period_end,
  cancel_at_period_end=EXCLUDED.cancel_at_period_end,
  updated_at=NOW()`,
		rec.CustomerID, rec.SubscriptionID, rec.PriceID, rec.Status,
		rec.CurrentPeriodStart, rec.CurrentPeriodEnd, rec.CancelAtPeriodEnd)
	if err != nil {
		p.log.Errorw("subscription upsert", "customer", rec.CustomerID, "err", err)
	}
	return err
}

func (p *pgProvider) UserSubscription(ctx context.Context, userID string) (UserSubscription, error) {
	var out UserSubscription
	err := p.dbPool.QueryRow(ctx, `
SELECT subscription_status, COALESCE(price_id,''), COALESCE(current_period_end, 'epoch'::timestamptz)
  FROM stripe_user_subscriptions WHERE user_id=$1`, userID).
		Scan(&out.Status, &out.PriceID, &out.CurrentPeriodEnd)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserSubscription{}, ErrNotFound
	}
	if err != nil {
		return UserSubscription{}, err
	}
	return out, nil
}
