// internal/checkout/idempotency.go
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReplayStore persists successful checkout results so a reused Idempotency-Key
// replays the original session instead of creating a second one.
type ReplayStore interface {
	Get(ctx context.Context, key string) (*Result, error)
	Save(ctx context.Context, key string, res Result) error
}

const replayTTL = 24 * time.Hour

type redisReplay struct {
	cli *redis.Client
}

// NewRedisReplay returns nil when no client is configured, which turns the
// replay path off entirely.
func NewRedisReplay(cli *redis.Client) ReplayStore {
	if cli == nil {
		return nil
	}
	return &redisReplay{cli: cli}
}

func (s *redisReplay) Get(ctx context.Context, key string) (*Result, error) {
	b, err := s.cli.Get(ctx, "checkout:idem:"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var res Result
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *redisReplay) Save(ctx context.Context, key string, res Result) error {
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return s.cli.Set(ctx, "checkout:idem:"+key, b, replayTTL).Err()
}
