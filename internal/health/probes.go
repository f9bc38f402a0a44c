package health

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pinger is the slice of the ledger client the readiness probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probes implements Checker over the service's two runtime dependencies.
type Probes struct {
	Ledger Pinger
	Redis  *redis.Client
}

func (p Probes) PingLedger(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Ledger.Ping(ctx)
}

func (p Probes) PingRedis(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Redis.Ping(ctx).Err()
}
