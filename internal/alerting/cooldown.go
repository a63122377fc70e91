// FilePath: internal/alerting/cooldown.go
package alerting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/floodwatch/hub/internal/config"
)

// CooldownStore gates how often a node may alert. TryAcquire must be
// atomic with respect to concurrent evaluations of the same key: the
// check and the update are one operation.
type CooldownStore interface {
	// TryAcquire reports whether the key is past its cooldown window
	// and, if it is, records the current instant as the last alert.
	TryAcquire(ctx context.Context, key string, window time.Duration) (bool, error)
}

// MemoryCooldownStore keeps last-alert instants in process memory.
// Single-process scope; a multi-instance deployment would race on
// cooldowns, which is the documented limitation of this store.
type MemoryCooldownStore struct {
	mu       sync.Mutex
	lastSent map[string]time.Time
	clock    clockwork.Clock
}

// NewMemoryCooldownStore creates an in-memory store on wall-clock
// time.
func NewMemoryCooldownStore() *MemoryCooldownStore {
	return NewMemoryCooldownStoreWithClock(clockwork.NewRealClock())
}

// NewMemoryCooldownStoreWithClock injects the clock, for tests.
func NewMemoryCooldownStoreWithClock(clock clockwork.Clock) *MemoryCooldownStore {
	return &MemoryCooldownStore{
		lastSent: make(map[string]time.Time),
		clock:    clock,
	}
}

func (s *MemoryCooldownStore) TryAcquire(_ context.Context, key string, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if last, ok := s.lastSent[key]; ok && now.Sub(last) < window {
		return false, nil
	}
	s.lastSent[key] = now
	return true, nil
}

// RedisCooldownStore keeps cooldowns in Redis so they survive process
// restarts. SetNX with a TTL makes the check-and-mark atomic on the
// server side.
type RedisCooldownStore struct {
	client *redis.Client
	prefix string
}

// NewRedisCooldownStore connects a cooldown store to Redis.
func NewRedisCooldownStore(cfg config.RedisConfig) *RedisCooldownStore {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisCooldownStore{client: client, prefix: "floodwatch:cooldown:"}
}

func (s *RedisCooldownStore) TryAcquire(ctx context.Context, key string, window time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, time.Now().Unix(), window).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Close releases the Redis connection.
func (s *RedisCooldownStore) Close() error {
	return s.client.Close()
}
