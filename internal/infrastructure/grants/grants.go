// Package grants remembers which users unlocked a private event with its access code.
package grants

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func key(eventID, userID uuid.UUID) string {
	return fmt.Sprintf("event-access:%s:%s", eventID, userID)
}

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Grant(ctx context.Context, eventID, userID uuid.UUID) error {
	return r.client.Set(ctx, key(eventID, userID), 1, r.ttl).Err()
}

func (r *Redis) HasGrant(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	n, err := r.client.Exists(ctx, key(eventID, userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	expires map[string]time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		expires: map[string]time.Time{},
	}
}

func (m *Memory) Grant(_ context.Context, eventID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.expires[key(eventID, userID)] = m.now().Add(m.ttl)
	return nil
}

func (m *Memory) HasGrant(_ context.Context, eventID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(eventID, userID)
	exp, ok := m.expires[k]
	if !ok {
		return false, nil
	}
	if !m.now().Before(exp) {
		delete(m.expires, k)
		return false, nil
	}
	return true, nil
}
