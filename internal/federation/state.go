package federation

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

// GenerateState returns 32 random bytes, hex encoded.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateVerifier returns a fresh PKCE code verifier.
func GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}

// StateStore remembers issued OAuth2 state values until the callback
// redeems them. Each state can be consumed at most once.
type StateStore interface {
	Save(ctx context.Context, state, verifier string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (verifier string, ok bool, err error)
}

// RedisStateStore keeps state values in Redis with a TTL.
type RedisStateStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStateStore builds a store on an existing client.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: "oauth2:state:"}
}

// Save implements StateStore.
func (s *RedisStateStore) Save(ctx context.Context, state, verifier string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+state, verifier, ttl).Err()
}

// Consume implements StateStore. GETDEL makes redemption atomic.
func (s *RedisStateStore) Consume(ctx context.Context, state string) (string, bool, error) {
	verifier, err := s.client.GetDel(ctx, s.prefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return verifier, true, nil
}

type memoryState struct {
	verifier  string
	expiresAt time.Time
}

// MemoryStateStore keeps state values in process memory. It only suits a
// single instance.
type MemoryStateStore struct {
	mu      sync.Mutex
	entries map[string]memoryState
	now     func() time.Time
}

// NewMemoryStateStore creates an empty store. now may be nil.
func NewMemoryStateStore(now func() time.Time) *MemoryStateStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStateStore{entries: make(map[string]memoryState), now: now}
}

// Save implements StateStore.
func (s *MemoryStateStore) Save(_ context.Context, state, verifier string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
	s.entries[state] = memoryState{verifier: verifier, expiresAt: now.Add(ttl)}
	return nil
}

// Consume implements StateStore.
func (s *MemoryStateStore) Consume(_ context.Context, state string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[state]
	if !ok {
		return "", false, nil
	}
	delete(s.entries, state)
	if !s.now().Before(entry.expiresAt) {
		return "", false, nil
	}
	return entry.verifier, true, nil
}
