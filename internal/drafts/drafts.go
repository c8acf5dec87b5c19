package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stwalsh4118/estate/api/internal/models"
)

// DefaultSlot is used when the caller does not name a draft slot.
const DefaultSlot = "default"

const keyPrefix = "property-draft"

// Key builds the storage key of a user's draft slot.
func Key(userID uuid.UUID, slot string) string {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		slot = DefaultSlot
	}
	return fmt.Sprintf("%s:%s:%s", keyPrefix, userID, slot)
}

// Store persists one draft per key, overwriting any prior value.
type Store interface {
	Save(ctx context.Context, key string, draft *models.PropertyDraft) error
	// Load returns nil, nil when no draft exists under key.
	Load(ctx context.Context, key string) (*models.PropertyDraft, error)
	Clear(ctx context.Context, key string) error
}

// RedisStore keeps drafts as JSON strings that expire after ttl.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. A non-positive ttl keeps drafts forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, key string, draft *models.PropertyDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, key string) (*models.PropertyDraft, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load draft %s: %w", key, err)
	}

	var draft models.PropertyDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", key, err)
	}
	return &draft, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to clear draft %s: %w", key, err)
	}
	return nil
}

// MemoryStore is a process-local Store used when redis is unavailable.
type MemoryStore struct {
	drafts map[string][]byte
	mu     sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string][]byte)}
}

// Values are stored encoded so callers never share a draft's slices.
func (s *MemoryStore) Save(_ context.Context, key string, draft *models.PropertyDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	s.mu.Lock()
	s.drafts[key] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, key string) (*models.PropertyDraft, error) {
	s.mu.RLock()
	data, ok := s.drafts[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var draft models.PropertyDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", key, err)
	}
	return &draft, nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.drafts, key)
	s.mu.Unlock()
	return nil
}
