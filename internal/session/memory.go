package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryStore struct {
	cache *expirable.LRU[string, []byte]
}

// NewMemoryStore keeps sessions in process; entries expire after ttl.
func NewMemoryStore(size int, ttl time.Duration) Store {
	if size <= 0 {
		size = 10000
	}
	return &memoryStore{cache: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (m *memoryStore) Load(ctx context.Context, id string) (*State, bool, error) {
	raw, ok := m.cache.Get(id)
	if !ok {
		return New(), false, nil
	}
	state := New()
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, false, err
	}
	return state, true, nil
}

func (m *memoryStore) Save(ctx context.Context, id string, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.cache.Add(id, raw)
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, id string) error {
	m.cache.Remove(id)
	return nil
}

func (m *memoryStore) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := m.cache.Peek(id)
	return ok, nil
}

func (m *memoryStore) Close() error {
	m.cache.Purge()
	return nil
}
