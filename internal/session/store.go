package session

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/medassist/internal/config"
)

// Store persists State by session id. Load of an unknown id returns a fresh
// State and found=false.
type Store interface {
	Load(ctx context.Context, id string) (*State, bool, error)
	Save(ctx context.Context, id string, state *State) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	Close() error
}

func NewStore(cfg config.SessionConfig) (Store, error) {
	ttl := time.Duration(cfg.TTLMinutes) * time.Minute
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(cfg.MaxEntries, ttl), nil
	case "redis":
		return NewRedisStore(cfg.Redis, ttl)
	default:
		return nil, fmt.Errorf("unsupported session store: %s", cfg.Type)
	}
}
