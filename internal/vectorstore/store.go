package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/medassist/internal/config"
	"github.com/xxxsen/medassist/internal/model"
)

var ErrUnscoped = errors.New("vector store delete requires a doc_id")

// Record is a chunk together with its embedding.
type Record struct {
	Chunk  model.Chunk
	Vector []float32
}

// Filter scopes reads and deletes. A DocID selects that document only; an
// empty DocID selects shared knowledge-base chunks and never user uploads.
type Filter struct {
	DocID string
}

type Upserter interface {
	Upsert(ctx context.Context, records []Record) error
}

// Querier returns at most k matches ordered by decreasing score. Equal scores
// keep insertion order.
type Querier interface {
	Query(ctx context.Context, vector []float32, k int, filter Filter) ([]model.ScoredChunk, error)
}

// Scanner lists chunks of one document in chunk_index order.
type Scanner interface {
	Scan(ctx context.Context, filter Filter, limit int) ([]model.Chunk, error)
}

// Deleter removes every chunk of filter.DocID. Deleting nothing is not an error.
type Deleter interface {
	Delete(ctx context.Context, filter Filter) error
}

type Store interface {
	Upserter
	Querier
	Scanner
	Deleter
	Close() error
}

type FactoryArgs struct {
	Data interface{}
	DB   *sql.DB
}

type Factory func(ctx context.Context, args FactoryArgs) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(ctx context.Context, cfg config.ProviderConfig, db *sql.DB) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("vector_store.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported vector store type: %s", cfg.Type)
	}
	return factory(ctx, FactoryArgs{Data: cfg.Data, DB: db})
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode vector store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode vector store config: %w", err)
	}
	return nil
}

// Match reports whether c is visible under f.
func (f Filter) Match(c model.Chunk) bool {
	if f.DocID == "" {
		return c.Shared
	}
	return c.DocID == f.DocID
}

func recordID(c model.Chunk) string {
	return fmt.Sprintf("%s#%06d", c.DocID, c.ChunkIndex)
}
