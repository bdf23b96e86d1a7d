package appctx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/ai"
	"github.com/xxxsen/medassist/internal/config"
	"github.com/xxxsen/medassist/internal/embedcache"
	"github.com/xxxsen/medassist/internal/vectorstore"
)

// AppContext owns the clients that are expensive to create: the chat model,
// the embedder and the vector store.
type AppContext struct {
	Chat     *Shared[ai.IChatModel]
	Embedder *Shared[ai.IEmbedder]
	Vectors  *Shared[vectorstore.Store]

	mu       sync.Mutex
	releases []func() error
}

// New wires the shared clients from cfg. cacheRepo may be nil, which skips
// the database layer of the embedding cache.
func New(cfg *config.Config, db *sql.DB, cacheRepo embedcache.Repo) *AppContext {
	return &AppContext{
		Chat: NewShared(func(context.Context) (ai.IChatModel, error) {
			return ai.BuildChatModel(cfg.AI)
		}, nil),
		Embedder: NewShared(func(context.Context) (ai.IEmbedder, error) {
			return buildEmbedder(cfg.AI, cacheRepo)
		}, nil),
		Vectors: NewShared(func(ctx context.Context) (vectorstore.Store, error) {
			return vectorstore.New(ctx, cfg.VectorStore, db)
		}, func(s vectorstore.Store) error {
			return s.Close()
		}),
	}
}

func buildEmbedder(cfg config.AIConfig, cacheRepo embedcache.Repo) (ai.IEmbedder, error) {
	embedder, err := ai.BuildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.EmbedCache.EnableDB && cacheRepo != nil {
		embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	}
	if cfg.EmbedCache.LRUSize > 0 {
		embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.EmbedCache.LRUSize, time.Duration(cfg.EmbedCache.LRUTTL)*time.Second)
	}
	return embedder, nil
}

// Clients is what the request path holds for the process lifetime.
type Clients struct {
	Chat     ai.IChatModel
	Embedder ai.IEmbedder
	Vectors  vectorstore.Store
}

// Acquire takes one reference on every shared client. Close gives them back.
func (a *AppContext) Acquire(ctx context.Context) (*Clients, error) {
	chat, releaseChat, err := a.Chat.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	a.track(releaseChat)
	embedder, releaseEmbedder, err := a.Embedder.Acquire(ctx)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init embedder: %w", err), a.Close())
	}
	a.track(releaseEmbedder)
	store, releaseStore, err := a.Vectors.Acquire(ctx)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init vector store: %w", err), a.Close())
	}
	a.track(releaseStore)
	logutil.GetLogger(ctx).Info("shared clients ready",
		zap.String("chat_model", chat.ModelName()),
		zap.String("embed_model", embedder.ModelName()),
	)
	return &Clients{Chat: chat, Embedder: embedder, Vectors: store}, nil
}

func (a *AppContext) track(release func() error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releases = append(a.releases, release)
}

// Close releases every reference taken through Acquire, newest first.
func (a *AppContext) Close() error {
	a.mu.Lock()
	releases := a.releases
	a.releases = nil
	a.mu.Unlock()
	var errs []error
	for i := len(releases) - 1; i >= 0; i-- {
		if err := releases[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
