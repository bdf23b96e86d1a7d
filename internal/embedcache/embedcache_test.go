package embedcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/medassist/internal/model"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) ModelName() string {
	return "counting"
}

type mapRepo struct {
	items map[string][]float32
	saves int
}

func (m *mapRepo) Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error) {
	v, ok := m.items[modelName+taskType+contentHash]
	return v, ok, nil
}

func (m *mapRepo) Save(ctx context.Context, item *model.EmbeddingCache) error {
	m.saves++
	m.items[item.ModelName+item.TaskType+item.ContentHash] = item.Embedding
	return nil
}

func TestLRUEmbedderCachesPerTaskType(t *testing.T) {
	next := &countingEmbedder{}
	e := WrapLruCacheToEmbedder(next, 16, time.Minute)
	ctx := context.Background()

	first, err := e.Embed(ctx, "fever", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "fever", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, next.calls)

	_, err = e.Embed(ctx, "fever", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)

	second[0] = 99
	third, _ := e.Embed(ctx, "fever", "RETRIEVAL_QUERY")
	require.NotEqual(t, float32(99), third[0])
}

func TestLRUEmbedderDisabled(t *testing.T) {
	next := &countingEmbedder{}
	require.Same(t, next, WrapLruCacheToEmbedder(next, 0, time.Minute))
}

func TestDBEmbedderPersists(t *testing.T) {
	next := &countingEmbedder{}
	repo := &mapRepo{items: map[string][]float32{}}
	e := WrapDBCacheToEmbedder(next, repo)
	ctx := context.Background()

	_, err := e.Embed(ctx, "cough", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	_, err = e.Embed(ctx, "cough", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 1, next.calls)
	require.Equal(t, 1, repo.saves)
}

func TestDBEmbedderPropagatesErrors(t *testing.T) {
	want := errors.New("quota")
	e := WrapDBCacheToEmbedder(&countingEmbedder{err: want}, &mapRepo{items: map[string][]float32{}})
	_, err := e.Embed(context.Background(), "x", "")
	require.ErrorIs(t, err, want)
}
