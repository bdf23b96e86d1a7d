package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/medassist/internal/config"
	"github.com/xxxsen/medassist/internal/model"
)

func rec(docID string, idx int, vec ...float32) Record {
	return Record{Chunk: model.Chunk{DocID: docID, ChunkIndex: idx, Text: docID}, Vector: vec}
}

func sharedRec(docID string, idx int, vec ...float32) Record {
	r := rec(docID, idx, vec...)
	r.Chunk.Shared = true
	return r
}

func TestMemoryStoreQueryOrdersByScoreThenInsertion(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Upsert(ctx, []Record{
		sharedRec("a", 0, 1, 0),
		sharedRec("b", 0, 0, 1),
		sharedRec("c", 0, 1, 0),
		sharedRec("d", 0, 1, 1),
	}))

	res, err := s.Query(ctx, []float32{1, 0}, 3, Filter{})
	require.NoError(t, err)
	require.Len(t, res, 3)
	require.Equal(t, "a", res[0].Chunk.DocID)
	require.Equal(t, "c", res[1].Chunk.DocID)
	require.Equal(t, "d", res[2].Chunk.DocID)
	require.GreaterOrEqual(t, res[0].Score, res[2].Score)
}

func TestMemoryStoreFilterAndScan(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Upsert(ctx, []Record{rec("a", 2, 1), rec("a", 0, 1), rec("b", 0, 1), rec("a", 1, 1)}))

	res, err := s.Query(ctx, []float32{1}, 10, Filter{DocID: "b"})
	require.NoError(t, err)
	require.Len(t, res, 1)

	chunks, err := s.Scan(ctx, Filter{DocID: "a"}, 2)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.Equal(t, 0, chunks[0].ChunkIndex)
	require.Equal(t, 1, chunks[1].ChunkIndex)
}

func TestMemoryStoreDeleteIsScoped(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Upsert(ctx, []Record{rec("a", 0, 1), rec("b", 0, 1)}))

	require.NoError(t, s.Delete(ctx, Filter{DocID: "a"}))
	require.NoError(t, s.Delete(ctx, Filter{DocID: "a"}))
	require.ErrorIs(t, s.Delete(ctx, Filter{}), ErrUnscoped)

	res, err := s.Query(ctx, []float32{1}, 10, Filter{DocID: "a"})
	require.NoError(t, err)
	require.Empty(t, res)
	res, err = s.Query(ctx, []float32{1}, 10, Filter{DocID: "b"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, "b", res[0].Chunk.DocID)
}

func TestMemoryStoreEmptyFilterSeesSharedOnly(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Upsert(ctx, []Record{
		rec("alice-upload", 0, 1, 0),
		sharedRec("kb", 0, 0, 1),
		sharedRec("kb", 1, 1, 1),
	}))

	res, err := s.Query(ctx, []float32{1, 0}, 10, Filter{})
	require.NoError(t, err)
	require.Len(t, res, 2)
	for _, r := range res {
		require.Equal(t, "kb", r.Chunk.DocID)
		require.True(t, r.Chunk.Shared)
	}

	chunks, err := s.Scan(ctx, Filter{}, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		require.NotEqual(t, "alice-upload", c.DocID)
	}

	res, err = s.Query(ctx, []float32{1, 0}, 10, Filter{DocID: "alice-upload"})
	require.NoError(t, err)
	require.Len(t, res, 1)
}

func TestMemoryStoreUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Upsert(ctx, []Record{rec("a", 0, 1)}))
	require.NoError(t, s.Upsert(ctx, []Record{rec("a", 0, 0, 1)}))
	chunks, err := s.Scan(ctx, Filter{DocID: "a"}, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}

func TestNewResolvesRegistry(t *testing.T) {
	s, err := New(context.Background(), config.ProviderConfig{Type: "memory"}, nil)
	require.NoError(t, err)
	require.NotNil(t, s)

	_, err = New(context.Background(), config.ProviderConfig{Type: "pgvector"}, nil)
	require.Error(t, err)
	_, err = New(context.Background(), config.ProviderConfig{Type: "nope"}, nil)
	require.Error(t, err)
}

func TestCosine(t *testing.T) {
	require.InDelta(t, 1.0, cosine([]float32{1, 1}, []float32{2, 2}), 1e-6)
	require.Equal(t, float32(0), cosine([]float32{1}, []float32{1, 2}))
	require.Equal(t, float32(0), cosine([]float32{0, 0}, []float32{1, 2}))
}
