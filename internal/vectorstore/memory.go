package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/xxxsen/medassist/internal/model"
)

type memoryEntry struct {
	seq    int64
	record Record
}

// memoryStore is a brute-force cosine index for development and tests.
type memoryStore struct {
	mu      sync.RWMutex
	seq     int64
	entries map[string]*memoryEntry
}

func init() {
	Register("memory", func(ctx context.Context, args FactoryArgs) (Store, error) {
		return NewMemoryStore(), nil
	})
}

func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[string]*memoryEntry)}
}

func (s *memoryStore) Upsert(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		id := recordID(r.Chunk)
		if existing, ok := s.entries[id]; ok {
			existing.record = r
			continue
		}
		s.seq++
		s.entries[id] = &memoryEntry{seq: s.seq, record: r}
	}
	return nil
}

func (s *memoryStore) matching(filter Filter) []*memoryEntry {
	out := make([]*memoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if !filter.Match(e.record.Chunk) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (s *memoryStore) Query(ctx context.Context, vector []float32, k int, filter Filter) ([]model.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	candidates := s.matching(filter)
	s.mu.RUnlock()

	scored := make([]model.ScoredChunk, 0, len(candidates))
	for _, e := range candidates {
		scored = append(scored, model.ScoredChunk{Chunk: e.record.Chunk, Score: cosine(vector, e.record.Vector)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (s *memoryStore) Scan(ctx context.Context, filter Filter, limit int) ([]model.Chunk, error) {
	s.mu.RLock()
	candidates := s.matching(filter)
	s.mu.RUnlock()

	out := make([]model.Chunk, 0, len(candidates))
	for _, e := range candidates {
		out = append(out, e.record.Chunk)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) Delete(ctx context.Context, filter Filter) error {
	if filter.DocID == "" {
		return ErrUnscoped
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if e.record.Chunk.DocID == filter.DocID {
			delete(s.entries, id)
		}
	}
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}

func cosine(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
