package rag

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"

	"github.com/xxxsen/medassist/internal/ai"
	"github.com/xxxsen/medassist/internal/model"
	"github.com/xxxsen/medassist/internal/vectorstore"
)

// letterEmbedder maps text to its letter histogram, enough for cosine
// similarity to prefer chunks sharing vocabulary with the query.
type letterEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (e *letterEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.fail {
		return nil, errors.New("embed down")
	}
	vec := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec, nil
}

func (e *letterEmbedder) ModelName() string {
	return "letters"
}

// echoChat replies with the grounding context it was given.
type echoChat struct {
	calls    int
	err      error
	messages []ai.Message
}

func (c *echoChat) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	c.calls++
	c.messages = messages
	if c.err != nil {
		return "", c.err
	}
	system := messages[0].Content
	idx := strings.LastIndex(system, "Context:\n")
	return system[idx+len("Context:\n"):], nil
}

func (c *echoChat) ModelName() string {
	return "echo"
}

// flakyStore fails the Nth upsert call (1-based).
type flakyStore struct {
	vectorstore.Store
	failOn int
	calls  int
}

func (s *flakyStore) Upsert(ctx context.Context, records []vectorstore.Record) error {
	s.calls++
	if s.calls == s.failOn {
		return errors.New("upsert rejected")
	}
	return s.Store.Upsert(ctx, records)
}

// stallingStore blocks every call until its context ends.
type stallingStore struct {
	vectorstore.Store
}

func (stallingStore) Upsert(ctx context.Context, _ []vectorstore.Record) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stallingStore) Query(ctx context.Context, _ []float32, _ int, _ vectorstore.Filter) ([]model.ScoredChunk, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stallingStore) Delete(ctx context.Context, _ vectorstore.Filter) error {
	<-ctx.Done()
	return ctx.Err()
}

func makeChunks(docID string, n int) []model.Chunk {
	out := make([]model.Chunk, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.Chunk{DocID: docID, ChunkIndex: i, Text: strings.Repeat("a", i+1)})
	}
	return out
}

func isSpaceOnly(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
