package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/ai"
	"github.com/xxxsen/medassist/internal/metrics"
	"github.com/xxxsen/medassist/internal/model"
	"github.com/xxxsen/medassist/internal/vectorstore"
)

// BatchError reports an ingestion that stopped part way. Batches listed in
// Succeeded remain indexed; the caller recovers by deleting DocID.
type BatchError struct {
	DocID     string
	Total     int
	Succeeded []int
	Failed    int
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("index doc %s: batch %d of %d failed after %d succeeded: %v",
		e.DocID, e.Failed+1, e.Total, len(e.Succeeded), e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

type Index struct {
	embedder     ai.IEmbedder
	store        vectorstore.Store
	batchSize    int
	storeTimeout time.Duration
}

type IndexOption func(*Index)

// WithStoreTimeout bounds each vector store call. Zero leaves calls bounded
// only by the caller's context.
func WithStoreTimeout(d time.Duration) IndexOption {
	return func(x *Index) {
		x.storeTimeout = d
	}
}

func NewIndex(embedder ai.IEmbedder, store vectorstore.Store, batchSize int, opts ...IndexOption) *Index {
	if batchSize <= 0 {
		batchSize = 50
	}
	x := &Index{embedder: embedder, store: store, batchSize: batchSize}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

func (x *Index) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if x.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, x.storeTimeout)
}

// BatchCount is the number of batches Add uses for n chunks.
func (x *Index) BatchCount(n int) int {
	return (n + x.batchSize - 1) / x.batchSize
}

// Add embeds and writes chunks in sequential batches, stopping at the first
// failed batch.
func (x *Index) Add(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	logger := logutil.GetLogger(ctx).With(zap.String("doc_id", chunks[0].DocID))
	total := x.BatchCount(len(chunks))
	succeeded := make([]int, 0, total)
	for b := 0; b < total; b++ {
		start := b * x.batchSize
		end := start + x.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := x.addBatch(ctx, chunks[start:end]); err != nil {
			metrics.IngestBatches.WithLabelValues("failed").Inc()
			logger.Error("index batch failed", zap.Int("batch", b), zap.Int("total", total), zap.Error(err))
			return &BatchError{DocID: chunks[0].DocID, Total: total, Succeeded: succeeded, Failed: b, Err: err}
		}
		metrics.IngestBatches.WithLabelValues("ok").Inc()
		metrics.IngestChunks.Add(float64(end - start))
		succeeded = append(succeeded, b)
		logger.Debug("index batch written", zap.Int("batch", b), zap.Int("total", total))
	}
	logger.Info("document indexed", zap.Int("chunks", len(chunks)), zap.Int("batches", total))
	return nil
}

func (x *Index) addBatch(ctx context.Context, batch []model.Chunk) error {
	records := make([]vectorstore.Record, 0, len(batch))
	for _, c := range batch {
		vec, err := x.embedder.Embed(ctx, c.Text, ai.TaskRetrievalDocument)
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", c.ChunkIndex, err)
		}
		records = append(records, vectorstore.Record{Chunk: c, Vector: vec})
	}
	sctx, cancel := x.storeCtx(ctx)
	defer cancel()
	return x.store.Upsert(sctx, records)
}

// Search returns up to k chunks by decreasing relevance. An empty query with a
// doc filter lists the document's leading chunks in order instead.
func (x *Index) Search(ctx context.Context, query string, k int, filter vectorstore.Filter) ([]model.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() { metrics.RetrievalLatency.Observe(time.Since(start).Seconds()) }()

	if strings.TrimSpace(query) == "" {
		if filter.DocID == "" {
			return nil, nil
		}
		sctx, cancel := x.storeCtx(ctx)
		defer cancel()
		chunks, err := x.store.Scan(sctx, filter, k)
		if err != nil {
			return nil, err
		}
		out := make([]model.ScoredChunk, 0, len(chunks))
		for _, c := range chunks {
			out = append(out, model.ScoredChunk{Chunk: c})
		}
		return out, nil
	}
	vec, err := x.embedder.Embed(ctx, query, ai.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	sctx, cancel := x.storeCtx(ctx)
	defer cancel()
	res, err := x.store.Query(sctx, vec, k, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Score > res[j].Score })
	if len(res) > k {
		res = res[:k]
	}
	return res, nil
}

// Delete drops every chunk of docID. Unknown ids are a no-op.
func (x *Index) Delete(ctx context.Context, docID string) error {
	if strings.TrimSpace(docID) == "" {
		return vectorstore.ErrUnscoped
	}
	sctx, cancel := x.storeCtx(ctx)
	defer cancel()
	if err := x.store.Delete(sctx, vectorstore.Filter{DocID: docID}); err != nil {
		return fmt.Errorf("delete doc %s: %w", docID, err)
	}
	return nil
}
