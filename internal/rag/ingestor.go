package rag

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xxxsen/medassist/internal/model"
)

// RawDocument is extracted text, one entry per page (a single entry for
// formats without pages).
type RawDocument struct {
	Filename string
	Pages    []string
}

type Ingestor struct {
	splitter *RecursiveSplitter
	newID    func() string
	now      func() time.Time
}

type IngestorOption func(*Ingestor)

func WithIDFunc(fn func() string) IngestorOption {
	return func(i *Ingestor) {
		i.newID = fn
	}
}

func WithClock(fn func() time.Time) IngestorOption {
	return func(i *Ingestor) {
		i.now = fn
	}
}

func NewIngestor(splitter *RecursiveSplitter, opts ...IngestorOption) *Ingestor {
	in := &Ingestor{
		splitter: splitter,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Ingest splits every page independently and numbers the resulting chunks
// across the whole document. A document without text yields no chunks.
func (in *Ingestor) Ingest(doc RawDocument) []model.Chunk {
	var texts []string
	for _, page := range doc.Pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		texts = append(texts, in.splitter.Split(page)...)
	}
	if len(texts) == 0 {
		return nil
	}
	docID := in.newID()
	uploaded := in.now().Unix()
	chunks := make([]model.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, model.Chunk{
			Text:       text,
			DocID:      docID,
			ChunkIndex: i,
			Filename:   doc.Filename,
			UploadTime: uploaded,
		})
	}
	return chunks
}
