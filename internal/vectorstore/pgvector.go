package vectorstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/medassist/internal/model"
	"github.com/xxxsen/medassist/internal/pkg/dbutil"
)

// pgvectorStore keeps chunks in the chunk_embeddings table; the id column is
// a bigserial and doubles as the insertion order tie-breaker.
type pgvectorStore struct {
	db *sql.DB
}

func init() {
	Register("pgvector", func(ctx context.Context, args FactoryArgs) (Store, error) {
		if args.DB == nil {
			return nil, fmt.Errorf("pgvector store requires a database")
		}
		return NewPGVectorStore(args.DB), nil
	})
}

func NewPGVectorStore(db *sql.DB) Store {
	return &pgvectorStore{db: db}
}

const pgUpsertQuery = `
	INSERT INTO chunk_embeddings (doc_id, chunk_index, filename, upload_time, content, shared, embedding)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (doc_id, chunk_index) DO UPDATE SET
		filename = EXCLUDED.filename,
		shared = EXCLUDED.shared,
		upload_time = EXCLUDED.upload_time,
		content = EXCLUDED.content,
		embedding = EXCLUDED.embedding
`

func (s *pgvectorStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, r := range records {
		c := r.Chunk
		if _, err := tx.ExecContext(ctx, pgUpsertQuery,
			c.DocID, c.ChunkIndex, c.Filename, c.UploadTime, c.Text, c.Shared, pgvector.NewVector(r.Vector),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

const pgQuery = `
	SELECT doc_id, chunk_index, filename, upload_time, content, shared, 1 - (embedding <=> $1) AS score
	FROM chunk_embeddings
	WHERE (($2 = '' AND shared) OR doc_id = $2)
	ORDER BY embedding <=> $1, id
	LIMIT $3
`

func (s *pgvectorStore) Query(ctx context.Context, vector []float32, k int, filter Filter) ([]model.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, pgQuery, pgvector.NewVector(vector), filter.DocID, k)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.ScoredChunk
	for rows.Next() {
		var item model.ScoredChunk
		c := &item.Chunk
		if err := rows.Scan(&c.DocID, &c.ChunkIndex, &c.Filename, &c.UploadTime, &c.Text, &c.Shared, &item.Score); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *pgvectorStore) Scan(ctx context.Context, filter Filter, limit int) ([]model.Chunk, error) {
	where := map[string]interface{}{
		"_orderby": "chunk_index asc",
	}
	if filter.DocID != "" {
		where["doc_id"] = filter.DocID
	} else {
		where["shared"] = true
	}
	if limit > 0 {
		where["_limit"] = []uint{0, uint(limit)}
	}
	sqlStr, args, err := builder.BuildSelect("chunk_embeddings", where, []string{"doc_id", "chunk_index", "filename", "upload_time", "content", "shared"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Chunk
	for rows.Next() {
		var c model.Chunk
		if err := rows.Scan(&c.DocID, &c.ChunkIndex, &c.Filename, &c.UploadTime, &c.Text, &c.Shared); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *pgvectorStore) Delete(ctx context.Context, filter Filter) error {
	if filter.DocID == "" {
		return ErrUnscoped
	}
	sqlStr, args, err := builder.BuildDelete("chunk_embeddings", map[string]interface{}{"doc_id": filter.DocID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = s.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (s *pgvectorStore) Close() error {
	return nil
}
