package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/medassist/internal/model"
	"github.com/xxxsen/medassist/internal/pkg/dbutil"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
)

var documentFields = []string{"doc_id", "user_id", "session_id", "filename", "file_key",
	"chunk_count", "indexed_batches", "state", "ctime", "mtime"}

// DocumentRepo tracks uploads in uploaded_documents. The chunks themselves
// live in the vector store.
type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.UploadedDocument) error {
	data := map[string]interface{}{
		"doc_id":          doc.DocID,
		"user_id":         doc.UserID,
		"session_id":      doc.SessionID,
		"filename":        doc.Filename,
		"file_key":        doc.FileKey,
		"chunk_count":     doc.ChunkCount,
		"indexed_batches": doc.IndexedBatches,
		"state":           doc.State,
		"ctime":           doc.Ctime,
		"mtime":           doc.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("uploaded_documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *DocumentRepo) Get(ctx context.Context, docID string) (*model.UploadedDocument, error) {
	docs, err := r.list(ctx, map[string]interface{}{"doc_id": docID, "_limit": []uint{0, 1}})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, appErr.ErrNotFound
	}
	return docs[0], nil
}

func (r *DocumentRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.UploadedDocument, error) {
	return r.list(ctx, map[string]interface{}{"session_id": sessionID, "_orderby": "ctime asc"})
}

func (r *DocumentRepo) list(ctx context.Context, where map[string]interface{}) ([]*model.UploadedDocument, error) {
	sqlStr, args, err := builder.BuildSelect("uploaded_documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.UploadedDocument
	for rows.Next() {
		var doc model.UploadedDocument
		if err := rows.Scan(&doc.DocID, &doc.UserID, &doc.SessionID, &doc.Filename, &doc.FileKey,
			&doc.ChunkCount, &doc.IndexedBatches, &doc.State, &doc.Ctime, &doc.Mtime); err != nil {
			return nil, err
		}
		out = append(out, &doc)
	}
	return out, rows.Err()
}

// ListSessionIDs returns every session that still owns at least one document.
func (r *DocumentRepo) ListSessionIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT session_id FROM uploaded_documents`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete is idempotent; a missing row is not an error.
func (r *DocumentRepo) Delete(ctx context.Context, docID string) error {
	sqlStr, args, err := builder.BuildDelete("uploaded_documents", map[string]interface{}{"doc_id": docID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
