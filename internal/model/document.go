package model

const (
	DocumentStateIndexed = "indexed"
	DocumentStatePartial = "partial"
)

// UploadedDocument tracks one upload and the session that owns it.
type UploadedDocument struct {
	DocID          string `json:"doc_id"`
	UserID         string `json:"user_id"`
	SessionID      string `json:"session_id"`
	Filename       string `json:"filename"`
	FileKey        string `json:"file_key"`
	ChunkCount     int    `json:"chunk_count"`
	IndexedBatches int    `json:"indexed_batches"`
	State          string `json:"state"`
	Ctime          int64  `json:"ctime"`
	Mtime          int64  `json:"mtime"`
}
