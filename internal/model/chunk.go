package model

// Chunk is one indexed slice of an uploaded document. All chunks of an upload
// share a DocID and carry a strictly increasing ChunkIndex starting at 0.
// Shared marks knowledge-base chunks visible to every session.
type Chunk struct {
	Text       string `json:"text"`
	DocID      string `json:"doc_id"`
	ChunkIndex int    `json:"chunk_index"`
	Filename   string `json:"filename"`
	UploadTime int64  `json:"upload_time"`
	Shared     bool   `json:"shared,omitempty"`
}

// ScoredChunk is a retrieval hit; higher scores are more relevant.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}
