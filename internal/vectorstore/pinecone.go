package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pinecone-io/go-pinecone/v4/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xxxsen/medassist/internal/model"
)

type pineconeConfig struct {
	APIKey    string `json:"api_key"`
	IndexName string `json:"index_name"`
	Host      string `json:"host"`
	Namespace string `json:"namespace"`
}

// pineconeStore ids vectors as "<doc_id>#<chunk_index>" so that a document can
// be listed and deleted by id prefix on serverless indexes.
type pineconeStore struct {
	conn *pinecone.IndexConnection
}

func init() {
	Register("pinecone", createPineconeStore)
}

func createPineconeStore(ctx context.Context, args FactoryArgs) (Store, error) {
	cfg := &pineconeConfig{}
	if err := decodeConfig(args.Data, cfg); err != nil {
		return nil, err
	}
	if cfg.APIKey == "" || (cfg.IndexName == "" && cfg.Host == "") {
		return nil, fmt.Errorf("pinecone api_key and index_name or host are required")
	}
	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("init pinecone client: %w", err)
	}
	host := cfg.Host
	if host == "" {
		idx, err := client.DescribeIndex(ctx, cfg.IndexName)
		if err != nil {
			return nil, fmt.Errorf("describe pinecone index: %w", err)
		}
		host = idx.Host
	}
	conn, err := client.Index(pinecone.NewIndexConnParams{Host: host, Namespace: cfg.Namespace})
	if err != nil {
		return nil, fmt.Errorf("connect pinecone index: %w", err)
	}
	return &pineconeStore{conn: conn}, nil
}

func chunkMetadata(c model.Chunk) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"doc_id":      c.DocID,
		"chunk_index": c.ChunkIndex,
		"filename":    c.Filename,
		"upload_time": c.UploadTime,
		"text":        c.Text,
		"shared":      c.Shared,
	})
}

func chunkFromMetadata(md *structpb.Struct) model.Chunk {
	fields := md.GetFields()
	return model.Chunk{
		DocID:      fields["doc_id"].GetStringValue(),
		ChunkIndex: int(fields["chunk_index"].GetNumberValue()),
		Filename:   fields["filename"].GetStringValue(),
		UploadTime: int64(fields["upload_time"].GetNumberValue()),
		Text:       fields["text"].GetStringValue(),
		Shared:     fields["shared"].GetBoolValue(),
	}
}

func (s *pineconeStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	vectors := make([]*pinecone.Vector, 0, len(records))
	for _, r := range records {
		md, err := chunkMetadata(r.Chunk)
		if err != nil {
			return err
		}
		values := r.Vector
		vectors = append(vectors, &pinecone.Vector{
			Id:       recordID(r.Chunk),
			Values:   &values,
			Metadata: md,
		})
	}
	_, err := s.conn.UpsertVectors(ctx, vectors)
	return err
}

func (s *pineconeStore) Query(ctx context.Context, vector []float32, k int, filter Filter) ([]model.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	req := &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(k),
		IncludeMetadata: true,
	}
	mf, err := queryFilter(filter)
	if err != nil {
		return nil, err
	}
	req.MetadataFilter = mf
	resp, err := s.conn.QueryByVectorValues(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]model.ScoredChunk, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil || m.Vector.Metadata == nil {
			continue
		}
		out = append(out, model.ScoredChunk{Chunk: chunkFromMetadata(m.Vector.Metadata), Score: m.Score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// queryFilter mirrors Filter.Match as a pinecone metadata filter.
func queryFilter(filter Filter) (*structpb.Struct, error) {
	if filter.DocID == "" {
		return structpb.NewStruct(map[string]interface{}{
			"shared": map[string]interface{}{"$eq": true},
		})
	}
	return structpb.NewStruct(map[string]interface{}{
		"doc_id": map[string]interface{}{"$eq": filter.DocID},
	})
}

func (s *pineconeStore) listIDs(ctx context.Context, docID string, limit int) ([]string, error) {
	prefix := docID + "#"
	var ids []string
	var token *string
	for {
		pageSize := uint32(100)
		resp, err := s.conn.ListVectors(ctx, &pinecone.ListVectorsRequest{
			Prefix:          &prefix,
			Limit:           &pageSize,
			PaginationToken: token,
		})
		if err != nil {
			return nil, err
		}
		for _, id := range resp.VectorIds {
			if id != nil {
				ids = append(ids, *id)
			}
		}
		if limit > 0 && len(ids) >= limit {
			break
		}
		if resp.NextPaginationToken == nil || *resp.NextPaginationToken == "" {
			break
		}
		token = resp.NextPaginationToken
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *pineconeStore) Scan(ctx context.Context, filter Filter, limit int) ([]model.Chunk, error) {
	if filter.DocID == "" {
		return nil, fmt.Errorf("pinecone scan requires a doc_id")
	}
	ids, err := s.listIDs(ctx, filter.DocID, limit)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	resp, err := s.conn.FetchVectors(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.Chunk, 0, len(ids))
	for _, id := range ids {
		v, ok := resp.Vectors[id]
		if !ok || v == nil || v.Metadata == nil {
			continue
		}
		out = append(out, chunkFromMetadata(v.Metadata))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (s *pineconeStore) Delete(ctx context.Context, filter Filter) error {
	if strings.TrimSpace(filter.DocID) == "" {
		return ErrUnscoped
	}
	ids, err := s.listIDs(ctx, filter.DocID, 0)
	if err != nil || len(ids) == 0 {
		return err
	}
	for _, batch := range splitIDs(ids, pineconeDeleteBatch) {
		if err := s.conn.DeleteVectorsById(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// pineconeDeleteBatch is the per-request id cap of the delete endpoint.
const pineconeDeleteBatch = 1000

func splitIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	var out [][]string
	for len(ids) > 0 {
		n := size
		if n > len(ids) {
			n = len(ids)
		}
		out = append(out, ids[:n])
		ids = ids[n:]
	}
	return out
}

func (s *pineconeStore) Close() error {
	return s.conn.Close()
}
