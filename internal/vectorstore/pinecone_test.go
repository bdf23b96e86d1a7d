package vectorstore

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/medassist/internal/model"
)

func TestPineconeMetadataKeepsSharedFlag(t *testing.T) {
	in := model.Chunk{DocID: "kb", ChunkIndex: 4, Filename: "guide.md", UploadTime: 7, Text: "rest", Shared: true}
	md, err := chunkMetadata(in)
	require.NoError(t, err)
	require.Equal(t, in, chunkFromMetadata(md))

	in.Shared = false
	md, err = chunkMetadata(in)
	require.NoError(t, err)
	require.False(t, chunkFromMetadata(md).Shared)
}

func TestPineconeQueryFilterNeverUnscoped(t *testing.T) {
	mf, err := queryFilter(Filter{})
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"shared": map[string]interface{}{"$eq": true}}, mf.AsMap())

	mf, err = queryFilter(Filter{DocID: "doc-1"})
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"doc_id": map[string]interface{}{"$eq": "doc-1"}}, mf.AsMap())
}

func TestSplitIDsRespectsDeleteCap(t *testing.T) {
	ids := make([]string, 0, 2345)
	for i := 0; i < 2345; i++ {
		ids = append(ids, fmt.Sprintf("doc#%06d", i))
	}
	batches := splitIDs(ids, pineconeDeleteBatch)
	require.Len(t, batches, 3)
	require.Len(t, batches[0], 1000)
	require.Len(t, batches[1], 1000)
	require.Len(t, batches[2], 345)
	require.Equal(t, "doc#001000", batches[1][0])
	require.Equal(t, "doc#002344", batches[2][344])

	require.Empty(t, splitIDs(nil, pineconeDeleteBatch))
	require.Len(t, splitIDs(ids[:10], pineconeDeleteBatch), 1)
}
