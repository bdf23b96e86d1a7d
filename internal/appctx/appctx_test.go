package appctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/medassist/internal/ai"
	"github.com/xxxsen/medassist/internal/config"
)

type stubProvider struct{}

func (stubProvider) Name() string {
	return "stub"
}

func (stubProvider) Chat(context.Context, string, []ai.Message, ai.ChatOptions) (string, error) {
	return "ok", nil
}

func (stubProvider) Embed(context.Context, string, string, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func init() {
	ai.Register("appctx-stub", func(interface{}) (ai.IProvider, error) {
		return stubProvider{}, nil
	})
}

func testConfig() *config.Config {
	return &config.Config{
		AI: config.AIConfig{
			Chat:       []config.AIProviderConfig{{Provider: "appctx-stub", Model: "chat-1"}},
			Embed:      []config.AIProviderConfig{{Provider: "appctx-stub", Model: "embed-1"}},
			Timeout:    5,
			EmbedCache: config.EmbedCacheConfig{LRUSize: 8, LRUTTL: 60},
		},
		VectorStore: config.ProviderConfig{Type: "memory"},
	}
}

func TestAcquireAndClose(t *testing.T) {
	app := New(testConfig(), nil, nil)
	clients, err := app.Acquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, clients.Chat)
	require.NotNil(t, clients.Vectors)
	vec, err := clients.Embedder.Embed(context.Background(), "hi", ai.TaskRetrievalQuery)
	require.NoError(t, err)
	require.Equal(t, []float32{1, 0}, vec)
	require.Equal(t, 1, app.Vectors.Refs())

	require.NoError(t, app.Close())
	require.Equal(t, 0, app.Chat.Refs())
	require.Equal(t, 0, app.Embedder.Refs())
	require.Equal(t, 0, app.Vectors.Refs())
}

func TestAcquireRollsBackOnFailure(t *testing.T) {
	cfg := testConfig()
	cfg.VectorStore.Type = "nope"
	app := New(cfg, nil, nil)
	_, err := app.Acquire(context.Background())
	require.ErrorContains(t, err, "init vector store")
	require.Equal(t, 0, app.Chat.Refs())
	require.Equal(t, 0, app.Embedder.Refs())
}
