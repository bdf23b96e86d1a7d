package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubChat struct {
	name  string
	reply string
	err   error
	calls int
	delay time.Duration
}

func (s *stubChat) Chat(ctx context.Context, messages []Message) (string, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.reply, s.err
}

func (s *stubChat) ModelName() string {
	return s.name
}

type stubEmbedder struct {
	vec   []float32
	err   error
	delay time.Duration
}

func (s *stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.vec, s.err
}

func (s *stubEmbedder) ModelName() string {
	return "stub"
}

func TestGroupChatModelFallsBack(t *testing.T) {
	first := &stubChat{name: "a", err: errors.New("boom")}
	second := &stubChat{name: "b", reply: "ok"}
	model := NewGroupChatModel([]ChatModelEntry{{Name: "a", Model: first}, {Name: "b", Model: second}})

	res, err := model.Chat(context.Background(), SystemAndUser("sys", "hi"))
	require.NoError(t, err)
	require.Equal(t, "ok", res)
	require.Equal(t, 1, first.calls)
	require.Equal(t, "a|b", model.ModelName())
}

func TestGroupChatModelReturnsLastError(t *testing.T) {
	want := errors.New("last")
	model := NewGroupChatModel([]ChatModelEntry{
		{Name: "a", Model: &stubChat{err: errors.New("first")}},
		{Name: "b", Model: &stubChat{err: want}},
	})
	_, err := model.Chat(context.Background(), nil)
	require.ErrorIs(t, err, want)
	require.Nil(t, NewGroupChatModel(nil))
}

func TestGroupEmbedderFallsBack(t *testing.T) {
	e := NewGroupEmbedder([]EmbedderEntry{
		{Name: "a", Embedder: &stubEmbedder{err: errors.New("down")}},
		{Name: "b", Embedder: &stubEmbedder{vec: []float32{1, 2}}},
	})
	vec, err := e.Embed(context.Background(), "x", TaskRetrievalQuery)
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2}, vec)
}

func TestWithTimeout(t *testing.T) {
	slow := &stubChat{reply: "late", delay: time.Second}
	_, err := WithTimeout(slow, 10*time.Millisecond).Chat(context.Background(), nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	blank := &stubChat{reply: "   "}
	_, err = WithTimeout(blank, time.Second).Chat(context.Background(), nil)
	require.Error(t, err)
}

func TestWithEmbedTimeout(t *testing.T) {
	slow := &stubEmbedder{vec: []float32{1}, delay: time.Second}
	_, err := WithEmbedTimeout(slow, 10*time.Millisecond).Embed(context.Background(), "x", TaskRetrievalQuery)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	fast := &stubEmbedder{vec: []float32{1, 2}}
	vec, err := WithEmbedTimeout(fast, time.Second).Embed(context.Background(), "x", TaskRetrievalQuery)
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2}, vec)
	require.Same(t, fast, WithEmbedTimeout(fast, 0))
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("nope", map[string]interface{}{})
	require.Error(t, err)
	_, err = NewProvider("", nil)
	require.Error(t, err)

	p, err := NewProvider("openai", map[string]interface{}{"base_url": "http://localhost"})
	require.NoError(t, err)
	_, err = p.Chat(context.Background(), "m", nil, ChatOptions{})
	require.ErrorIs(t, err, ErrUnavailable)
}
