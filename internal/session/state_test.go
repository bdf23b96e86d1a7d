package session

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendKeepsLastFive(t *testing.T) {
	s := New()
	for i := 0; i < 8; i++ {
		s.Append(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
		require.LessOrEqual(t, len(s.History), MaxHistory)
	}
	require.Len(t, s.History, MaxHistory)
	require.Equal(t, "q3", s.History[0].User)
	require.Equal(t, "q7", s.History[4].User)
	require.Equal(t, Context{LastQuestion: "q7", LastAnswer: "a7"}, s.CurrentContext)
}

func TestRenderHistoryOldestFirst(t *testing.T) {
	s := New()
	require.Empty(t, s.RenderHistory())
	s.Append("hello", "hi")
	s.Append("fever?", "rest")
	require.Equal(t, "User: hello\nAssistant: hi\nUser: fever?\nAssistant: rest", s.RenderHistory())

	for i := 0; i < 10; i++ {
		s.Append(fmt.Sprintf("q%d", i), "a")
	}
	lines := strings.Split(s.RenderHistory(), "\n")
	require.Len(t, lines, 2*MaxHistory)
	require.Equal(t, "User: q5", lines[0])
	require.Equal(t, "User: q9", lines[8])
}

func TestDocumentTracking(t *testing.T) {
	s := New()
	require.Empty(t, s.RecentDocument())
	s.AddDocument("a")
	s.AddDocument("b")
	require.Equal(t, "b", s.RecentDocument())
	require.True(t, s.HasDocument("a"))
	require.True(t, s.RemoveDocument("b"))
	require.False(t, s.RemoveDocument("b"))
	require.Equal(t, "a", s.RecentDocument())
}
