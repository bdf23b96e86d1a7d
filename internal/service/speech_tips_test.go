package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/medassist/internal/ai"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
)

type fakeTranscriber struct {
	got []byte
	err error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte) (string, error) {
	f.got = audio
	return "my head hurts", f.err
}

func TestTranscribe(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTranscriber{}
	svc := NewSpeechService(tr)
	enc := base64.StdEncoding.EncodeToString([]byte("webm"))

	text, err := svc.Transcribe(ctx, enc)
	require.NoError(t, err)
	require.Equal(t, "my head hurts", text)

	_, err = svc.Transcribe(ctx, "data:audio/webm;base64,"+enc)
	require.NoError(t, err)
	require.Equal(t, "webm", string(tr.got))

	_, err = svc.Transcribe(ctx, "%%%")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	tr.err = errors.New("quota")
	_, err = svc.Transcribe(ctx, enc)
	require.ErrorIs(t, err, appErr.ErrUpstream)

	_, err = NewSpeechService(nil).Transcribe(ctx, enc)
	require.ErrorIs(t, err, ai.ErrUnavailable)
}

func TestParseTips(t *testing.T) {
	tips, err := ParseTips(strings.NewReader("1. Drink water.\nno number here\n2.   Sleep 8 hours\n3.\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"Drink water.", "Sleep 8 hours"}, tips)
}

func TestRandomTips(t *testing.T) {
	svc := NewTipsService([]string{"a", "b", "c", "d", "e", "f", "g"})
	got := svc.Random(DefaultTipCount)
	require.Len(t, got, DefaultTipCount)
	seen := map[string]bool{}
	for _, tip := range got {
		require.False(t, seen[tip])
		seen[tip] = true
	}
	require.Len(t, NewTipsService([]string{"only"}).Random(5), 1)
	require.Empty(t, NewTipsService(nil).Random(5))
}
