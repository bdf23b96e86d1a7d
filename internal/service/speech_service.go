package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/xxxsen/medassist/internal/ai"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
	"github.com/xxxsen/medassist/internal/speech"
)

type SpeechService struct {
	transcriber speech.Transcriber
}

// NewSpeechService accepts a nil transcriber; Transcribe then reports the
// service as unavailable.
func NewSpeechService(t speech.Transcriber) *SpeechService {
	return &SpeechService{transcriber: t}
}

// Transcribe takes base64 audio, optionally as a data URL.
func (s *SpeechService) Transcribe(ctx context.Context, encoded string) (string, error) {
	if s.transcriber == nil {
		return "", ai.ErrUnavailable
	}
	encoded = strings.TrimSpace(encoded)
	if i := strings.Index(encoded, ";base64,"); strings.HasPrefix(encoded, "data:") && i > 0 {
		encoded = encoded[i+len(";base64,"):]
	}
	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(audio) == 0 {
		return "", appErr.ErrInvalid
	}
	text, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("%w: %w", appErr.ErrUpstream, err)
	}
	return text, nil
}
