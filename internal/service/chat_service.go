package service

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/model"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
	"github.com/xxxsen/medassist/internal/rag"
	"github.com/xxxsen/medassist/internal/session"
)

type profileSource interface {
	HealthProfile(ctx context.Context, userID string) (*model.HealthProfile, error)
}

// ChatService answers questions within a conversation session.
type ChatService struct {
	pipeline *rag.Pipeline
	sessions session.Store
	profiles profileSource
}

func NewChatService(pipeline *rag.Pipeline, sessions session.Store, profiles profileSource) *ChatService {
	return &ChatService{pipeline: pipeline, sessions: sessions, profiles: profiles}
}

// Ask returns the answer for msg. On a pipeline failure the returned text is
// the generic apology and err carries the cause; the session is left as is.
func (s *ChatService) Ask(ctx context.Context, userID, sessionID, msg string) (string, error) {
	msg = strings.TrimSpace(msg)
	if msg == "" || sessionID == "" {
		return "", appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID), zap.String("session_id", sessionID))
	state, _, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		logger.Error("load session failed", zap.Error(err))
		return rag.GenericFailureAnswer, err
	}
	profile, err := s.profiles.HealthProfile(ctx, userID)
	if err != nil {
		logger.Warn("load health profile failed, answering without it", zap.Error(err))
		profile = nil
	}
	answer, err := s.pipeline.Ask(ctx, msg, profile, state)
	if err != nil {
		return answer, err
	}
	if err := s.sessions.Save(ctx, sessionID, state); err != nil {
		logger.Error("save session failed", zap.Error(err))
	}
	return answer, nil
}
