package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/ai"
	"github.com/xxxsen/medassist/internal/locator"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
)

const formatterSystem = "You are a medical information formatter. Format the given medical recommendations to be concise, clear, and user-friendly. Preserve the emojis and formatting."

const formatterPrompt = `Please format this medical recommendation to be concise, clear, and user-friendly.
Avoid using Markdown formatting like **bold**, __italic__, or backticks.
Keep the emojis and stars, maintain proper spacing, and ensure it's easy to read.

%s`

type recommender interface {
	Recommend(ctx context.Context, disease, location string) (*locator.Recommendation, error)
}

type LocatorService struct {
	locator recommender
	chat    ai.IChatModel
}

// NewLocatorService accepts a nil chat model; recommendations are then
// returned unformatted. A nil locator makes FindHelp report the service as
// unavailable.
func NewLocatorService(loc recommender, chat ai.IChatModel) *LocatorService {
	return &LocatorService{locator: loc, chat: chat}
}

type HelpResult struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (s *LocatorService) FindHelp(ctx context.Context, disease, location string) (*HelpResult, error) {
	disease = strings.TrimSpace(disease)
	location = strings.TrimSpace(location)
	if disease == "" || location == "" {
		return nil, appErr.ErrInvalid
	}
	if s.locator == nil {
		return nil, ai.ErrUnavailable
	}
	rec, err := s.locator.Recommend(ctx, disease, location)
	switch {
	case errors.Is(err, locator.ErrNoSpecialist):
		return &HelpResult{Message: fmt.Sprintf("I couldn't find any specialists for %s.", disease)}, nil
	case errors.Is(err, locator.ErrNoHospital):
		return &HelpResult{Message: fmt.Sprintf("I couldn't find any hospitals with %s near %s.", rec.Specialist.Name, location)}, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %w", appErr.ErrUpstream, err)
	}
	return &HelpResult{Success: true, Response: s.format(ctx, locator.Render(rec))}, nil
}

func (s *LocatorService) format(ctx context.Context, raw string) string {
	if s.chat == nil {
		return raw
	}
	out, err := s.chat.Chat(ctx, ai.SystemAndUser(formatterSystem, fmt.Sprintf(formatterPrompt, raw)))
	if err != nil || strings.TrimSpace(out) == "" {
		logutil.GetLogger(ctx).Warn("format recommendation failed, using raw text", zap.Error(err))
		return raw
	}
	return strings.TrimSpace(out)
}
