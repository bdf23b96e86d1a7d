package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/medassist/internal/model"
	"github.com/xxxsen/medassist/internal/pkg/errcode"
	"github.com/xxxsen/medassist/internal/pkg/response"
	"github.com/xxxsen/medassist/internal/service"
)

type helpFinder interface {
	FindHelp(ctx context.Context, disease, location string) (*service.HelpResult, error)
}

type reminderScheduler interface {
	Schedule(ctx context.Context, email string, medicines []model.Medicine) (int, error)
}

type transcriber interface {
	Transcribe(ctx context.Context, encoded string) (string, error)
}

type tipPicker interface {
	Random(n int) []string
}

// AssistHandler serves the endpoints around the chat: hospital lookup,
// medicine reminders, speech input and health tips.
type AssistHandler struct {
	help      helpFinder
	reminders reminderScheduler
	speech    transcriber
	tips      tipPicker
}

func NewAssistHandler(help helpFinder, reminders reminderScheduler, speech transcriber, tips tipPicker) *AssistHandler {
	return &AssistHandler{help: help, reminders: reminders, speech: speech, tips: tips}
}

type findHelpRequest struct {
	Disease  string `json:"disease"`
	Location string `json:"location"`
}

func (h *AssistHandler) FindMedicalHelp(c *gin.Context) {
	var req findHelpRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Disease == "" || req.Location == "" {
		response.Error(c, errcode.ErrInvalid, "disease and location are required")
		return
	}
	result, err := h.help.FindHelp(c.Request.Context(), req.Disease, req.Location)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

type scheduleRequest struct {
	Email     string           `json:"email"`
	Medicines []model.Medicine `json:"medicines"`
}

func (h *AssistHandler) Schedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	count, err := h.reminders.Schedule(c.Request.Context(), req.Email, req.Medicines)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"scheduled": count, "message": "Reminders scheduled successfully!"})
}

type speechRequest struct {
	AudioData string `json:"audio_data"`
}

func (h *AssistHandler) SpeechToText(c *gin.Context) {
	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AudioData == "" {
		response.Error(c, errcode.ErrInvalid, "no audio data received")
		return
	}
	text, err := h.speech.Transcribe(c.Request.Context(), req.AudioData)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"text": text})
}

func (h *AssistHandler) RandomTips(c *gin.Context) {
	response.Success(c, gin.H{"tips": h.tips.Random(service.DefaultTipCount)})
}
