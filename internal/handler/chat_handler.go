package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
	"github.com/xxxsen/medassist/internal/pkg/response"
)

type chatAsker interface {
	Ask(ctx context.Context, userID, sessionID, msg string) (string, error)
}

type ChatHandler struct {
	chat chatAsker
}

func NewChatHandler(chat chatAsker) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Msg string `json:"msg" form:"msg"`
}

// Get answers one message. The reply is plain text; a failed generation still
// answers with the apology text so the chat window shows something.
func (h *ChatHandler) Get(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBind(&req); err != nil || strings.TrimSpace(req.Msg) == "" {
		handleError(c, appErr.ErrInvalid)
		return
	}
	answer, err := h.chat.Ask(c.Request.Context(), getUserID(c), getSessionID(c), req.Msg)
	if err != nil {
		if answer == "" || errors.Is(err, appErr.ErrInvalid) {
			handleError(c, err)
			return
		}
		logFailure(c, err)
	}
	response.Text(c, answer)
}
