package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/ai"
	"github.com/xxxsen/medassist/internal/middleware"
	"github.com/xxxsen/medassist/internal/pkg/errcode"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
	"github.com/xxxsen/medassist/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	return middleware.UserID(c)
}

func getSessionID(c *gin.Context) string {
	return middleware.SessionID(c)
}

// handleError maps err onto the envelope code. Upstream causes are logged and
// never echoed to the client.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logFailure(c, err)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrUnsupportedFile):
		response.Error(c, errcode.ErrUnsupportedFile, "unsupported file type, upload a pdf, txt or md file")
	case errors.Is(err, appErr.ErrNoContent):
		response.Error(c, errcode.ErrNoContent, "no readable text found in the file")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, errcode.ErrTooMany, "too many requests")
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "service unavailable")
	case errors.Is(err, appErr.ErrUpstream):
		response.Error(c, errcode.ErrUpstream, "upstream service failed, please try again later")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

func logFailure(c *gin.Context, err error) {
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
}
