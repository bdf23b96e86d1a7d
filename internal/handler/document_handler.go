package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/medassist/internal/pkg/errcode"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
	"github.com/xxxsen/medassist/internal/pkg/response"
	"github.com/xxxsen/medassist/internal/rag"
	"github.com/xxxsen/medassist/internal/service"
)

type documentManager interface {
	Upload(ctx context.Context, userID, sessionID, filename string, data []byte) (*service.UploadResult, error)
	Delete(ctx context.Context, userID, sessionID, docID string) error
	CleanupSession(ctx context.Context, userID, sessionID string, docIDs []string) (int, error)
	Summary(ctx context.Context, userID, sessionID, docID string) (*service.SummaryResult, error)
}

type DocumentHandler struct {
	documents documentManager
	maxUpload int64
}

func NewDocumentHandler(documents documentManager, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{documents: documents, maxUpload: maxUpload}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+1024*1024)
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, errcode.ErrInvalidFile, "file too large, limit is "+formatUploadLimit(h.maxUpload))
			return
		}
		response.Error(c, errcode.ErrInvalidFile, "no file uploaded")
		return
	}
	defer file.Close()
	if strings.TrimSpace(header.Filename) == "" {
		response.Error(c, errcode.ErrInvalidFile, "no file selected")
		return
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		response.Error(c, errcode.ErrInvalidFile, "file too large, limit is "+formatUploadLimit(h.maxUpload))
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "read uploaded file failed")
		return
	}
	result, err := h.documents.Upload(c.Request.Context(), getUserID(c), getSessionID(c), header.Filename, data)
	var batchErr *rag.BatchError
	switch {
	case err == nil:
		response.Success(c, result)
	case result != nil && errors.As(err, &batchErr):
		logFailure(c, err)
		response.ErrorWithData(c, errcode.ErrPartialUpload, result.Message, result)
	default:
		handleError(c, err)
	}
}

type deleteDocumentRequest struct {
	DocID string `json:"doc_id"`
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	var req deleteDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.DocID) == "" {
		response.Error(c, errcode.ErrInvalid, "no document id provided")
		return
	}
	if err := h.documents.Delete(c.Request.Context(), getUserID(c), getSessionID(c), req.DocID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"doc_id": req.DocID, "message": "Document deleted successfully"})
}

type cleanupSessionRequest struct {
	DocIDs []string `json:"doc_ids"`
}

func (h *DocumentHandler) CleanupSession(c *gin.Context) {
	var req cleanupSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			handleError(c, appErr.ErrInvalid)
			return
		}
	}
	removed, err := h.documents.CleanupSession(c.Request.Context(), getUserID(c), getSessionID(c), req.DocIDs)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"removed": removed, "message": "Session cleaned up"})
}

type summaryRequest struct {
	DocID string `json:"doc_id"`
}

func (h *DocumentHandler) Summary(c *gin.Context) {
	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.DocID) == "" {
		response.Error(c, errcode.ErrInvalid, "no document id provided")
		return
	}
	result, err := h.documents.Summary(c.Request.Context(), getUserID(c), getSessionID(c), req.DocID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
