package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/ai"
	"github.com/xxxsen/medassist/internal/extract"
	"github.com/xxxsen/medassist/internal/filestore"
	"github.com/xxxsen/medassist/internal/model"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
	"github.com/xxxsen/medassist/internal/pkg/timeutil"
	"github.com/xxxsen/medassist/internal/rag"
	"github.com/xxxsen/medassist/internal/session"
	"github.com/xxxsen/medassist/internal/vectorstore"
)

const (
	uploadedMessage  = "File processed and stored successfully"
	partialMessage   = "File was only partially indexed; delete it and upload again"
	NoContentSummary = "No content found in document"
)

const analysisPrompt = `You are a medical assistant AI analyzing a medical report. Provide a comprehensive analysis in this EXACT format with emoji markers (no substitutions):

🔹 **Medical Summary**:
<3-4 line summary of key findings in simple, clear language that states what values are high/low/normal and concludes with positive/negative health outcome>

🔹 **Probable Medical Condition(s)**:
<Specific conditions suggested by the test results>

🔹 **Recommended Treatment Options**:
<2-3 treatments or procedures with brief explanations>

🔹 **Precautions & Lifestyle Advice**:
<2-3 practical tips tailored to the findings>

Format exactly as shown with these headings and emoji markers.`

const summaryPrompt = `You are a helpful and friendly medical AI assistant. Given a medical report, respond clearly and simply.

For each report section (like Hemoglobin, WBC, Platelets, etc.), give a 1-2 line explanation of what the value means, whether it's high, low, or normal, and what it might indicate. Use only actual numbers from the report and do not add list numbers. You may include percentages if they appear in the report.

At the end, write a short and easy-to-understand overall summary combining everything. Be conversational and human, like you're gently explaining to someone with no medical background.

Keep everything simple, clear, and non-alarming. Avoid medical jargon unless absolutely necessary. Use less than 120 words in total.`

type documentStore interface {
	Create(ctx context.Context, doc *model.UploadedDocument) error
	Get(ctx context.Context, docID string) (*model.UploadedDocument, error)
	ListBySession(ctx context.Context, sessionID string) ([]*model.UploadedDocument, error)
	ListSessionIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, docID string) error
}

type DocumentService struct {
	ingestor    *rag.Ingestor
	index       *rag.Index
	docs        documentStore
	files       filestore.Store
	sessions    session.Store
	chat        ai.IChatModel
	maxUpload   int64
	summaryTopK int
}

type DocumentServiceDeps struct {
	Ingestor    *rag.Ingestor
	Index       *rag.Index
	Docs        documentStore
	Files       filestore.Store
	Sessions    session.Store
	Chat        ai.IChatModel
	MaxUpload   int64
	SummaryTopK int
}

func NewDocumentService(deps DocumentServiceDeps) *DocumentService {
	if deps.SummaryTopK <= 0 {
		deps.SummaryTopK = 5
	}
	return &DocumentService{
		ingestor:    deps.Ingestor,
		index:       deps.Index,
		docs:        deps.Docs,
		files:       deps.Files,
		sessions:    deps.Sessions,
		chat:        deps.Chat,
		maxUpload:   deps.MaxUpload,
		summaryTopK: deps.SummaryTopK,
	}
}

type UploadResult struct {
	DocID            string `json:"doc_id"`
	Filename         string `json:"filename"`
	Chunks           int    `json:"chunks"`
	State            string `json:"state"`
	SucceededBatches []int  `json:"succeeded_batches,omitempty"`
	TotalBatches     int    `json:"total_batches,omitempty"`
	Message          string `json:"message"`
}

type SummaryResult struct {
	Summary               string `json:"summary"`
	ComprehensiveAnalysis string `json:"comprehensive_analysis,omitempty"`
}

// Upload extracts, chunks and indexes a file for the session. When indexing
// stops part way the document is still tracked in the partial state, the
// result describes the indexed batches and the returned error is the
// *rag.BatchError.
func (s *DocumentService) Upload(ctx context.Context, userID, sessionID, filename string, data []byte) (*UploadResult, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || sessionID == "" {
		return nil, appErr.ErrInvalid
	}
	if !extract.Supported(filename) {
		return nil, appErr.ErrUnsupportedFile
	}
	if s.maxUpload > 0 && int64(len(data)) > s.maxUpload {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", appErr.ErrInvalid, s.maxUpload)
	}
	chunks, err := s.chunk(filename, data)
	if err != nil {
		return nil, err
	}
	docID := chunks[0].DocID
	logger := logutil.GetLogger(ctx).With(zap.String("doc_id", docID), zap.String("session_id", sessionID))

	fileKey := ""
	if s.files != nil {
		fileKey = docID + strings.ToLower(filepath.Ext(filename))
		if err := s.files.Save(ctx, fileKey, bytes.NewReader(data), int64(len(data))); err != nil {
			return nil, fmt.Errorf("store original file: %w", err)
		}
	}

	now := timeutil.NowUnix()
	doc := &model.UploadedDocument{
		DocID:      docID,
		UserID:     userID,
		SessionID:  sessionID,
		Filename:   filename,
		FileKey:    fileKey,
		ChunkCount: len(chunks),
		State:      model.DocumentStateIndexed,
		Ctime:      now,
		Mtime:      now,
	}
	result := &UploadResult{DocID: docID, Filename: filename, Chunks: len(chunks), State: doc.State, Message: uploadedMessage}

	indexErr := s.index.Add(ctx, chunks)
	var batchErr *rag.BatchError
	switch {
	case indexErr == nil:
	case errors.As(indexErr, &batchErr) && len(batchErr.Succeeded) > 0:
		doc.State = model.DocumentStatePartial
		doc.IndexedBatches = len(batchErr.Succeeded)
		result.State = doc.State
		result.SucceededBatches = batchErr.Succeeded
		result.TotalBatches = batchErr.Total
		result.Message = partialMessage
		logger.Warn("document partially indexed", zap.Ints("succeeded", batchErr.Succeeded), zap.Error(indexErr))
	default:
		s.discard(ctx, docID, fileKey)
		return nil, fmt.Errorf("%w: %w", appErr.ErrUpstream, indexErr)
	}
	if doc.State == model.DocumentStateIndexed {
		doc.IndexedBatches = s.index.BatchCount(len(chunks))
	}

	// The session is saved before the document row exists so that
	// CleanupExpired never sees a tracked document without a live session.
	if err := s.attach(ctx, sessionID, docID); err != nil {
		s.discard(ctx, docID, fileKey)
		return nil, fmt.Errorf("attach document to session: %w", err)
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		s.detach(ctx, sessionID, docID)
		s.discard(ctx, docID, fileKey)
		return nil, fmt.Errorf("track document: %w", err)
	}
	logger.Info("document uploaded", zap.String("filename", filename), zap.Int("chunks", len(chunks)), zap.String("state", doc.State))
	if indexErr != nil {
		return result, indexErr
	}
	return result, nil
}

func (s *DocumentService) chunk(filename string, data []byte) ([]model.Chunk, error) {
	pages, err := extract.Pages(filename, data)
	if err != nil {
		if errors.Is(err, appErr.ErrUnsupportedFile) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", appErr.ErrNoContent, err)
	}
	chunks := s.ingestor.Ingest(rag.RawDocument{Filename: filename, Pages: pages})
	if len(chunks) == 0 {
		return nil, appErr.ErrNoContent
	}
	return chunks, nil
}

// IndexShared adds a file to the knowledge base answered when a session has
// no upload of its own. Its chunks are the only ones an unscoped search sees.
// Nothing is tracked per session.
func (s *DocumentService) IndexShared(ctx context.Context, filename string, data []byte) (int, error) {
	chunks, err := s.chunk(filepath.Base(filename), data)
	if err != nil {
		return 0, err
	}
	for i := range chunks {
		chunks[i].Shared = true
	}
	if err := s.index.Add(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (s *DocumentService) attach(ctx context.Context, sessionID, docID string) error {
	state, _, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	state.AddDocument(docID)
	return s.sessions.Save(ctx, sessionID, state)
}

func (s *DocumentService) detach(ctx context.Context, sessionID, docID string) {
	state, found, err := s.sessions.Load(ctx, sessionID)
	if err == nil && found && state.RemoveDocument(docID) {
		err = s.sessions.Save(ctx, sessionID, state)
	}
	if err != nil {
		logutil.GetLogger(ctx).Error("detach document from session failed",
			zap.String("doc_id", docID), zap.String("session_id", sessionID), zap.Error(err))
	}
}

// discard removes everything written for a failed upload.
func (s *DocumentService) discard(ctx context.Context, docID, fileKey string) {
	logger := logutil.GetLogger(ctx).With(zap.String("doc_id", docID))
	if err := s.index.Delete(ctx, docID); err != nil {
		logger.Error("drop chunks of failed upload failed", zap.Error(err))
	}
	if s.files != nil && fileKey != "" {
		if err := s.files.Delete(ctx, fileKey); err != nil {
			logger.Error("drop file of failed upload failed", zap.Error(err))
		}
	}
}

// Delete removes a document owned by the caller's session (or, for
// registered users, by the caller).
func (s *DocumentService) Delete(ctx context.Context, userID, sessionID, docID string) error {
	if strings.TrimSpace(docID) == "" {
		return appErr.ErrInvalid
	}
	doc, err := s.docs.Get(ctx, docID)
	if err != nil {
		return err
	}
	if !owns(doc, userID, sessionID) {
		return appErr.ErrNotFound
	}
	return s.remove(ctx, doc)
}

// CleanupSession deletes the listed documents that belong to the session.
// Unknown ids are skipped.
func (s *DocumentService) CleanupSession(ctx context.Context, userID, sessionID string, docIDs []string) (int, error) {
	removed := 0
	for _, id := range docIDs {
		if strings.TrimSpace(id) == "" {
			continue
		}
		doc, err := s.docs.Get(ctx, id)
		if errors.Is(err, appErr.ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}
		if !owns(doc, userID, sessionID) {
			continue
		}
		if err := s.remove(ctx, doc); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// CleanupExpired deletes documents whose session no longer exists in the
// session store.
func (s *DocumentService) CleanupExpired(ctx context.Context) (int, error) {
	ids, err := s.docs.ListSessionIDs(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, sid := range ids {
		alive, err := s.sessions.Exists(ctx, sid)
		if err != nil {
			return removed, err
		}
		if alive {
			continue
		}
		docs, err := s.docs.ListBySession(ctx, sid)
		if err != nil {
			return removed, err
		}
		for _, doc := range docs {
			if err := s.remove(ctx, doc); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

func owns(doc *model.UploadedDocument, userID, sessionID string) bool {
	if doc.SessionID == sessionID {
		return true
	}
	return userID != "" && userID != model.GuestUserID && doc.UserID == userID
}

// remove drops chunks first so a failure never leaves searchable chunks of
// an untracked document.
func (s *DocumentService) remove(ctx context.Context, doc *model.UploadedDocument) error {
	if err := s.index.Delete(ctx, doc.DocID); err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("doc_id", doc.DocID))
	if s.files != nil && doc.FileKey != "" {
		if err := s.files.Delete(ctx, doc.FileKey); err != nil {
			logger.Warn("delete original file failed", zap.Error(err))
		}
	}
	if err := s.docs.Delete(ctx, doc.DocID); err != nil {
		return err
	}
	state, found, err := s.sessions.Load(ctx, doc.SessionID)
	if err != nil {
		logger.Warn("load session for document removal failed", zap.Error(err))
	} else if found && state.RemoveDocument(doc.DocID) {
		if err := s.sessions.Save(ctx, doc.SessionID, state); err != nil {
			logger.Warn("save session after document removal failed", zap.Error(err))
		}
	}
	logger.Info("document deleted")
	return nil
}

// Summary analyses the leading chunks of a document owned by the caller, then
// condenses that analysis into a short plain-language summary. Documents of
// other sessions are reported as not found.
func (s *DocumentService) Summary(ctx context.Context, userID, sessionID, docID string) (*SummaryResult, error) {
	if strings.TrimSpace(docID) == "" {
		return nil, appErr.ErrInvalid
	}
	doc, err := s.docs.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !owns(doc, userID, sessionID) {
		return nil, appErr.ErrNotFound
	}
	chunks, err := s.index.Search(ctx, "", s.summaryTopK, vectorstore.Filter{DocID: docID})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrUpstream, err)
	}
	if len(chunks) == 0 {
		return &SummaryResult{Summary: NoContentSummary}, nil
	}
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	analysis, err := s.chat.Chat(ctx, ai.SystemAndUser(analysisPrompt,
		"Analyze this medical document and provide a comprehensive assessment:\n\n"+strings.Join(texts, "\n")))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrUpstream, err)
	}
	summary, err := s.chat.Chat(ctx, ai.SystemAndUser(summaryPrompt, "Give the final response in a paragraph:\n\n"+analysis))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrUpstream, err)
	}
	return &SummaryResult{Summary: strings.TrimSpace(summary), ComprehensiveAnalysis: strings.TrimSpace(analysis)}, nil
}
