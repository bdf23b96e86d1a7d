package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/medassist/internal/ai"
	"github.com/xxxsen/medassist/internal/model"
	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
	"github.com/xxxsen/medassist/internal/rag"
	"github.com/xxxsen/medassist/internal/session"
	"github.com/xxxsen/medassist/internal/vectorstore"
)

// letterEmbedder maps text to a letter histogram. failAfter > 0 makes every
// call past that count fail.
type letterEmbedder struct {
	calls     int
	failAfter int
}

func (e *letterEmbedder) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	e.calls++
	if e.failAfter > 0 && e.calls > e.failAfter {
		return nil, errors.New("embedding quota exceeded")
	}
	vec := make([]float32, 27)
	vec[26] = 1
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec, nil
}

func (e *letterEmbedder) ModelName() string { return "letters" }

// scriptedChat returns replies in order and records the prompts.
type scriptedChat struct {
	replies []string
	err     error
	got     [][]ai.Message
}

func (c *scriptedChat) Chat(_ context.Context, messages []ai.Message) (string, error) {
	c.got = append(c.got, messages)
	if c.err != nil {
		return "", c.err
	}
	if len(c.replies) == 0 {
		system := messages[0].Content
		idx := strings.LastIndex(system, "Context:\n")
		if idx < 0 {
			return "ok", nil
		}
		return system[idx+len("Context:\n"):], nil
	}
	out := c.replies[0]
	c.replies = c.replies[1:]
	return out, nil
}

func (c *scriptedChat) ModelName() string { return "scripted" }

type memUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*model.User{}}
}

func (m *memUsers) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return appErr.ErrConflict
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdateHealth(_ context.Context, id string, p model.HealthProfile, mtime int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return appErr.ErrNotFound
	}
	u.Symptoms, u.Diseases, u.Mtime = p.Symptoms, p.Diseases, mtime
	return nil
}

type memDocs struct {
	docs map[string]*model.UploadedDocument
}

func newMemDocs() *memDocs {
	return &memDocs{docs: map[string]*model.UploadedDocument{}}
}

func (m *memDocs) Create(_ context.Context, doc *model.UploadedDocument) error {
	if _, ok := m.docs[doc.DocID]; ok {
		return appErr.ErrConflict
	}
	cp := *doc
	m.docs[doc.DocID] = &cp
	return nil
}

func (m *memDocs) Get(_ context.Context, id string) (*model.UploadedDocument, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *memDocs) ListBySession(_ context.Context, sid string) ([]*model.UploadedDocument, error) {
	var out []*model.UploadedDocument
	for _, d := range m.docs {
		if d.SessionID == sid {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocID < out[j].DocID })
	return out, nil
}

func (m *memDocs) ListSessionIDs(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, d := range m.docs {
		if !seen[d.SessionID] {
			seen[d.SessionID] = true
			out = append(out, d.SessionID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memDocs) Delete(_ context.Context, id string) error {
	delete(m.docs, id)
	return nil
}

type docFixture struct {
	svc      *DocumentService
	docs     *memDocs
	store    vectorstore.Store
	sessions session.Store
	embedder *letterEmbedder
	chat     *scriptedChat
}

func newDocFixture(batchSize int, ids ...string) *docFixture {
	next := 0
	idFn := func() string {
		id := ids[next%len(ids)]
		next++
		return id
	}
	emb := &letterEmbedder{}
	store := vectorstore.NewMemoryStore()
	chat := &scriptedChat{}
	f := &docFixture{
		docs:     newMemDocs(),
		store:    store,
		sessions: session.NewMemoryStore(100, time.Hour),
		embedder: emb,
		chat:     chat,
	}
	f.svc = NewDocumentService(DocumentServiceDeps{
		Ingestor: rag.NewIngestor(rag.NewRecursiveSplitter(40, 0), rag.WithIDFunc(idFn)),
		Index:    rag.NewIndex(emb, store, batchSize),
		Docs:     f.docs,
		Sessions: f.sessions,
		Chat:     chat,
	})
	return f
}
