package session

import "strings"

const MaxHistory = 5

type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

type Context struct {
	LastQuestion string `json:"last_question"`
	LastAnswer   string `json:"last_answer"`
}

// State is the per-conversation memory carried between chat requests.
type State struct {
	History        []Exchange `json:"conversation_history"`
	CurrentContext Context    `json:"current_context"`
	UploadedDocIDs []string   `json:"uploaded_doc_ids"`
}

func New() *State {
	return &State{}
}

// Append records an exchange, evicting the oldest beyond MaxHistory.
func (s *State) Append(user, assistant string) {
	s.History = append(s.History, Exchange{User: user, Assistant: assistant})
	if n := len(s.History); n > MaxHistory {
		s.History = append([]Exchange(nil), s.History[n-MaxHistory:]...)
	}
	s.CurrentContext = Context{LastQuestion: user, LastAnswer: assistant}
}

// RenderHistory prints retained exchanges oldest first.
func (s *State) RenderHistory() string {
	lines := make([]string, 0, 2*len(s.History))
	for _, ex := range s.History {
		lines = append(lines, "User: "+ex.User, "Assistant: "+ex.Assistant)
	}
	return strings.Join(lines, "\n")
}

func (s *State) AddDocument(docID string) {
	s.UploadedDocIDs = append(s.UploadedDocIDs, docID)
}

func (s *State) RemoveDocument(docID string) bool {
	for i, id := range s.UploadedDocIDs {
		if id == docID {
			s.UploadedDocIDs = append(s.UploadedDocIDs[:i], s.UploadedDocIDs[i+1:]...)
			return true
		}
	}
	return false
}

func (s *State) HasDocument(docID string) bool {
	for _, id := range s.UploadedDocIDs {
		if id == docID {
			return true
		}
	}
	return false
}

// RecentDocument is the latest upload, which scopes retrieval.
func (s *State) RecentDocument() string {
	if len(s.UploadedDocIDs) == 0 {
		return ""
	}
	return s.UploadedDocIDs[len(s.UploadedDocIDs)-1]
}
