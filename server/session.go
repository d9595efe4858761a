package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smallnest/agentflow/editor"
)

// Session is one open editor. All access goes through Do, which serialises
// the editor's mutations.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	editor   *editor.Editor
	messages []string
}

// Do runs fn with exclusive access to the session's editor.
func (s *Session) Do(fn func(e *editor.Editor)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.editor)
}

func (s *Session) notify(msg string) {
	s.messages = append(s.messages, msg)
}

// drainMessages returns and clears the user-visible messages collected so far.
// The caller must hold the lock, which is the case inside Do.
func (s *Session) drainMessages() []string {
	out := s.messages
	s.messages = nil
	if out == nil {
		out = []string{}
	}
	return out
}

// SessionStore keeps sessions in memory, keyed by uuid.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Create registers a session around the editor built by newEditor. The
// notifier passed to newEditor collects messages for the session.
func (st *SessionStore) Create(newEditor func(notify editor.Notifier) *editor.Editor) *Session {
	s := &Session{ID: uuid.NewString(), CreatedAt: time.Now()}
	s.editor = newEditor(s.notify)

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get looks up a session.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes a session and reports whether it existed.
func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

// Len returns the number of open sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
