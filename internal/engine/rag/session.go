package rag

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

// Message roles in a QA conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a QA conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is one QA conversation, bound to a video through Metadata.
type Session struct {
	ID         string            `json:"session_id"`
	CreatedAt  time.Time         `json:"created_at"`
	LastActive time.Time         `json:"last_active"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	History    []Message         `json:"history"`
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	ID           string            `json:"session_id"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActive   time.Time         `json:"last_active"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	MessageCount int               `json:"message_count"`
}

// SessionStore keeps QA sessions in memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Create returns the session with the given id, creating it when
// unknown. An empty id gets a fresh UUID. Creation is idempotent:
// calling Create twice with the same id yields the same session.
func (s *SessionStore) Create(id string, metadata map[string]string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	if sess, ok := s.sessions[id]; ok {
		sess.LastActive = time.Now()
		return copySession(sess)
	}

	now := time.Now()
	sess := &Session{
		ID:         id,
		CreatedAt:  now,
		LastActive: now,
		Metadata:   cloneMeta(metadata),
	}
	s.sessions[id] = sess
	return copySession(sess)
}

// Get returns a copy of the session and touches its last-active time.
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrSessionNotFound, id)
	}
	sess.LastActive = time.Now()
	return copySession(sess), nil
}

// AppendUser adds a user turn to the session history.
func (s *SessionStore) AppendUser(id, content string) error {
	return s.append(id, Message{Role: RoleUser, Content: content})
}

// AppendAssistant adds an assistant turn to the session history.
func (s *SessionStore) AppendAssistant(id, content string) error {
	return s.append(id, Message{Role: RoleAssistant, Content: content})
}

func (s *SessionStore) append(id string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", engine.ErrSessionNotFound, id)
	}
	sess.History = append(sess.History, msg)
	sess.LastActive = time.Now()
	return nil
}

// Messages returns the conversation history in order.
func (s *SessionStore) Messages(id string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrSessionNotFound, id)
	}
	out := make([]Message, len(sess.History))
	copy(out, sess.History)
	return out, nil
}

// List returns summaries of all sessions.
func (s *SessionStore) List() []SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, SessionSummary{
			ID:           sess.ID,
			CreatedAt:    sess.CreatedAt,
			LastActive:   sess.LastActive,
			Metadata:     cloneMeta(sess.Metadata),
			MessageCount: len(sess.History),
		})
	}
	return out
}

// Clear empties a session's history but keeps its identity and
// metadata, so a conversation can restart against the same video.
func (s *SessionStore) Clear(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", engine.ErrSessionNotFound, id)
	}
	sess.History = nil
	sess.LastActive = time.Now()
	return nil
}

// Delete removes a session entirely.
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", engine.ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

func copySession(sess *Session) *Session {
	out := *sess
	out.Metadata = cloneMeta(sess.Metadata)
	out.History = make([]Message, len(sess.History))
	copy(out.History, sess.History)
	return &out
}

func cloneMeta(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
