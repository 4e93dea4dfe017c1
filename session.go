package main

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionBusy reports a chat message arriving while the session is still
// answering the previous one.
var ErrSessionBusy = errors.New("session is busy with a previous message")

// ChatSession tracks one dashboard visitor's conversation state. Each
// session admits one in-flight message at a time; a second concurrent
// message is rejected immediately rather than queued.
type ChatSession struct {
	ID           string
	SelectedSite string
	LastActive   time.Time

	mu sync.Mutex
}

// Acquire claims the session for one message. It fails with ErrSessionBusy
// when a previous message is still in flight. The returned release function
// must be called once the reply is ready.
func (s *ChatSession) Acquire() (func(), error) {
	if !s.mu.TryLock() {
		return nil, ErrSessionBusy
	}
	return s.mu.Unlock, nil
}

// SessionManager hands out chat sessions keyed by ID.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*ChatSession
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*ChatSession),
	}
}

// Get returns the session with the given ID, creating it on first use. An
// empty ID mints a fresh session with a new UUID.
func (sm *SessionManager) Get(id string) *ChatSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}

	s, ok := sm.sessions[id]
	if !ok {
		s = &ChatSession{ID: id}
		sm.sessions[id] = s
	}
	s.LastActive = time.Now()

	return s
}

// Remove drops a session. Removing an unknown ID is a no-op.
func (sm *SessionManager) Remove(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, id)
}

// Count reports the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}
