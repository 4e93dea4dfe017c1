package agent

import "sync"

// Turn roles. Only user and assistant turns are kept; system prompts and
// tool traffic are rebuilt on every call and never stored.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one utterance in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryStore keeps per-session conversation windows in memory. Histories
// are append-only within a session and trimmed oldest-first once they pass
// the configured cap. Nothing is persisted; a restart clears every session.
type HistoryStore struct {
	mu    sync.RWMutex
	max   int
	turns map[string][]Turn
}

func NewHistoryStore(max int) *HistoryStore {
	if max < 2 {
		max = 2
	}
	return &HistoryStore{
		max:   max,
		turns: make(map[string][]Turn),
	}
}

// Window returns a copy of the session's current turns, oldest first.
func (h *HistoryStore) Window(sessionID string) []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	turns := h.turns[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Append adds turns to a session and trims the window to the cap, dropping
// the oldest turns first. If trimming would leave an assistant turn at the
// start of the window, that turn is dropped as well so the window always
// opens with a user turn.
func (h *HistoryStore) Append(sessionID string, turns ...Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	merged := append(h.turns[sessionID], turns...)
	if over := len(merged) - h.max; over > 0 {
		merged = merged[over:]
	}
	for len(merged) > 0 && merged[0].Role == RoleAssistant {
		merged = merged[1:]
	}

	kept := make([]Turn, len(merged))
	copy(kept, merged)
	h.turns[sessionID] = kept
}

// Len reports how many turns a session currently holds.
func (h *HistoryStore) Len(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns[sessionID])
}

// Clear forgets a session entirely.
func (h *HistoryStore) Clear(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.turns, sessionID)
}
