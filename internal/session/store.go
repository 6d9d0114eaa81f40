// Package session manages conversation collections: per-user, per-mode lists
// of chat sessions persisted as one JSON document per user through the store
// collaborator. Corrupt or unparseable stored data degrades to an empty
// collection, never a fatal error.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"crocsthepen/internal/logging"
	"crocsthepen/internal/store"
	"crocsthepen/internal/types"
)

// ErrSessionNotFound is returned when a session id does not exist for the user.
var ErrSessionNotFound = errors.New("session not found")

// Store persists and queries chat sessions.
type Store struct {
	kv  store.KV
	mu  sync.Mutex
	now func() int64
}

// NewStore creates a session store over the given persistence collaborator.
func NewStore(kv store.KV) *Store {
	return &Store{kv: kv, now: types.NowMillis}
}

// load reads the full session list for a user. Missing or corrupt data is an
// empty list.
func (s *Store) load(userID string) []types.ChatSession {
	data, err := s.kv.Get(store.SessionsKey(userID))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.Get(logging.CategorySession).Error("Failed to read sessions for %s: %v", userID, err)
		}
		return nil
	}

	var sessions []types.ChatSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		// Recover silently: stored state is advisory, not authoritative.
		logging.Get(logging.CategorySession).Warn("Corrupt session data for %s, starting empty: %v", userID, err)
		return nil
	}
	return sessions
}

func (s *Store) save(userID string, sessions []types.ChatSession) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	if err := s.kv.Set(store.SessionsKey(userID), data); err != nil {
		return fmt.Errorf("persist sessions: %w", err)
	}
	return nil
}

// List returns the user's sessions, most recently updated first. An empty
// mode means all modes; otherwise only sessions of that mode are returned.
func (s *Store) List(userID string, mode types.ChatMode) ([]types.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load(userID)
	var out []types.ChatSession
	for _, sess := range all {
		if mode != "" && sess.Mode != mode {
			continue
		}
		out = append(out, sess)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt > out[j].UpdatedAt
	})
	return out, nil
}

// Create adds a fresh empty session for the user and persists it.
func (s *Store) Create(userID string, mode types.ChatMode) (types.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := types.ChatSession{
		ID:        uuid.NewString(),
		Title:     types.DefaultSessionTitle,
		Mode:      mode,
		UpdatedAt: s.now(),
	}

	all := s.load(userID)
	all = append([]types.ChatSession{sess}, all...)
	if err := s.save(userID, all); err != nil {
		return types.ChatSession{}, err
	}
	logging.Session("Created session %s (mode=%s) for user %s", sess.ID, mode, userID)
	return sess, nil
}

// Get returns one session by id.
func (s *Store) Get(userID, sessionID string) (types.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.load(userID) {
		if sess.ID == sessionID {
			return sess, nil
		}
	}
	return types.ChatSession{}, ErrSessionNotFound
}

// AppendMessage appends msg to the session, or updates it in place when a
// message with the same id already exists. Repeated calls with updates to the
// same trailing message never duplicate it; ordering is preserved. The
// session's updatedAt is bumped on every call.
func (s *Store) AppendMessage(userID, sessionID string, msg types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load(userID)
	for i := range all {
		if all[i].ID != sessionID {
			continue
		}

		replaced := false
		// Scan from the tail: the updated message is almost always the
		// in-flight trailing one.
		for j := len(all[i].Messages) - 1; j >= 0; j-- {
			if all[i].Messages[j].ID == msg.ID {
				all[i].Messages[j] = msg
				replaced = true
				break
			}
		}
		if !replaced {
			all[i].Messages = append(all[i].Messages, msg)
		}
		all[i].UpdatedAt = s.now()
		return s.save(userID, all)
	}
	return ErrSessionNotFound
}

// Delete removes the session. Deleting a missing session is not an error.
func (s *Store) Delete(userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load(userID)
	filtered := all[:0]
	for _, sess := range all {
		if sess.ID != sessionID {
			filtered = append(filtered, sess)
		}
	}
	if len(filtered) == len(all) {
		return nil
	}
	logging.Session("Deleted session %s for user %s", sessionID, userID)
	return s.save(userID, filtered)
}

// Active resolves the active session for a mode: the most recently updated
// existing one, or a freshly created empty one. Callers use it after startup
// and after deleting the active session, so the UI never references a session
// that does not exist.
func (s *Store) Active(userID string, mode types.ChatMode) (types.ChatSession, error) {
	sessions, err := s.List(userID, mode)
	if err != nil {
		return types.ChatSession{}, err
	}
	if len(sessions) > 0 {
		return sessions[0], nil
	}
	return s.Create(userID, mode)
}
