// Package memory keeps per-user conversational history with idle expiry.
package memory

import (
	"sync"
	"time"

	"github.com/davefmurray/gmail-slack-bot/internal/domain"
	"github.com/davefmurray/gmail-slack-bot/internal/logging"
)

const (
	// DefaultMaxHistory bounds how many turns are retained per user.
	DefaultMaxHistory = 20

	// DefaultIdleTimeout is how long an untouched conversation survives.
	DefaultIdleTimeout = 30 * time.Minute
)

// conversation is the per-user state. History is ordered oldest-first.
type conversation struct {
	history      []domain.Turn
	lastActivity time.Time
}

// ConversationStore holds per-user conversation state. All methods are safe
// for concurrent use; expired entries are swept lazily on access rather than
// by a background timer.
type ConversationStore struct {
	mu          sync.Mutex
	users       map[string]*conversation
	maxHistory  int
	idleTimeout time.Duration
	now         func() time.Time
	log         *logging.Logger
}

// NewConversationStore creates a store with the given bounds. Zero values
// fall back to the defaults.
func NewConversationStore(maxHistory int, idleTimeout time.Duration, log *logging.Logger) *ConversationStore {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &ConversationStore{
		users:       make(map[string]*conversation),
		maxHistory:  maxHistory,
		idleTimeout: idleTimeout,
		now:         time.Now,
		log:         log.Component("memory"),
	}
}

// GetOrCreate ensures a conversation exists for the user and refreshes its
// activity timestamp. Expired conversations are swept first, so a user
// returning after the idle timeout starts fresh.
func (s *ConversationStore) GetOrCreate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	s.getOrCreateLocked(userID)
}

// Clear removes the user's conversation. Clearing an absent user is a no-op.
func (s *ConversationStore) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; ok {
		delete(s.users, userID)
		s.log.Debug().Str("user", userID).Msg("conversation cleared")
	}
}

// AppendTurn adds a turn to the user's history, creating the conversation if
// needed, and trims the oldest entries until the history bound holds.
func (s *ConversationStore) AppendTurn(userID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	c := s.getOrCreateLocked(userID)
	c.history = append(c.history, domain.Turn{
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	})
	if excess := len(c.history) - s.maxHistory; excess > 0 {
		c.history = append(c.history[:0:0], c.history[excess:]...)
	}
}

// History returns a copy of the user's trimmed history, oldest first, and
// refreshes its activity timestamp. A missing or expired user yields nil.
func (s *ConversationStore) History(userID string) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	c, ok := s.users[userID]
	if !ok {
		return nil
	}
	c.lastActivity = s.now()
	out := make([]domain.Turn, len(c.history))
	copy(out, c.history)
	return out
}

// Len reports the number of live conversations (post-sweep).
func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.users)
}

func (s *ConversationStore) getOrCreateLocked(userID string) *conversation {
	c, ok := s.users[userID]
	if !ok {
		c = &conversation{}
		s.users[userID] = c
		s.log.Debug().Str("user", userID).Msg("conversation created")
	}
	c.lastActivity = s.now()
	return c
}

func (s *ConversationStore) sweepLocked() {
	cutoff := s.now().Add(-s.idleTimeout)
	for id, c := range s.users {
		if c.lastActivity.Before(cutoff) {
			delete(s.users, id)
			s.log.Debug().Str("user", id).Msg("conversation expired")
		}
	}
}
