// Package session tracks thread-scoped interactive sessions.
//
// A thread session binds one chat thread to one authorized user so that any
// message in the thread reaches the agent without a command prefix. Session
// lifetime and conversation-memory lifetime are independent stores, coupled
// in one direction only: ending a session always clears the owning user's
// conversation, but clearing a conversation never ends a session.
package session

import (
	"sync"
	"time"

	"github.com/davefmurray/gmail-slack-bot/internal/logging"
	"github.com/google/uuid"
)

// DefaultIdleTimeout is how long a session survives without activity.
const DefaultIdleTimeout = 30 * time.Minute

// MemoryClearer is the registry's hook into the conversation store.
type MemoryClearer interface {
	Clear(userID string)
}

// ThreadSession is an active thread bound to a single user.
type ThreadSession struct {
	ID           string
	UserID       string
	Channel      string
	Thread       string
	StartedAt    time.Time
	LastActivity time.Time
}

// Registry holds at most one session per (channel, thread) key. All methods
// are safe for concurrent use and sweep expired entries lazily on access.
type Registry struct {
	mu          sync.Mutex
	sessions    map[string]*ThreadSession
	memory      MemoryClearer
	idleTimeout time.Duration
	now         func() time.Time
	log         *logging.Logger
}

// NewRegistry creates a registry that clears the given memory store when a
// session ends or expires. A non-positive timeout uses the default.
func NewRegistry(memory MemoryClearer, idleTimeout time.Duration, log *logging.Logger) *Registry {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Registry{
		sessions:    make(map[string]*ThreadSession),
		memory:      memory,
		idleTimeout: idleTimeout,
		now:         time.Now,
		log:         log.Component("session"),
	}
}

func sessionKey(channel, thread string) string {
	return channel + ":" + thread
}

// IsActive reports whether a non-expired session exists for the thread.
func (r *Registry) IsActive(channel, thread string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	_, ok := r.sessions[sessionKey(channel, thread)]
	return ok
}

// Get returns the session for the thread and refreshes its activity
// timestamp, or nil if absent or expired.
func (r *Registry) Get(channel, thread string) *ThreadSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	s, ok := r.sessions[sessionKey(channel, thread)]
	if !ok {
		return nil
	}
	s.LastActivity = r.now()
	out := *s
	return &out
}

// Create starts a session for the thread. An existing session on the same
// key is silently replaced; last writer wins.
func (r *Registry) Create(userID, channel, thread string) *ThreadSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	now := r.now()
	s := &ThreadSession{
		ID:           uuid.New().String(),
		UserID:       userID,
		Channel:      channel,
		Thread:       thread,
		StartedAt:    now,
		LastActivity: now,
	}
	key := sessionKey(channel, thread)
	if old, ok := r.sessions[key]; ok {
		r.log.Warn().
			Str("channel", channel).
			Str("thread", thread).
			Str("oldUser", old.UserID).
			Msg("replacing existing session")
	}
	r.sessions[key] = s

	r.log.Info().
		Str("sessionId", s.ID).
		Str("user", userID).
		Str("channel", channel).
		Str("thread", thread).
		Msg("session started")

	out := *s
	return &out
}

// End removes the session for the thread, clearing the owning user's
// conversation, and reports whether a session existed.
func (r *Registry) End(channel, thread string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	key := sessionKey(channel, thread)
	s, ok := r.sessions[key]
	if !ok {
		return false
	}
	delete(r.sessions, key)
	r.memory.Clear(s.UserID)

	r.log.Info().
		Str("sessionId", s.ID).
		Str("user", s.UserID).
		Msg("session ended")
	return true
}

// Len reports the number of live sessions (post-sweep).
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	return len(r.sessions)
}

// sweepLocked drops expired sessions. Expiry implies memory clear, same as
// an explicit End.
func (r *Registry) sweepLocked() {
	cutoff := r.now().Add(-r.idleTimeout)
	for key, s := range r.sessions {
		if s.LastActivity.Before(cutoff) {
			delete(r.sessions, key)
			r.memory.Clear(s.UserID)
			r.log.Info().
				Str("sessionId", s.ID).
				Str("user", s.UserID).
				Msg("session expired")
		}
	}
}
