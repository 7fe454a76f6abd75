package session

import (
	"testing"
	"time"

	"github.com/davefmurray/gmail-slack-bot/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingClearer records which users had their memory cleared.
type recordingClearer struct {
	cleared []string
}

func (c *recordingClearer) Clear(userID string) {
	c.cleared = append(c.cleared, userID)
}

func newTestRegistry(clearer MemoryClearer, now *time.Time) *Registry {
	r := NewRegistry(clearer, 0, logging.New(nil, "silent"))
	r.now = func() time.Time { return *now }
	return r
}

func TestCreateAndGet(t *testing.T) {
	now := time.Now()
	r := newTestRegistry(&recordingClearer{}, &now)

	s := r.Create("U1", "C1", "T1")
	require.NotNil(t, s)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "U1", s.UserID)

	assert.True(t, r.IsActive("C1", "T1"))
	assert.False(t, r.IsActive("C1", "other"))

	got := r.Get("C1", "T1")
	require.NotNil(t, got)
	assert.Equal(t, s.ID, got.ID)

	assert.Nil(t, r.Get("C1", "other"))
}

func TestCreateReplacesExisting(t *testing.T) {
	now := time.Now()
	r := newTestRegistry(&recordingClearer{}, &now)

	s1 := r.Create("U1", "C1", "T1")
	s2 := r.Create("U2", "C1", "T1")
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.Equal(t, 1, r.Len())

	// Last writer wins.
	got := r.Get("C1", "T1")
	require.NotNil(t, got)
	assert.Equal(t, "U2", got.UserID)
}

func TestEndClearsMemory(t *testing.T) {
	now := time.Now()
	clearer := &recordingClearer{}
	r := newTestRegistry(clearer, &now)

	r.Create("U1", "C1", "T1")
	assert.True(t, r.End("C1", "T1"))
	assert.Equal(t, []string{"U1"}, clearer.cleared)
	assert.False(t, r.IsActive("C1", "T1"))

	// Ending an absent session reports false and clears nothing.
	assert.False(t, r.End("C1", "T1"))
	assert.Len(t, clearer.cleared, 1)
}

func TestIdleExpiryClearsMemory(t *testing.T) {
	now := time.Now()
	clearer := &recordingClearer{}
	r := newTestRegistry(clearer, &now)

	r.Create("U1", "C1", "T1")

	// Just inside the timeout the session survives; Get refreshes it.
	now = now.Add(DefaultIdleTimeout - time.Millisecond)
	require.NotNil(t, r.Get("C1", "T1"))

	// Past the timeout it is gone and memory was cleared with it.
	now = now.Add(DefaultIdleTimeout + time.Millisecond)
	assert.False(t, r.IsActive("C1", "T1"))
	assert.Equal(t, []string{"U1"}, clearer.cleared)
}

func TestExpirySweepIsPerSession(t *testing.T) {
	now := time.Now()
	clearer := &recordingClearer{}
	r := newTestRegistry(clearer, &now)

	r.Create("U1", "C1", "idle")
	now = now.Add(DefaultIdleTimeout / 2)
	r.Create("U2", "C1", "active")
	now = now.Add(DefaultIdleTimeout/2 + time.Second)

	assert.False(t, r.IsActive("C1", "idle"))
	assert.True(t, r.IsActive("C1", "active"))
	assert.Equal(t, []string{"U1"}, clearer.cleared)
}
