package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestSession(userID uuid.UUID) *Session {
	return NewSession(nil, userID, nil, NewSessionRegistry(testLogger()), SessionConfig{}, testLogger())
}

func TestSessionRegistry_AddRemoveCount(t *testing.T) {
	registry := NewSessionRegistry(testLogger())
	user1 := uuid.New()
	user2 := uuid.New()

	s1 := newTestSession(user1)
	s2 := newTestSession(user1)
	s3 := newTestSession(user2)
	registry.Add(s1)
	registry.Add(s2)
	registry.Add(s3)

	assert.Equal(t, 3, registry.Count())
	assert.Equal(t, 2, registry.CountForUser(user1))
	assert.Equal(t, 1, registry.CountForUser(user2))

	registry.Remove(s1)
	assert.Equal(t, 2, registry.Count())
	assert.Equal(t, 1, registry.CountForUser(user1))

	registry.Remove(s2)
	registry.Remove(s3)
	assert.Zero(t, registry.Count())
	assert.Zero(t, registry.CountForUser(user1))
}

func TestSessionRegistry_RemoveUnknownIsNoop(t *testing.T) {
	registry := NewSessionRegistry(testLogger())
	registry.Remove(newTestSession(uuid.New()))
	assert.Zero(t, registry.Count())
}

func TestSession_EnqueueDropsOldestWhenFull(t *testing.T) {
	s := newTestSession(uuid.New())

	for i := 0; i < sessionSendBuffer+3; i++ {
		s.enqueue([]byte(fmt.Sprintf("msg-%d", i)))
	}

	// The first three messages were evicted; the buffer starts at msg-3.
	assert.Equal(t, "msg-3", string(<-s.send))
	assert.Equal(t, "msg-4", string(<-s.send))
	assert.Len(t, s.send, sessionSendBuffer-2)

	s.droppedMu.Lock()
	defer s.droppedMu.Unlock()
	assert.Equal(t, 3, s.dropped)
}

func TestSession_ConfigDefaults(t *testing.T) {
	s := newTestSession(uuid.New())
	assert.Equal(t, 15*time.Second, s.config.PingInterval)
	assert.Equal(t, 10*time.Second, s.config.WriteDeadline)
	assert.Equal(t, sessionSendBuffer, cap(s.send))
}
