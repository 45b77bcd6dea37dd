package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mat1312/psicologo/internal/model"
)

func countFlags(entries []Entry) (loading, pending, failed int) {
	for _, e := range entries {
		if e.Loading {
			loading++
		}
		if e.Pending {
			pending++
		}
		if e.Failed {
			failed++
		}
	}
	return
}

// Scenario: patient sends a message, sees it plus a single loading
// placeholder immediately, and the placeholder is replaced by the assistant's
// reply on success.
func TestSubmitHappyPath(t *testing.T) {
	release := make(chan struct{})
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "Capisco, raccontami di più."})
	})
	b := newBackend(t, upstream)
	c := b.patientClient()
	ctx := context.Background()

	sess, err := c.CreateSession(ctx, b.patient.ID, nil)
	require.NoError(t, err)

	cv := NewConversation(c)
	require.NoError(t, cv.Activate(ctx, sess.ID))

	done := make(chan error, 1)
	go func() { done <- cv.Submit(ctx, "Mi sento ansioso", nil) }()

	// While the turn is in flight: optimistic user entry plus exactly one
	// loading placeholder, and the sync loop is suspended.
	require.Eventually(t, func() bool {
		loading, _, _ := countFlags(cv.Entries())
		return loading == 1
	}, 2*time.Second, 5*time.Millisecond)

	entries := cv.Entries()
	loading, pending, failed := countFlags(entries)
	assert.Equal(t, 1, loading)
	assert.Equal(t, 1, pending)
	assert.Equal(t, 0, failed)
	assert.True(t, cv.IsSending())
	require.NoError(t, cv.Poll(ctx))
	assert.Len(t, cv.Entries(), 2)

	close(release)
	require.NoError(t, <-done)

	entries = cv.Entries()
	loading, pending, failed = countFlags(entries)
	assert.Zero(t, loading)
	assert.Zero(t, pending)
	assert.Zero(t, failed)
	assert.False(t, cv.IsSending())

	require.Len(t, entries, 2)
	assert.Equal(t, model.MessageRoleUser, entries[0].Message.Role)
	assert.Equal(t, "Mi sento ansioso", entries[0].Message.Content)
	assert.Equal(t, model.MessageRoleAssistant, entries[1].Message.Role)
	assert.Equal(t, "Capisco, raccontami di più.", entries[1].Message.Content)
	assert.Positive(t, entries[1].Message.Seq)

	// Polling resumes without re-delivering the persisted turn.
	require.NoError(t, cv.Poll(ctx))
	assert.Len(t, cv.Entries(), 2)
}

// Scenario: the backend chat call fails at transport level. The user message
// stays visible, the placeholder becomes a flagged error entry, and the
// error callback fires.
func TestSubmitFailureReplacesPlaceholder(t *testing.T) {
	b := newBackend(t, nil) // dead upstream
	var toasts atomic.Int32
	c := b.patientClient()
	ctx := context.Background()

	sess, err := c.CreateSession(ctx, b.patient.ID, nil)
	require.NoError(t, err)

	cv := NewConversation(c, WithErrorCallback(func(error) { toasts.Add(1) }))
	require.NoError(t, cv.Activate(ctx, sess.ID))

	err = cv.Submit(ctx, "hello?", nil)
	require.Error(t, err)

	entries := cv.Entries()
	require.Len(t, entries, 2)
	loading, pending, failed := countFlags(entries)
	assert.Zero(t, loading)
	assert.Zero(t, pending)
	assert.Equal(t, 1, failed)
	assert.Equal(t, "hello?", entries[0].Message.Content)
	assert.False(t, cv.IsSending())
	assert.Equal(t, int32(1), toasts.Load())

	// Nothing was persisted server-side.
	msgs, err := c.ListMessages(ctx, sess.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSubmitGuards(t *testing.T) {
	release := make(chan struct{})
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "ok"})
	})
	b := newBackend(t, upstream)
	c := b.patientClient()
	ctx := context.Background()

	cv := NewConversation(c)
	assert.ErrorIs(t, cv.Submit(ctx, "hi", nil), ErrNoActiveSession)

	sess, err := c.CreateSession(ctx, b.patient.ID, nil)
	require.NoError(t, err)
	require.NoError(t, cv.Activate(ctx, sess.ID))

	assert.ErrorIs(t, cv.Submit(ctx, "   ", nil), ErrEmptyMessage)

	done := make(chan error, 1)
	go func() { done <- cv.Submit(ctx, "first", nil) }()
	require.Eventually(t, cv.IsSending, 2*time.Second, 5*time.Millisecond)

	// A second send while the first is unresolved is rejected.
	assert.ErrorIs(t, cv.Submit(ctx, "second", nil), ErrTurnInFlight)

	close(release)
	require.NoError(t, <-done)
}

func TestSubmitCachesAudioRef(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"response":  "breathing exercise",
			"audio_url": "https://cdn.example.com/audio/42.mp3",
		})
	})
	b := newBackend(t, upstream)
	c := b.patientClient()
	ctx := context.Background()

	sess, err := c.CreateSession(ctx, b.patient.ID, nil)
	require.NoError(t, err)

	cv := NewConversation(c)
	require.NoError(t, cv.Activate(ctx, sess.ID))
	require.NoError(t, cv.Submit(ctx, "I need to calm down", nil))

	entries := cv.Entries()
	require.Len(t, entries, 2)
	ref, ok := cv.AudioRef(entries[1].Message.ID)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/audio/42.mp3", ref)
}
