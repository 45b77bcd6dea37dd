package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mat1312/psicologo/internal/model"
)

// Scenario: a patient with zero sessions opens the dashboard, creates a
// session, and sees an empty message list.
func TestNewPatientFirstSession(t *testing.T) {
	b := newBackend(t, nil)
	c := b.patientClient()
	ctx := context.Background()

	sessions, err := c.ListSessions(ctx, b.patient.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	sess, err := c.CreateSession(ctx, b.patient.ID, nil)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	sessions, err = c.ListSessions(ctx, b.patient.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	cv := NewConversation(c)
	require.NoError(t, cv.Activate(ctx, sess.ID))
	assert.Empty(t, cv.Messages())
}

func TestPollIsPrefixExtension(t *testing.T) {
	b := newBackend(t, nil)
	c := b.patientClient()
	ctx := context.Background()

	sess, err := c.CreateSession(ctx, b.patient.ID, nil)
	require.NoError(t, err)

	b.appendServerMessage(t, sess.ID, "first", model.MessageRoleUser)
	b.appendServerMessage(t, sess.ID, "second", model.MessageRoleAssistant)

	cv := NewConversation(c)
	require.NoError(t, cv.Activate(ctx, sess.ID))

	prev := cv.Messages()
	require.Len(t, prev, 2)

	// Several ticks with interleaved server-side appends: the list only ever
	// grows, and the existing prefix never changes.
	for i := 0; i < 4; i++ {
		if i%2 == 0 {
			b.appendServerMessage(t, sess.ID, "more", model.MessageRoleAssistant)
		}
		require.NoError(t, cv.Poll(ctx))

		cur := cv.Messages()
		require.GreaterOrEqual(t, len(cur), len(prev))
		for j := range prev {
			assert.Equal(t, prev[j].ID, cur[j].ID)
		}
		prev = cur
	}
	assert.Len(t, prev, 4)
}

func TestPollMergesByIDNotContent(t *testing.T) {
	b := newBackend(t, nil)
	c := b.patientClient()
	ctx := context.Background()

	sess, err := c.CreateSession(ctx, b.patient.ID, nil)
	require.NoError(t, err)

	b.appendServerMessage(t, sess.ID, "same text", model.MessageRoleUser)

	cv := NewConversation(c)
	require.NoError(t, cv.Activate(ctx, sess.ID))
	require.Len(t, cv.Messages(), 1)

	// A second genuine message with identical content must still appear.
	b.appendServerMessage(t, sess.ID, "same text", model.MessageRoleUser)
	require.NoError(t, cv.Poll(ctx))
	assert.Len(t, cv.Messages(), 2)
}

func TestPollWithNoNewMessagesKeepsWatermark(t *testing.T) {
	b := newBackend(t, nil)
	c := b.patientClient()
	ctx := context.Background()

	sess, err := c.CreateSession(ctx, b.patient.ID, nil)
	require.NoError(t, err)
	m := b.appendServerMessage(t, sess.ID, "hello", model.MessageRoleUser)

	cv := NewConversation(c)
	require.NoError(t, cv.Activate(ctx, sess.ID))
	require.Equal(t, m.Seq, cv.lastSeenSeq)

	require.NoError(t, cv.Poll(ctx))
	assert.Equal(t, m.Seq, cv.lastSeenSeq)
	assert.Len(t, cv.Messages(), 1)
}

func TestActivateSwitchDiscardsStaleState(t *testing.T) {
	b := newBackend(t, nil)
	c := b.patientClient()
	ctx := context.Background()

	first, err := c.CreateSession(ctx, b.patient.ID, nil)
	require.NoError(t, err)
	second, err := c.CreateSession(ctx, b.patient.ID, nil)
	require.NoError(t, err)

	b.appendServerMessage(t, first.ID, "old session", model.MessageRoleUser)
	b.appendServerMessage(t, second.ID, "new session", model.MessageRoleUser)

	cv := NewConversation(c)
	require.NoError(t, cv.Activate(ctx, first.ID))
	require.Len(t, cv.Messages(), 1)

	require.NoError(t, cv.Activate(ctx, second.ID))
	msgs := cv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "new session", msgs[0].Content)
}
