package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mat1312/psicologo/internal/model"
)

// Submit runs one chat turn: optimistic user entry plus a single loading
// placeholder, one outbound request, then reconciliation. Submission is a
// guarded transition: it is rejected while a previous turn is unresolved, on
// blank input, or before a session was activated.
func (cv *Conversation) Submit(ctx context.Context, text string, mood *int) error {
	text = strings.TrimSpace(text)

	cv.mu.Lock()
	if cv.sessionID == "" {
		cv.mu.Unlock()
		return ErrNoActiveSession
	}
	if text == "" {
		cv.mu.Unlock()
		return ErrEmptyMessage
	}
	if cv.isSending {
		cv.mu.Unlock()
		return ErrTurnInFlight
	}

	sessionID := cv.sessionID
	epoch := cv.epoch
	userEntryID := "optimistic-" + uuid.NewString()
	placeholderID := "placeholder-" + uuid.NewString()
	now := time.Now().UTC()

	cv.entries = append(cv.entries,
		Entry{
			Message: model.Message{
				ID:        userEntryID,
				SessionID: sessionID,
				Role:      model.MessageRoleUser,
				Content:   text,
				CreatedAt: now,
			},
			Pending: true,
		},
		Entry{
			Message: model.Message{
				ID:        placeholderID,
				SessionID: sessionID,
				Role:      model.MessageRoleAssistant,
				CreatedAt: now,
			},
			Loading: true,
		},
	)
	cv.isSending = true
	cv.mu.Unlock()

	res, err := cv.client.Chat(ctx, sessionID, text, mood)

	cv.mu.Lock()
	defer cv.mu.Unlock()
	defer func() { cv.isSending = false }()

	if cv.epoch != epoch {
		// Session switched mid-flight; the entries were already discarded.
		staleResponsesDropped.Inc()
		return nil
	}

	if err != nil {
		cv.resolveFailureLocked(userEntryID, placeholderID, err)
		chatTurnsTotal.WithLabelValues("error").Inc()
		if cv.onError != nil {
			cv.onError(err)
		}
		return err
	}

	cv.resolveSuccessLocked(userEntryID, placeholderID, res)
	chatTurnsTotal.WithLabelValues("ok").Inc()
	return nil
}

// resolveSuccessLocked replaces the optimistic entries with the persisted
// records and advances the watermark past them so the next poll does not
// re-deliver the turn.
func (cv *Conversation) resolveSuccessLocked(userEntryID, placeholderID string, res *ChatResult) {
	for i := range cv.entries {
		switch cv.entries[i].Message.ID {
		case userEntryID:
			if res.UserMessage != nil {
				cv.entries[i] = Entry{Message: *res.UserMessage}
			} else {
				cv.entries[i].Pending = false
			}
		case placeholderID:
			if res.AssistantMessage != nil {
				cv.entries[i] = Entry{Message: *res.AssistantMessage}
			} else {
				cv.entries[i] = Entry{Message: model.Message{
					ID:        placeholderID,
					SessionID: cv.sessionID,
					Role:      model.MessageRoleAssistant,
					Content:   res.Response,
					CreatedAt: time.Now().UTC(),
				}}
			}
		}
	}
	if res.AssistantMessage != nil {
		if res.AudioURL != "" {
			cv.audioRefs[res.AssistantMessage.ID] = res.AudioURL
		}
		if res.AssistantMessage.Seq > cv.lastSeenSeq {
			cv.lastSeenSeq = res.AssistantMessage.Seq
		}
	}
}

// resolveFailureLocked keeps the user entry visible and swaps the placeholder
// for a distinctly flagged error entry. Never a stale loading entry.
func (cv *Conversation) resolveFailureLocked(userEntryID, placeholderID string, err error) {
	for i := range cv.entries {
		switch cv.entries[i].Message.ID {
		case userEntryID:
			cv.entries[i].Pending = false
		case placeholderID:
			cv.entries[i] = Entry{
				Message: model.Message{
					ID:        placeholderID,
					SessionID: cv.sessionID,
					Role:      model.MessageRoleAssistant,
					Content:   fmt.Sprintf("The assistant could not answer: %v", err),
					CreatedAt: time.Now().UTC(),
				},
				Failed: true,
			}
		}
	}
}
