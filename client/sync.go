package client

import (
	"context"
	"sync"
	"time"

	"github.com/mat1312/psicologo/internal/model"
)

// DefaultPollInterval is the sync loop's tick period.
const DefaultPollInterval = 3 * time.Second

// Entry is one visible item in the conversation. Pending marks an optimistic
// user message not yet confirmed by the server, Loading the single assistant
// placeholder of an in-flight turn, Failed an error entry that replaced it.
type Entry struct {
	Message model.Message
	Pending bool
	Loading bool
	Failed  bool
}

// Conversation synchronizes one session's messages and runs the chat-turn
// state machine. All state is guarded by mu; the poll goroutine and Submit
// share it.
type Conversation struct {
	client *Client

	mu          sync.Mutex
	sessionID   string
	epoch       uint64
	lastSeenSeq int64
	entries     []Entry
	isSending   bool
	audioRefs   map[string]string

	interval time.Duration
	onError  func(error)
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithPollInterval overrides the 3s default tick period.
func WithPollInterval(d time.Duration) ConversationOption {
	return func(cv *Conversation) {
		if d > 0 {
			cv.interval = d
		}
	}
}

// WithErrorCallback installs the toast-style callback fired when a turn fails.
func WithErrorCallback(f func(error)) ConversationOption {
	return func(cv *Conversation) { cv.onError = f }
}

// NewConversation builds an inactive conversation. Activate selects the
// session; Start runs the poll loop.
func NewConversation(c *Client, opts ...ConversationOption) *Conversation {
	cv := &Conversation{
		client:    c,
		interval:  DefaultPollInterval,
		audioRefs: make(map[string]string),
	}
	for _, opt := range opts {
		opt(cv)
	}
	return cv
}

// Activate switches to a session: the watermark resets, the full message list
// is fetched, and the watermark advances to the last seq. Bumping the epoch
// makes any in-flight fetch for the previous session stale on arrival.
func (cv *Conversation) Activate(ctx context.Context, sessionID string) error {
	cv.mu.Lock()
	cv.sessionID = sessionID
	cv.epoch++
	epoch := cv.epoch
	cv.lastSeenSeq = 0
	cv.entries = nil
	cv.mu.Unlock()

	msgs, err := cv.client.ListMessages(ctx, sessionID, 0, 0)
	if err != nil {
		return err
	}

	cv.mu.Lock()
	defer cv.mu.Unlock()
	if cv.epoch != epoch {
		staleResponsesDropped.Inc()
		return nil
	}
	for _, m := range msgs {
		cv.entries = append(cv.entries, Entry{Message: m})
	}
	if n := len(msgs); n > 0 {
		cv.lastSeenSeq = msgs[n-1].Seq
	}
	return nil
}

// Poll runs one sync tick: fetch strictly after the watermark, merge by id,
// append in order, advance the watermark. Skipped entirely while a send is in
// flight. Zero new rows leave the watermark unchanged.
func (cv *Conversation) Poll(ctx context.Context) error {
	cv.mu.Lock()
	if cv.sessionID == "" || cv.isSending {
		cv.mu.Unlock()
		return nil
	}
	sessionID := cv.sessionID
	epoch := cv.epoch
	afterSeq := cv.lastSeenSeq
	cv.mu.Unlock()

	syncPollsTotal.Inc()
	msgs, err := cv.client.ListMessages(ctx, sessionID, afterSeq, 0)
	if err != nil {
		return err
	}

	cv.mu.Lock()
	defer cv.mu.Unlock()
	if cv.epoch != epoch {
		staleResponsesDropped.Inc()
		return nil
	}
	cv.mergeLocked(msgs)
	return nil
}

// mergeLocked applies a fetched delta. Duplicates are recognized by message
// id, never by content; existing entries are never removed or reordered.
func (cv *Conversation) mergeLocked(msgs []model.Message) {
	if len(msgs) == 0 {
		return
	}
	seen := make(map[string]bool, len(cv.entries))
	for _, e := range cv.entries {
		seen[e.Message.ID] = true
	}
	for _, m := range msgs {
		if seen[m.ID] {
			continue
		}
		cv.entries = append(cv.entries, Entry{Message: m})
		seen[m.ID] = true
		messagesMergedTotal.Inc()
	}
	if last := msgs[len(msgs)-1].Seq; last > cv.lastSeenSeq {
		cv.lastSeenSeq = last
	}
}

// Start runs the poll loop until ctx is cancelled.
func (cv *Conversation) Start(ctx context.Context) {
	ticker := time.NewTicker(cv.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = cv.Poll(ctx)
		}
	}
}

// Entries returns a copy of the visible list.
func (cv *Conversation) Entries() []Entry {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	out := make([]Entry, len(cv.entries))
	copy(out, cv.entries)
	return out
}

// Messages returns the visible messages without entry flags.
func (cv *Conversation) Messages() []model.Message {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	out := make([]model.Message, len(cv.entries))
	for i, e := range cv.entries {
		out[i] = e.Message
	}
	return out
}

// AudioRef returns the cached audio resource for a message id, if any.
func (cv *Conversation) AudioRef(messageID string) (string, bool) {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	ref, ok := cv.audioRefs[messageID]
	return ref, ok
}

// IsSending reports whether a chat turn is in flight.
func (cv *Conversation) IsSending() bool {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	return cv.isSending
}
