package client

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mat1312/psicologo/internal/model"
)

// IdentityState is the session store's lifecycle flag. Before Initialize
// completes, identity is unknown rather than absent.
type IdentityState int

const (
	Uninitialized IdentityState = iota
	InitializedWithIdentity
	InitializedWithoutIdentity
)

// IdentitySnapshot is the immutable view published to readers.
type IdentitySnapshot struct {
	State   IdentityState
	ActorID string
	Profile *model.Profile
}

// CredentialSource is the auth collaborator: it reports the current bearer
// credential, or an empty string when signed out.
type CredentialSource interface {
	CurrentToken(ctx context.Context) (string, error)
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func(ctx context.Context) (string, error)

func (f CredentialFunc) CurrentToken(ctx context.Context) (string, error) { return f(ctx) }

type identityCommand struct {
	kind  string // "initialize", "auth-changed", "sign-out", "stop"
	token string
	done  chan struct{}
}

// SessionStore owns the current identity. A single goroutine applies all
// state changes; readers get immutable snapshots, and auth-change events are
// messages into the owner rather than direct mutation.
type SessionStore struct {
	client   *Client
	creds    CredentialSource
	snapshot atomic.Value // IdentitySnapshot
	commands chan identityCommand
	persist  bool

	// revalidation budget for the profile lookup
	maxRevalidate time.Duration
}

// NewSessionStore builds the store and starts the owner goroutine. When
// persist is true the last-known identity is written to the durable cache
// and restored optimistically on startup.
func NewSessionStore(c *Client, creds CredentialSource, persist bool) *SessionStore {
	s := &SessionStore{
		client:        c,
		creds:         creds,
		commands:      make(chan identityCommand, 8),
		persist:       persist,
		maxRevalidate: 5 * time.Second,
	}

	snap := IdentitySnapshot{State: Uninitialized}
	if persist {
		if cached, err := loadIdentity(); err == nil && cached != nil {
			// Optimistic restore; Initialize re-validates against the server.
			snap.ActorID = cached.ActorID
			snap.Profile = cached.Profile
		}
	}
	s.snapshot.Store(snap)

	go s.run()
	return s
}

// Snapshot returns the current immutable identity view.
func (s *SessionStore) Snapshot() IdentitySnapshot {
	return s.snapshot.Load().(IdentitySnapshot)
}

// Initialize asks the auth collaborator for the current credential and, when
// present, loads the profile. Idempotent and re-entrant; always leaves the
// store initialized. Profile lookup failure degrades to the bare credential.
func (s *SessionStore) Initialize(ctx context.Context) IdentitySnapshot {
	done := make(chan struct{})
	s.commands <- identityCommand{kind: "initialize", done: done}
	select {
	case <-done:
	case <-ctx.Done():
	}
	return s.Snapshot()
}

// AuthChanged feeds an auth-provider change event into the owner, triggering
// re-initialization with the new credential.
func (s *SessionStore) AuthChanged(token string) {
	s.commands <- identityCommand{kind: "auth-changed", token: token}
}

// SignOut clears the identity and the durable cache.
func (s *SessionStore) SignOut() {
	done := make(chan struct{})
	s.commands <- identityCommand{kind: "sign-out", done: done}
	<-done
}

// Close stops the owner goroutine.
func (s *SessionStore) Close() {
	s.commands <- identityCommand{kind: "stop"}
}

func (s *SessionStore) run() {
	for cmd := range s.commands {
		switch cmd.kind {
		case "initialize":
			s.initialize(context.Background(), "")
		case "auth-changed":
			s.initialize(context.Background(), cmd.token)
		case "sign-out":
			s.snapshot.Store(IdentitySnapshot{State: InitializedWithoutIdentity})
			if s.persist {
				_ = clearIdentity()
			}
		case "stop":
			if cmd.done != nil {
				close(cmd.done)
			}
			return
		}
		if cmd.done != nil {
			close(cmd.done)
		}
	}
}

// initialize runs on the owner goroutine only.
func (s *SessionStore) initialize(ctx context.Context, tokenOverride string) {
	token := tokenOverride
	if token == "" {
		t, err := s.creds.CurrentToken(ctx)
		if err != nil || t == "" {
			s.snapshot.Store(IdentitySnapshot{State: InitializedWithoutIdentity})
			if s.persist {
				_ = clearIdentity()
			}
			return
		}
		token = t
	}

	profile, err := s.fetchProfile(ctx)
	snap := IdentitySnapshot{State: InitializedWithIdentity}
	if err == nil && profile != nil {
		snap.ActorID = profile.ID
		snap.Profile = profile
	}
	// On profile failure the bare credential still counts as an identity.
	s.snapshot.Store(snap)

	if s.persist && snap.Profile != nil {
		_ = saveIdentity(&cachedIdentity{ActorID: snap.ActorID, Profile: snap.Profile})
	}
}

// fetchProfile re-validates the optimistically restored identity against the
// server, retrying transient failures with exponential backoff.
func (s *SessionStore) fetchProfile(ctx context.Context) (*model.Profile, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = s.maxRevalidate

	var profile *model.Profile
	err := backoff.Retry(func() error {
		p, err := s.client.GetMe(ctx)
		if err != nil {
			return err
		}
		profile = p
		return nil
	}, backoff.WithContext(bo, ctx))
	return profile, err
}
