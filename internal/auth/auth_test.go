package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearer(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := ExtractBearer(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "Basic abc")
	_, err = ExtractBearer(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "Bearer tok123")
	tok, err := ExtractBearer(r)
	require.NoError(t, err)
	assert.Equal(t, "tok123", tok)
}

func TestMockAuthorizer(t *testing.T) {
	m := NewMockAuthorizer()
	ctx := context.Background()

	actor, err := m.Authorize(ctx, LocalDevTherapistToken)
	require.NoError(t, err)
	assert.Equal(t, "therapist", actor.MetadataRole)
	assert.False(t, actor.IsAdmin())

	admin, err := m.Authorize(ctx, LocalDevAdminToken)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	_, err = m.Authorize(ctx, "nope")
	assert.Error(t, err)

	m.Register("custom", &ActorInfo{ActorID: "u1", Email: "u1@example.com", KeyType: "standard"})
	actor, err = m.Authorize(ctx, "custom")
	require.NoError(t, err)
	assert.Equal(t, "u1", actor.ActorID)
}

func TestGoTrueAuthorizer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"user-1","email":"therapist@example.com","user_metadata":{"role":"therapist"}}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	g := NewGoTrueAuthorizer(srv.URL, "anon")
	ctx := context.Background()

	actor, err := g.Authorize(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "user-1", actor.ActorID)
	assert.Equal(t, "therapist", actor.MetadataRole)

	_, err = g.Authorize(ctx, "bad")
	assert.Error(t, err)

	_, err = g.Authorize(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)
}
