package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mat1312/psicologo/internal/api"
	"github.com/mat1312/psicologo/internal/auth"
	"github.com/mat1312/psicologo/internal/gateway"
	"github.com/mat1312/psicologo/internal/model"
	"github.com/mat1312/psicologo/internal/services"
	"github.com/mat1312/psicologo/internal/store"
	"github.com/mat1312/psicologo/internal/store/sqlite"
)

// backend is a full service instance over an in-memory store, used to drive
// the client end to end.
type backend struct {
	server *httptest.Server
	store  store.Store
	mock   *auth.MockAuthorizer

	patient   *model.Profile
	therapist *model.Profile
}

const (
	testPatientToken   = "tok-patient"
	testTherapistToken = "tok-therapist"
)

// newBackend starts the service. When upstream is non-nil the chat relay
// points at it; otherwise the relay targets a dead address so chat turns fail
// at transport level.
func newBackend(t *testing.T, upstream http.Handler) *backend {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)

	mock := auth.NewMockAuthorizer()
	log := zerolog.Nop()
	messages := services.NewMessageService(st)

	a := api.New(
		services.NewProfileService(st),
		services.NewSessionService(st),
		messages,
		services.NewMoodService(st),
		services.NewNoteService(st),
		services.NewLinkService(st),
		services.NewDashboardService(st, log, 30*24*time.Hour),
		mock,
		log,
	)

	upstreamURL := "http://127.0.0.1:1"
	if upstream != nil {
		upSrv := httptest.NewServer(upstream)
		t.Cleanup(upSrv.Close)
		upstreamURL = upSrv.URL
	}
	relay := gateway.New(upstreamURL, messages, log)

	srv := httptest.NewServer(api.NewRouter(a, relay))
	t.Cleanup(srv.Close)

	b := &backend{server: srv, store: st, mock: mock}

	ctx := context.Background()
	b.patient, err = st.Profiles().Create(ctx, &model.Profile{Email: "anna@example.com", Role: model.RolePatient})
	require.NoError(t, err)
	b.therapist, err = st.Profiles().Create(ctx, &model.Profile{Email: "dr.bianchi@example.com", Role: model.RoleTherapist})
	require.NoError(t, err)

	mock.Register(testPatientToken, &auth.ActorInfo{ActorID: b.patient.ID, Email: b.patient.Email, KeyType: "standard"})
	mock.Register(testTherapistToken, &auth.ActorInfo{ActorID: b.therapist.ID, Email: b.therapist.Email, MetadataRole: "therapist", KeyType: "standard"})

	return b
}

func (b *backend) patientClient(opts ...Option) *Client {
	return New(b.server.URL, testPatientToken, opts...)
}

func (b *backend) therapistClient(opts ...Option) *Client {
	return New(b.server.URL, testTherapistToken, opts...)
}

// appendServerMessage writes a message directly into the store, simulating
// another writer the sync loop has to pick up.
func (b *backend) appendServerMessage(t *testing.T, sessionID, content string, role model.MessageRole) *model.Message {
	t.Helper()
	m, err := b.store.Messages().Append(context.Background(), &model.Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	})
	require.NoError(t, err)
	return m
}
