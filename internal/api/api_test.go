package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mat1312/psicologo/internal/auth"
	"github.com/mat1312/psicologo/internal/model"
	"github.com/mat1312/psicologo/internal/services"
	"github.com/mat1312/psicologo/internal/store"
	"github.com/mat1312/psicologo/internal/store/sqlite"
)

type testEnv struct {
	server *httptest.Server
	store  store.Store
	mock   *auth.MockAuthorizer

	patientToken   string
	therapistToken string
	patientID      string
	therapistID    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)

	mock := auth.NewMockAuthorizer()
	log := zerolog.Nop()
	a := New(
		services.NewProfileService(st),
		services.NewSessionService(st),
		services.NewMessageService(st),
		services.NewMoodService(st),
		services.NewNoteService(st),
		services.NewLinkService(st),
		services.NewDashboardService(st, log, 30*24*time.Hour),
		mock,
		log,
	)
	srv := httptest.NewServer(NewRouter(a, nil))
	t.Cleanup(srv.Close)

	env := &testEnv{server: srv, store: st, mock: mock}

	ctx := context.Background()
	patient, err := st.Profiles().Create(ctx, &model.Profile{Email: "anna@example.com", Role: model.RolePatient})
	require.NoError(t, err)
	therapist, err := st.Profiles().Create(ctx, &model.Profile{Email: "dr.rossi@example.com", Role: model.RoleTherapist})
	require.NoError(t, err)

	env.patientID = patient.ID
	env.therapistID = therapist.ID
	env.patientToken = "tok-patient"
	env.therapistToken = "tok-therapist"
	mock.Register(env.patientToken, &auth.ActorInfo{ActorID: patient.ID, Email: patient.Email, KeyType: "standard"})
	mock.Register(env.therapistToken, &auth.ActorInfo{ActorID: therapist.ID, Email: therapist.Email, MetadataRole: "therapist", KeyType: "standard"})

	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.server.URL+path, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMissingBearerRejected(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/profiles/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUnknownTokenRejected(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/profiles/me", "no-such-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetMeCreatesProfileOnFirstSight(t *testing.T) {
	env := newTestEnv(t)
	env.mock.Register("tok-fresh", &auth.ActorInfo{
		ActorID: "fresh-actor", Email: "fresh.therapist@example.com", MetadataRole: "therapist", KeyType: "standard",
	})

	resp := env.do(t, http.MethodGet, "/api/profiles/me", "tok-fresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p model.Profile
	decode(t, resp, &p)
	assert.Equal(t, "fresh-actor", p.ID)
	assert.Equal(t, model.RoleTherapist, p.Role)

	// Second call resolves the same stored profile.
	resp = env.do(t, http.MethodGet, "/api/profiles/me", "tok-fresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var again model.Profile
	decode(t, resp, &again)
	assert.Equal(t, p.ID, again.ID)
}

func TestListProfilesIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/profiles", env.therapistToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/profiles", auth.LocalDevAdminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPatientCannotReachAnotherPatient(t *testing.T) {
	env := newTestEnv(t)

	other, err := env.store.Profiles().Create(context.Background(), &model.Profile{Email: "other@example.com", Role: model.RolePatient})
	require.NoError(t, err)

	resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/patients/%s/sessions", other.ID), env.patientToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUnlinkedTherapistForbiddenThenLinkedAllowed(t *testing.T) {
	env := newTestEnv(t)

	path := fmt.Sprintf("/api/patients/%s/moods", env.patientID)
	resp := env.do(t, http.MethodGet, path, env.therapistToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/therapists/%s/links", env.therapistID), env.therapistToken,
		map[string]string{"patientId": env.patientID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, path, env.therapistToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLinkCreationIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	path := fmt.Sprintf("/api/therapists/%s/links", env.therapistID)
	body := map[string]string{"patientId": env.patientID}

	resp := env.do(t, http.MethodPost, path, env.therapistToken, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var first struct {
		Link          *model.TherapistPatientLink `json:"link"`
		AlreadyExists bool                        `json:"alreadyExists"`
	}
	decode(t, resp, &first)
	assert.False(t, first.AlreadyExists)

	resp = env.do(t, http.MethodPost, path, env.therapistToken, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second struct {
		Link          *model.TherapistPatientLink `json:"link"`
		AlreadyExists bool                        `json:"alreadyExists"`
	}
	decode(t, resp, &second)
	assert.True(t, second.AlreadyExists)
	assert.Equal(t, first.Link.ID, second.Link.ID)
}

func TestTherapistCannotManageAnotherTherapistLinks(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/therapists/someone-else/links", env.therapistToken,
		map[string]string{"patientId": env.patientID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSessionAndMessageFlow(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/patients/%s/sessions", env.patientID), env.patientToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sess model.ChatSession
	decode(t, resp, &sess)
	require.NotEmpty(t, sess.ID)

	msgPath := fmt.Sprintf("/api/sessions/%s/messages", sess.ID)
	resp = env.do(t, http.MethodPost, msgPath, env.patientToken, map[string]string{"role": "user", "content": "hello"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var m1 model.Message
	decode(t, resp, &m1)
	assert.Equal(t, int64(1), m1.Seq)

	resp = env.do(t, http.MethodPost, msgPath, env.patientToken, map[string]string{"role": "assistant", "content": "hi there"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var m2 model.Message
	decode(t, resp, &m2)
	assert.Equal(t, int64(2), m2.Seq)

	resp = env.do(t, http.MethodGet, msgPath, env.patientToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []*model.Message
	decode(t, resp, &all)
	require.Len(t, all, 2)
	assert.Equal(t, "hello", all[0].Content)

	resp = env.do(t, http.MethodGet, msgPath+"?afterSeq=1", env.patientToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tail []*model.Message
	decode(t, resp, &tail)
	require.Len(t, tail, 1)
	assert.Equal(t, int64(2), tail[0].Seq)

	// Past the tail is an empty list, not an error.
	resp = env.do(t, http.MethodGet, msgPath+"?afterSeq=99", env.patientToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var none []*model.Message
	decode(t, resp, &none)
	assert.Empty(t, none)
}

func TestListMessagesOnMissingSession(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/sessions/nope/messages", env.patientToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListMessagesRejectsBadQueryParams(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/patients/%s/sessions", env.patientID), env.patientToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sess model.ChatSession
	decode(t, resp, &sess)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/sessions/%s/messages?afterSeq=abc", sess.ID), env.patientToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/sessions/%s/messages?limit=-1", sess.ID), env.patientToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMoodLogging(t *testing.T) {
	env := newTestEnv(t)
	path := fmt.Sprintf("/api/patients/%s/moods", env.patientID)

	resp := env.do(t, http.MethodPost, path, env.patientToken, map[string]int{"moodScore": 6})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, path, env.patientToken, map[string]int{"moodScore": 4})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var ml model.MoodLog
	decode(t, resp, &ml)
	assert.Equal(t, 4, ml.Score)

	resp = env.do(t, http.MethodPost, path, env.patientToken, map[string]int{"moodScore": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, path, env.patientToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var logs []*model.MoodLog
	decode(t, resp, &logs)
	assert.Len(t, logs, 2)

	// The daily aggregate reflects both entries.
	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/patients/%s/mood-data", env.patientID), env.patientToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var data []*model.MoodDatum
	decode(t, resp, &data)
	require.Len(t, data, 1)
	assert.InDelta(t, 3.0, data[0].Value, 0.001)
}

func TestNoteRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.store.Links().Create(context.Background(), &model.TherapistPatientLink{TherapistID: env.therapistID, PatientID: env.patientID})
	require.NoError(t, err)

	path := fmt.Sprintf("/api/patients/%s/note", env.patientID)

	// Absent note is a normal state.
	resp := env.do(t, http.MethodGet, path, env.therapistToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var empty struct {
		Note *model.PatientNote `json:"note"`
	}
	decode(t, resp, &empty)
	assert.Nil(t, empty.Note)

	resp = env.do(t, http.MethodPut, path, env.therapistToken, map[string]string{"content": "making progress"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var saved model.PatientNote
	decode(t, resp, &saved)
	require.NotNil(t, saved.TherapistID)
	assert.Equal(t, env.therapistID, *saved.TherapistID)

	resp = env.do(t, http.MethodPut, path, env.therapistToken, map[string]string{"content": "revised"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var revised model.PatientNote
	decode(t, resp, &revised)
	assert.Equal(t, saved.ID, revised.ID)
	assert.Equal(t, "revised", revised.Content)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, _, err := env.store.Links().Create(ctx, &model.TherapistPatientLink{TherapistID: env.therapistID, PatientID: env.patientID})
	require.NoError(t, err)
	_, err = env.store.Sessions().Create(ctx, &model.ChatSession{PatientID: env.patientID})
	require.NoError(t, err)

	resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/therapists/%s/dashboard", env.therapistID), env.therapistToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var d model.Dashboard
	decode(t, resp, &d)
	require.Len(t, d.Patients, 1)
	assert.Equal(t, env.patientID, d.Patients[0].Profile.ID)
	assert.Equal(t, 1, d.Stats.TotalPatients)
	assert.Equal(t, 1, d.Stats.TotalSessions)

	// A therapist cannot read a colleague's dashboard.
	resp = env.do(t, http.MethodGet, "/api/therapists/other/dashboard", env.therapistToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminBypassSurface(t *testing.T) {
	env := newTestEnv(t)

	// Standard credentials are refused.
	resp := env.do(t, http.MethodGet, "/api/admin/overview", env.therapistToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/admin/links", auth.LocalDevAdminToken, map[string]string{
		"therapistId": env.therapistID,
		"patientId":   env.patientID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var linkOut struct {
		Success       bool                          `json:"success"`
		AlreadyExists bool                          `json:"alreadyExists"`
		AllRelations  []*model.TherapistPatientLink `json:"allRelations"`
	}
	decode(t, resp, &linkOut)
	assert.True(t, linkOut.Success)
	assert.False(t, linkOut.AlreadyExists)
	assert.Len(t, linkOut.AllRelations, 1)

	resp = env.do(t, http.MethodGet, "/api/admin/overview", auth.LocalDevAdminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var overview struct {
		Success   bool                          `json:"success"`
		Relations []*model.TherapistPatientLink `json:"relations"`
		Profiles  []*model.Profile              `json:"profiles"`
	}
	decode(t, resp, &overview)
	assert.True(t, overview.Success)
	assert.Len(t, overview.Relations, 1)
	assert.Len(t, overview.Profiles, 2)

	resp = env.do(t, http.MethodGet, "/api/admin/notes?patientId="+env.patientID, auth.LocalDevAdminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var noteOut struct {
		Success bool               `json:"success"`
		Note    *model.PatientNote `json:"note"`
	}
	decode(t, resp, &noteOut)
	assert.True(t, noteOut.Success)
	assert.Nil(t, noteOut.Note)

	resp = env.do(t, http.MethodPost, "/api/admin/notes", auth.LocalDevAdminToken, map[string]string{
		"patientId": env.patientID,
		"content":   "seen during triage",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/admin/notes?patientId="+env.patientID, auth.LocalDevAdminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &noteOut)
	require.NotNil(t, noteOut.Note)
	assert.Equal(t, "seen during triage", noteOut.Note.Content)
}

func TestAdminSaveNoteMissingPatient(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/admin/notes", auth.LocalDevAdminToken, map[string]string{
		"patientId": "ghost",
		"content":   "x",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateProfileValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/profiles", env.patientToken, map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/profiles", env.patientToken, map[string]string{
		"email": "new.user@example.com",
		"role":  "patient",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p model.Profile
	decode(t, resp, &p)
	assert.Equal(t, model.RolePatient, p.Role)
	assert.NotEmpty(t, p.ID)
}
