package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mat1312/psicologo/internal/auth"
	"github.com/mat1312/psicologo/internal/model"
)

func TestFetchDashboardDirectPath(t *testing.T) {
	b := newBackend(t, nil)
	ctx := context.Background()

	_, _, err := b.store.Links().Create(ctx, &model.TherapistPatientLink{TherapistID: b.therapist.ID, PatientID: b.patient.ID})
	require.NoError(t, err)
	_, err = b.store.Sessions().Create(ctx, &model.ChatSession{PatientID: b.patient.ID})
	require.NoError(t, err)

	c := b.therapistClient()
	d, err := c.FetchDashboard(ctx, b.therapist.ID)
	require.NoError(t, err)
	require.Len(t, d.Patients, 1)
	assert.Equal(t, b.patient.ID, d.Patients[0].Profile.ID)
	assert.True(t, d.Patients[0].Active)
	assert.Equal(t, 1, d.Stats.TotalPatients)
}

// Scenario: the caller's own credential cannot read the therapist's link rows
// (the direct query yields nothing), but the privileged aggregate shows two
// links. The fallback resolves exactly two patients with their sessions.
func TestFetchDashboardPrivilegedFallback(t *testing.T) {
	b := newBackend(t, nil)
	ctx := context.Background()

	second, err := b.store.Profiles().Create(ctx, &model.Profile{Email: "marco@example.com", Role: model.RolePatient})
	require.NoError(t, err)

	_, _, err = b.store.Links().Create(ctx, &model.TherapistPatientLink{TherapistID: b.therapist.ID, PatientID: b.patient.ID})
	require.NoError(t, err)
	_, _, err = b.store.Links().Create(ctx, &model.TherapistPatientLink{TherapistID: b.therapist.ID, PatientID: second.ID})
	require.NoError(t, err)

	annaSession, err := b.store.Sessions().Create(ctx, &model.ChatSession{PatientID: b.patient.ID})
	require.NoError(t, err)

	// The caller's identity does not match the therapist row, so the direct
	// dashboard query is refused for this credential.
	b.mock.Register("tok-web", &auth.ActorInfo{ActorID: "web-actor", Email: "web@example.com", KeyType: "standard"})

	c := New(b.server.URL, "tok-web", WithPrivilegedToken(auth.LocalDevAdminToken))
	d, err := c.FetchDashboard(ctx, b.therapist.ID)
	require.NoError(t, err)

	require.Len(t, d.Patients, 2)
	byID := map[string]model.DashboardPatient{}
	for _, p := range d.Patients {
		byID[p.Profile.ID] = p
	}
	anna, ok := byID[b.patient.ID]
	require.True(t, ok)
	require.Len(t, anna.Sessions, 1)
	assert.Equal(t, annaSession.ID, anna.Sessions[0].ID)
	assert.True(t, anna.Active)

	marco, ok := byID[second.ID]
	require.True(t, ok)
	assert.Empty(t, marco.Sessions)
	assert.False(t, marco.Active)

	assert.Equal(t, 2, d.Stats.TotalPatients)
	assert.Equal(t, 1, d.Stats.TotalSessions)
	assert.InDelta(t, 50.0, d.Stats.ActivePatientsPercent, 0.001)
	assert.InDelta(t, 0.5, d.Stats.AvgSessionsPerPatient, 0.001)
}

func TestFetchDashboardFallbackUnavailable(t *testing.T) {
	b := newBackend(t, nil)
	ctx := context.Background()

	b.mock.Register("tok-web", &auth.ActorInfo{ActorID: "web-actor", Email: "web@example.com", KeyType: "standard"})

	// No privileged token configured: the direct error is reported.
	c := New(b.server.URL, "tok-web")
	_, err := c.FetchDashboard(ctx, b.therapist.ID)
	require.Error(t, err)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := computeStats(nil)
	assert.Zero(t, stats.TotalPatients)
	assert.Zero(t, stats.ActivePatientsPercent)
	assert.Zero(t, stats.AvgSessionsPerPatient)
}
