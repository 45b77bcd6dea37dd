package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mat1312/psicologo/internal/model"
	"github.com/mat1312/psicologo/internal/store"
)

// DashboardService builds the therapist dashboard: the linked patients with
// their sessions and note, plus caseload stats. A failing patient degrades to
// empty lists rather than aborting the whole view.
type DashboardService struct {
	store        store.Store
	log          zerolog.Logger
	activeWindow time.Duration
}

func NewDashboardService(s store.Store, log zerolog.Logger, activeWindow time.Duration) *DashboardService {
	if activeWindow <= 0 {
		activeWindow = 30 * 24 * time.Hour
	}
	return &DashboardService{store: s, log: log, activeWindow: activeWindow}
}

func (s *DashboardService) BuildDashboard(ctx context.Context, therapistID string) (*model.Dashboard, error) {
	if _, err := s.store.Profiles().Get(ctx, therapistID); err != nil {
		return nil, err
	}
	links, err := s.store.Links().ListByTherapist(ctx, therapistID)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-s.activeWindow)
	out := &model.Dashboard{TherapistID: therapistID, Patients: []model.DashboardPatient{}}
	totalSessions := 0
	active := 0

	for _, link := range links {
		profile, err := s.store.Profiles().Get(ctx, link.PatientID)
		if err != nil {
			s.log.Warn().Err(err).Str("patient_id", link.PatientID).Msg("dashboard: skipping unreadable patient profile")
			continue
		}

		row := model.DashboardPatient{Profile: *profile, Sessions: []model.ChatSession{}}

		sessions, err := s.store.Sessions().ListByPatient(ctx, link.PatientID)
		if err != nil {
			s.log.Warn().Err(err).Str("patient_id", link.PatientID).Msg("dashboard: sessions unavailable")
		}
		for _, sess := range sessions {
			row.Sessions = append(row.Sessions, *sess)
		}
		totalSessions += len(sessions)
		if len(sessions) > 0 && sessions[0].LastUpdated.After(cutoff) {
			row.Active = true
			active++
		}

		note, err := s.store.Notes().GetByPatient(ctx, link.PatientID)
		switch {
		case err == nil:
			row.Note = note
		case errors.Is(err, model.ErrNotFound):
		default:
			s.log.Warn().Err(err).Str("patient_id", link.PatientID).Msg("dashboard: note unavailable")
		}

		out.Patients = append(out.Patients, row)
	}

	n := len(out.Patients)
	out.Stats = model.DashboardStats{
		TotalPatients: n,
		TotalSessions: totalSessions,
	}
	if n > 0 {
		out.Stats.ActivePatientsPercent = float64(active) / float64(n) * 100
		out.Stats.AvgSessionsPerPatient = float64(totalSessions) / float64(n)
	}
	return out, nil
}
