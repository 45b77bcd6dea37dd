package client

import (
	"context"
	"time"

	"github.com/mat1312/psicologo/internal/model"
)

// activeWindow mirrors the server's 30-day activity cutoff for rows the
// fallback assembles client-side.
const activeWindow = 30 * 24 * time.Hour

// FetchDashboard resolves a therapist's dashboard. The direct server
// aggregation is tried first; on error or an empty patient set, one
// privileged-aggregate fallback resolves the links and profiles and the rest
// is assembled client-side. Per-patient failures degrade to empty lists.
func (c *Client) FetchDashboard(ctx context.Context, therapistID string) (*model.Dashboard, error) {
	d, err := c.GetDashboard(ctx, therapistID)
	if err == nil && len(d.Patients) > 0 {
		return d, nil
	}

	fallback, fbErr := c.fallbackDashboard(ctx, therapistID)
	if fbErr != nil {
		// Report the direct result when the fallback cannot improve on it.
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	dashboardFallbacksTotal.Inc()
	return fallback, nil
}

// fallbackDashboard rebuilds the aggregation from the privileged overview:
// all links and profiles, filtered client-side for this therapist.
func (c *Client) fallbackDashboard(ctx context.Context, therapistID string) (*model.Dashboard, error) {
	ov, err := c.adminOverview(ctx)
	if err != nil {
		return nil, err
	}

	profilesByID := make(map[string]model.Profile, len(ov.Profiles))
	for _, p := range ov.Profiles {
		profilesByID[p.ID] = p
	}

	now := time.Now().UTC()
	d := &model.Dashboard{TherapistID: therapistID, Patients: []model.DashboardPatient{}}
	for _, link := range ov.Relations {
		if link.TherapistID != therapistID {
			continue
		}
		profile, ok := profilesByID[link.PatientID]
		if !ok {
			continue
		}

		dp := model.DashboardPatient{Profile: profile, Sessions: []model.ChatSession{}}
		if sessions, err := c.listSessionsPrivileged(ctx, link.PatientID); err == nil && sessions != nil {
			dp.Sessions = sessions
		}
		if note, err := c.getNotePrivileged(ctx, link.PatientID); err == nil {
			dp.Note = note
		}
		if len(dp.Sessions) > 0 && now.Sub(dp.Sessions[0].LastUpdated) <= activeWindow {
			dp.Active = true
		}
		d.Patients = append(d.Patients, dp)
	}

	d.Stats = computeStats(d.Patients)
	return d, nil
}

// computeStats recomputes the aggregate figures from the resolved patient set.
func computeStats(patients []model.DashboardPatient) model.DashboardStats {
	stats := model.DashboardStats{TotalPatients: len(patients)}
	if len(patients) == 0 {
		return stats
	}
	active := 0
	for _, p := range patients {
		if p.Active {
			active++
		}
		stats.TotalSessions += len(p.Sessions)
	}
	stats.ActivePatientsPercent = float64(active) / float64(len(patients)) * 100
	stats.AvgSessionsPerPatient = float64(stats.TotalSessions) / float64(len(patients))
	return stats
}
