package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mat1312/psicologo/internal/model"
	"github.com/mat1312/psicologo/internal/store"
)

// MoodService records mood logs and maintains the per-day mood aggregates
// consumed by the session summary surface.
type MoodService struct {
	store store.Store
}

func NewMoodService(s store.Store) *MoodService { return &MoodService{store: s} }

func (s *MoodService) LogMood(ctx context.Context, m *model.MoodLog) (*model.MoodLog, error) {
	if !model.ValidMoodScore(m.Score) {
		return nil, fmt.Errorf("%w: mood score %d out of range [1,5]", model.ErrValidation, m.Score)
	}
	if _, err := s.store.Profiles().Get(ctx, m.PatientID); err != nil {
		return nil, err
	}
	created, err := s.store.Moods().Create(ctx, m)
	if err != nil {
		return nil, err
	}
	if err := s.refreshDailyAggregate(ctx, created.PatientID, created.LoggedAt); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *MoodService) ListMoods(ctx context.Context, patientID string, limit int) ([]*model.MoodLog, error) {
	return s.store.Moods().ListByPatient(ctx, patientID, limit)
}

func (s *MoodService) ListMoodData(ctx context.Context, patientID string) ([]*model.MoodDatum, error) {
	return s.store.MoodData().ListByPatient(ctx, patientID)
}

// refreshDailyAggregate recomputes the day's average score from the raw logs.
func (s *MoodService) refreshDailyAggregate(ctx context.Context, patientID string, at time.Time) error {
	day := at.UTC().Truncate(24 * time.Hour)
	logs, err := s.store.Moods().ListByPatient(ctx, patientID, 0)
	if err != nil {
		return err
	}
	var sum, n int
	for _, l := range logs {
		if l.LoggedAt.UTC().Truncate(24 * time.Hour).Equal(day) {
			sum += l.Score
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return s.store.MoodData().Put(ctx, &model.MoodDatum{
		PatientID: patientID,
		Date:      day,
		Value:     float64(sum) / float64(n),
	})
}
