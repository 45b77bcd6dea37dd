package store

import (
	"context"

	"github.com/mat1312/psicologo/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., postgres, sqlite).
// Drivers translate driver-level "no rows" conditions to model.ErrNotFound.
type Store interface {
	Profiles() Profiles
	Sessions() Sessions
	Messages() Messages
	Moods() Moods
	Notes() Notes
	Links() Links
	MoodData() MoodData
}

type Profiles interface {
	Create(ctx context.Context, p *model.Profile) (*model.Profile, error)
	Get(ctx context.Context, id string) (*model.Profile, error)
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
	List(ctx context.Context) ([]*model.Profile, error)
	UpdateRole(ctx context.Context, id string, role model.Role) error
}

type Sessions interface {
	Create(ctx context.Context, s *model.ChatSession) (*model.ChatSession, error)
	Get(ctx context.Context, id string) (*model.ChatSession, error)
	// ListByPatient returns sessions newest-activity first.
	ListByPatient(ctx context.Context, patientID string) ([]*model.ChatSession, error)
}

type Messages interface {
	// Append assigns the message id and the next per-session seq, and bumps
	// the session's last_updated, atomically.
	Append(ctx context.Context, m *model.Message) (*model.Message, error)
	// List returns messages ordered by seq ascending, strictly after
	// req.AfterSeq when it is positive.
	List(ctx context.Context, req model.ListMessagesRequest) ([]*model.Message, error)
}

type Moods interface {
	Create(ctx context.Context, m *model.MoodLog) (*model.MoodLog, error)
	// ListByPatient returns logs newest first, capped at limit when positive.
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*model.MoodLog, error)
}

type Notes interface {
	// Upsert writes the patient's single note, replacing any existing one.
	Upsert(ctx context.Context, n *model.PatientNote) (*model.PatientNote, error)
	GetByPatient(ctx context.Context, patientID string) (*model.PatientNote, error)
}

type Links interface {
	// Create is idempotent on (therapistID, patientID); alreadyExists reports
	// whether the pair was present before the call.
	Create(ctx context.Context, l *model.TherapistPatientLink) (link *model.TherapistPatientLink, alreadyExists bool, err error)
	ListByTherapist(ctx context.Context, therapistID string) ([]*model.TherapistPatientLink, error)
	List(ctx context.Context) ([]*model.TherapistPatientLink, error)
}

type MoodData interface {
	// Put upserts the per-day aggregate for (patientID, date).
	Put(ctx context.Context, d *model.MoodDatum) error
	ListByPatient(ctx context.Context, patientID string) ([]*model.MoodDatum, error)
}
