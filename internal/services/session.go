package services

import (
	"context"

	"github.com/mat1312/psicologo/internal/model"
	"github.com/mat1312/psicologo/internal/store"
)

// SessionService handles chat session lifecycle for patients.
type SessionService struct {
	store store.Store
}

func NewSessionService(s store.Store) *SessionService { return &SessionService{store: s} }

func (s *SessionService) CreateSession(ctx context.Context, sess *model.ChatSession) (*model.ChatSession, error) {
	if _, err := s.store.Profiles().Get(ctx, sess.PatientID); err != nil {
		return nil, err
	}
	return s.store.Sessions().Create(ctx, sess)
}

func (s *SessionService) GetSession(ctx context.Context, id string) (*model.ChatSession, error) {
	return s.store.Sessions().Get(ctx, id)
}

// ListSessions returns the patient's sessions, most recent activity first.
func (s *SessionService) ListSessions(ctx context.Context, patientID string) ([]*model.ChatSession, error) {
	return s.store.Sessions().ListByPatient(ctx, patientID)
}
