package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mat1312/psicologo/internal/model"
	"github.com/mat1312/psicologo/internal/store"
)

// NoteService manages the single clinical note per patient.
type NoteService struct {
	store store.Store
}

func NewNoteService(s store.Store) *NoteService { return &NoteService{store: s} }

// SaveNote upserts the patient's note. The patient must exist.
func (s *NoteService) SaveNote(ctx context.Context, n *model.PatientNote) (*model.PatientNote, error) {
	if strings.TrimSpace(n.Content) == "" {
		return nil, fmt.Errorf("%w: note content is empty", model.ErrValidation)
	}
	if _, err := s.store.Profiles().Get(ctx, n.PatientID); err != nil {
		return nil, err
	}
	return s.store.Notes().Upsert(ctx, n)
}

func (s *NoteService) GetNote(ctx context.Context, patientID string) (*model.PatientNote, error) {
	return s.store.Notes().GetByPatient(ctx, patientID)
}
