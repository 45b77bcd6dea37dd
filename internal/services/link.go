package services

import (
	"context"

	"github.com/mat1312/psicologo/internal/model"
	"github.com/mat1312/psicologo/internal/store"
)

// LinkService assigns patients to therapists.
type LinkService struct {
	store store.Store
}

func NewLinkService(s store.Store) *LinkService { return &LinkService{store: s} }

// CreateLink verifies both profiles and creates the assignment; repeating the
// same pair reports alreadyExists instead of failing.
func (s *LinkService) CreateLink(ctx context.Context, therapistID, patientID string) (*model.TherapistPatientLink, bool, error) {
	if _, err := s.store.Profiles().Get(ctx, therapistID); err != nil {
		return nil, false, err
	}
	if _, err := s.store.Profiles().Get(ctx, patientID); err != nil {
		return nil, false, err
	}
	return s.store.Links().Create(ctx, &model.TherapistPatientLink{
		TherapistID: therapistID,
		PatientID:   patientID,
	})
}

func (s *LinkService) ListLinks(ctx context.Context, therapistID string) ([]*model.TherapistPatientLink, error) {
	return s.store.Links().ListByTherapist(ctx, therapistID)
}

func (s *LinkService) ListAllLinks(ctx context.Context) ([]*model.TherapistPatientLink, error) {
	return s.store.Links().List(ctx)
}
