package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mat1312/psicologo/internal/model"
	"github.com/mat1312/psicologo/internal/store"
)

// ProfileService handles account profiles and role resolution.
type ProfileService struct {
	store store.Store
}

func NewProfileService(s store.Store) *ProfileService { return &ProfileService{store: s} }

func (s *ProfileService) CreateProfile(ctx context.Context, p *model.Profile, metadataRole string) (*model.Profile, error) {
	p.Email = strings.TrimSpace(p.Email)
	if p.Email == "" {
		return nil, fmt.Errorf("%w: email is required", model.ErrValidation)
	}
	if p.Role == "" {
		p.Role = model.ResolveRole("", metadataRole, p.Email)
	}
	if p.Role != model.RolePatient && p.Role != model.RoleTherapist {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrValidation, p.Role)
	}
	return s.store.Profiles().Create(ctx, p)
}

func (s *ProfileService) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	return s.store.Profiles().Get(ctx, id)
}

func (s *ProfileService) GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return s.store.Profiles().GetByEmail(ctx, email)
}

func (s *ProfileService) ListProfiles(ctx context.Context) ([]*model.Profile, error) {
	return s.store.Profiles().List(ctx)
}

// ResolveActorProfile maps an authenticated actor to a profile, creating one
// on first sight. The stored role always wins over auth metadata.
func (s *ProfileService) ResolveActorProfile(ctx context.Context, actorID, email, metadataRole string) (*model.Profile, error) {
	if p, err := s.store.Profiles().Get(ctx, actorID); err == nil {
		return p, nil
	} else if !isNotFound(err) {
		return nil, err
	}
	if p, err := s.store.Profiles().GetByEmail(ctx, email); err == nil {
		return p, nil
	} else if !isNotFound(err) {
		return nil, err
	}
	return s.store.Profiles().Create(ctx, &model.Profile{
		ID:    actorID,
		Email: email,
		Role:  model.ResolveRole("", metadataRole, email),
	})
}
