package auth

import (
	"context"
	"errors"
)

const (
	// LocalDevPatientToken authenticates as a patient in local development
	LocalDevPatientToken = "sk_local_psicologo_patient"
	// LocalDevTherapistToken authenticates as a therapist in local development
	LocalDevTherapistToken = "sk_local_psicologo_therapist"
	// LocalDevAdminToken carries the admin key type used by the bypass routes
	LocalDevAdminToken = "sk_local_psicologo_admin"
)

// MockAuthorizer provides a simple authorizer for local development and tests.
// It recognizes the three hardcoded tokens above plus any extras registered
// with Register.
type MockAuthorizer struct {
	extra map[string]*ActorInfo
}

// NewMockAuthorizer creates a new MockAuthorizer for local development
func NewMockAuthorizer() *MockAuthorizer {
	return &MockAuthorizer{extra: make(map[string]*ActorInfo)}
}

// Register maps an additional token to an actor. Test helper.
func (m *MockAuthorizer) Register(token string, actor *ActorInfo) {
	m.extra[token] = actor
}

// Authorize validates the hardcoded development tokens
func (m *MockAuthorizer) Authorize(ctx context.Context, token string) (*ActorInfo, error) {
	switch token {
	case LocalDevPatientToken:
		return &ActorInfo{
			ActorID: "dev-patient",
			Email:   "patient@local.dev",
			KeyType: "standard",
		}, nil
	case LocalDevTherapistToken:
		return &ActorInfo{
			ActorID:      "dev-therapist",
			Email:        "therapist@local.dev",
			MetadataRole: "therapist",
			KeyType:      "standard",
		}, nil
	case LocalDevAdminToken:
		return &ActorInfo{
			ActorID: "dev-admin",
			Email:   "admin@local.dev",
			KeyType: "admin",
		}, nil
	}
	if actor, ok := m.extra[token]; ok {
		return actor, nil
	}
	return nil, errors.New("invalid token for local development")
}
