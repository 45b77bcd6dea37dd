package auth

import (
	"context"
)

// ActorInfo contains information about an authenticated actor
type ActorInfo struct {
	ActorID      string `json:"actor_id"`      // Auth-provider user id
	Email        string `json:"email"`         // Contact address
	MetadataRole string `json:"metadata_role"` // Role claim from auth metadata, may be empty
	KeyType      string `json:"key_type"`      // 'standard', 'admin'
}

// IsAdmin reports whether the actor holds a privileged key.
func (a *ActorInfo) IsAdmin() bool {
	return a != nil && a.KeyType == "admin"
}

// Authorizer validates bearer credentials in one call
type Authorizer interface {
	// Authorize validates the credential and resolves the calling actor.
	// Returns ActorInfo if authenticated, error otherwise.
	Authorize(ctx context.Context, token string) (*ActorInfo, error)
}
