package auth

import (
	"github.com/mat1312/psicologo/internal/config"
)

// NewAuthorizer creates the Authorizer the configuration asks for.
func NewAuthorizer(cfg *config.Config) Authorizer {
	if cfg.AuthMode == "gotrue" {
		return NewGoTrueAuthorizer(cfg.GoTrueURL, cfg.GoTrueAnon)
	}
	return NewMockAuthorizer()
}
