package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// GoTrueAuthorizer validates bearer tokens against a hosted GoTrue-compatible
// auth endpoint by fetching the user the token belongs to.
type GoTrueAuthorizer struct {
	client  *resty.Client
	anonKey string
}

type gotrueUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		Role string `json:"role"`
	} `json:"user_metadata"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
}

// NewGoTrueAuthorizer creates an authorizer against the given auth base URL.
func NewGoTrueAuthorizer(baseURL, anonKey string) *GoTrueAuthorizer {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)
	return &GoTrueAuthorizer{client: client, anonKey: anonKey}
}

// Authorize fetches the token's user record; any non-200 means the
// credential is invalid.
func (g *GoTrueAuthorizer) Authorize(ctx context.Context, token string) (*ActorInfo, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	var user gotrueUser
	req := g.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetResult(&user)
	if g.anonKey != "" {
		req.SetHeader("apikey", g.anonKey)
	}

	resp, err := req.Get("/auth/v1/user")
	if err != nil {
		return nil, errors.Wrap(err, "auth provider unreachable")
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: auth provider returned %d", ErrInvalidToken, resp.StatusCode())
	}
	if user.ID == "" {
		return nil, ErrInvalidToken
	}

	metaRole := user.UserMetadata.Role
	if metaRole == "" {
		metaRole = user.AppMetadata.Role
	}
	return &ActorInfo{
		ActorID:      user.ID,
		Email:        user.Email,
		MetadataRole: metaRole,
		KeyType:      "standard",
	}, nil
}
