// Package client is the Go client for the therapy service REST API. It
// carries the pieces the web frontend used to run in the browser: the
// identity session store, the message synchronization loop, the chat-turn
// state machine, and the therapist dashboard aggregation.
package client

import (
	"net/http"
	"time"
)

// Client is a thin REST client. The bearer credential is attached by a
// transport wrapper so call sites never touch headers.
type Client struct {
	baseURL string
	http    *http.Client
	token   string

	// privilegedToken, when set, is used for the bypass endpoints the
	// dashboard fallback reaches for.
	privilegedToken string
}

// New constructs a Client for the given base URL and bearer token.
func New(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		panic("baseURL cannot be empty")
	}
	if token == "" {
		panic("token cannot be empty")
	}

	c := &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			panic(err)
		}
	}
	c.wrapTransportWithToken()
	return c
}

// wrapTransportWithToken wraps the HTTP client's transport to attach the
// Authorization header to every request.
func (c *Client) wrapTransportWithToken() {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.http.Transport = &bearerTransport{base: base, token: c.token}
}

type bearerTransport struct {
	base  http.RoundTripper
	token string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone so the caller's request is not mutated
	cloned := req.Clone(req.Context())
	if cloned.Header.Get("Authorization") == "" {
		cloned.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.base.RoundTrip(cloned)
}
