package client

// Functional options applied during construction in New. Options run before
// the bearer transport wrapper is installed.

import (
	"fmt"
	"net/http"
	"time"
)

// Option configures a Client during construction.
type Option func(*Client) error

// WithHTTPTimeout sets the underlying http.Client timeout. Coarse safety net;
// prefer per-request context deadlines.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithHTTPClient replaces the underlying http.Client. The bearer wrapper is
// still installed on top of its transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		c.http = hc
		return nil
	}
}

// WithPrivilegedToken supplies the elevated credential used for the bypass
// endpoints when the dashboard fallback is exercised.
func WithPrivilegedToken(token string) Option {
	return func(c *Client) error {
		c.privilegedToken = token
		return nil
	}
}
