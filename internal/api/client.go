// Package api implements the transport client for the shortening
// service. A single configured client attaches the bearer credential to
// every outgoing request, and an authorization rejection from the
// service tears down the local session before the failure is handed
// back to the caller. The client never retries and never reclassifies
// other failures.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/sundayezeilo/shortener-cli/internal/errx"
)

const (
	// RequestIDHeader is stamped on every outgoing request so service
	// logs can be correlated with client operations.
	RequestIDHeader = "X-Request-ID"
)

// CredentialSource supplies the current bearer credential, if any. The
// credential is read fresh on every request, never cached per call.
type CredentialSource interface {
	Credential() (string, bool)
}

// Client is the configured HTTP client for the shortening service.
type Client struct {
	http           *resty.Client
	logger         *slog.Logger
	creds          CredentialSource
	onUnauthorized func()
}

// Options holds configuration for the client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewClient creates a client for the service at opts.BaseURL. Bind a
// credential source and an unauthorized hook before issuing
// authenticated calls; both are optional for anonymous use.
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{logger: logger}

	hc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Content-Type", "application/json")
	if opts.Timeout > 0 {
		hc.SetTimeout(opts.Timeout)
	}

	hc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.SetHeader(RequestIDHeader, uuid.NewString())
		if c.creds != nil {
			if token, ok := c.creds.Credential(); ok {
				r.SetHeader("Authorization", "Bearer "+token)
			}
		}
		return nil
	})

	hc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		if resp.StatusCode() == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.logger.Warn("credential rejected, invalidating session",
				"method", resp.Request.Method,
				"url", resp.Request.URL,
			)
			c.onUnauthorized()
		}
		return nil
	})

	c.http = hc
	return c
}

// SetCredentialSource binds the source of the bearer credential.
func (c *Client) SetCredentialSource(src CredentialSource) {
	c.creds = src
}

// OnUnauthorized binds the hook fired when the service rejects the
// credential. The hook runs before the failing call returns, and the
// original failure still propagates to the caller afterwards.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// Register creates a new account and returns the account record with a
// fresh credential.
func (c *Client) Register(ctx context.Context, name, email, password string) (AuthResult, error) {
	const op = "api.Register"

	var env envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(registerRequest{Name: name, Email: email, Password: password}).
		SetResult(&env).
		SetError(&env).
		Post("/auth/register")
	if err != nil {
		return AuthResult{}, errx.E(op, errx.Service, err)
	}
	if resp.IsError() {
		return AuthResult{}, serviceError(op, resp, &env)
	}
	return decodeData[AuthResult](op, env)
}

// Login verifies credentials and returns the account record with a
// fresh credential.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	const op = "api.Login"

	var env envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{Email: email, Password: password}).
		SetResult(&env).
		SetError(&env).
		Post("/auth/login")
	if err != nil {
		return AuthResult{}, errx.E(op, errx.Service, err)
	}
	if resp.IsError() {
		return AuthResult{}, serviceError(op, resp, &env)
	}
	return decodeData[AuthResult](op, env)
}

// ListLinks fetches the caller's full link collection along with the
// server-reported total count and quota ceiling.
func (c *Client) ListLinks(ctx context.Context) (LinkPage, error) {
	const op = "api.ListLinks"

	var env envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&env).
		Get("/urls")
	if err != nil {
		return LinkPage{}, errx.E(op, errx.Service, err)
	}
	if resp.IsError() {
		return LinkPage{}, serviceError(op, resp, &env)
	}
	return decodeData[LinkPage](op, env)
}

// CreateLink asks the service to shorten originalURL and returns the
// created record.
func (c *Client) CreateLink(ctx context.Context, originalURL string) (Link, error) {
	const op = "api.CreateLink"

	var env envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(createLinkRequest{OriginalURL: originalURL}).
		SetResult(&env).
		SetError(&env).
		Post("/urls")
	if err != nil {
		return Link{}, errx.E(op, errx.Service, err)
	}
	if resp.IsError() {
		return Link{}, serviceError(op, resp, &env)
	}
	return decodeData[Link](op, env)
}

// DeleteLink removes the link with the given id.
func (c *Client) DeleteLink(ctx context.Context, id string) error {
	const op = "api.DeleteLink"

	var env envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&env).
		SetError(&env).
		Delete("/urls/{id}")
	if err != nil {
		return errx.E(op, errx.Service, err)
	}
	if resp.IsError() {
		return serviceError(op, resp, &env)
	}
	return nil
}

// serviceError turns an error response into an errx error carrying the
// service-provided message, or a generic fallback when there is none.
func serviceError(op string, resp *resty.Response, env *envelope) error {
	msg := env.Message
	if msg == "" {
		msg = fmt.Sprintf("service returned status %d", resp.StatusCode())
	}
	return errx.E(op, kindForStatus(resp.StatusCode()), errors.New(msg))
}

// kindForStatus maps response statuses to error kinds. Anything not
// recognized is a plain service failure.
func kindForStatus(status int) errx.Kind {
	switch status {
	case http.StatusBadRequest:
		return errx.Invalid
	case http.StatusUnauthorized:
		return errx.Unauthorized
	case http.StatusNotFound:
		return errx.NotFound
	default:
		return errx.Service
	}
}

// decodeData unwraps the payload of a successful envelope.
func decodeData[T any](op string, env envelope) (T, error) {
	var v T
	if len(env.Data) == 0 {
		return v, errx.E(op, errx.Service, errors.New("service response has no data"))
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return v, errx.E(op, errx.Service, fmt.Errorf("failed to decode service response: %w", err))
	}
	return v, nil
}
