package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 10 << 20

// authFailureMarkers are the 403 bodies that mean the credential is bad
// rather than that access to a resource was refused.
var authFailureMarkers = []string{
	"could not validate credentials",
	"not authenticated",
}

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LoginRedirector is the login boundary the gateway sends users to when
// their credential is missing or rejected.
type LoginRedirector interface {
	RedirectToLogin()
}

// RedirectFunc adapts a function to LoginRedirector.
type RedirectFunc func()

func (f RedirectFunc) RedirectToLogin() { f() }

// Response is a completed exchange with the data service.
type Response struct {
	StatusCode int
	Body       []byte
}

// Gateway attaches the session credential to data requests and handles
// credential expiry. It never retries.
type Gateway struct {
	base     *url.URL
	doer     Doer
	session  *Session
	redirect LoginRedirector
	logger   *zap.Logger
}

// NewGateway creates a gateway for the API rooted at baseURL, e.g.
// "http://localhost:9000/api".
func NewGateway(baseURL string, doer Doer, session *Session, redirect LoginRedirector, logger *zap.Logger) (*Gateway, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: scheme and host are required", baseURL)
	}
	if redirect == nil {
		redirect = RedirectFunc(func() {})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{base: base, doer: doer, session: session, redirect: redirect, logger: logger}, nil
}

// Do issues an authenticated GET.
func (g *Gateway) Do(ctx context.Context, endpoint string, query url.Values) (*Response, error) {
	return g.Send(ctx, http.MethodGet, endpoint, query, nil)
}

// Send issues an authenticated request. Without a credential nothing is
// sent; the caller is redirected to login and ErrAuthRequired returned.
// A 401, or a 403 whose body marks the credential as invalid, ends the
// session the same way. Every other status is returned as is.
func (g *Gateway) Send(ctx context.Context, method, endpoint string, query url.Values, body any) (*Response, error) {
	token := g.session.Token()
	if token == "" {
		g.logger.Debug("no credential, redirecting to login", zap.String("endpoint", endpoint))
		g.redirect.RedirectToLogin()
		return nil, ErrAuthRequired
	}

	resp, err := g.roundTrip(ctx, method, endpoint, query, body, token)
	if err != nil {
		return nil, err
	}

	if isAuthFailure(resp) {
		g.logger.Info("credential rejected", zap.String("endpoint", endpoint), zap.Int("status", resp.StatusCode))
		if g.session.End() {
			g.redirect.RedirectToLogin()
		}
		return nil, ErrAuthRequired
	}
	return resp, nil
}

// Public issues a request without a credential, for the login exchange.
func (g *Gateway) Public(ctx context.Context, method, endpoint string, body any) (*Response, error) {
	return g.roundTrip(ctx, method, endpoint, nil, body, "")
}

func (g *Gateway) roundTrip(ctx context.Context, method, endpoint string, query url.Values, body any, token string) (*Response, error) {
	target := g.base.JoinPath(endpoint)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := g.doer.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	g.logger.Debug("api request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", httpResp.StatusCode),
	)
	return &Response{StatusCode: httpResp.StatusCode, Body: data}, nil
}

func isAuthFailure(resp *Response) bool {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return true
	case http.StatusForbidden:
		body := strings.ToLower(string(resp.Body))
		for _, marker := range authFailureMarkers {
			if strings.Contains(body, marker) {
				return true
			}
		}
	}
	return false
}
