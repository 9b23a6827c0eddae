// Package webhook provides a ports.HandlerRepository that delegates handler
// execution to a remote HTTP service.
//
// Each invocation is a POST of {"handler", "contexts"} to <base>/<handler>.
// The service answers with {"contexts": {...}}; any non-2xx status is a failure.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
	"golang.org/x/time/rate"
)

// Compile-time checks
var (
	_ ports.HandlerRepository = (*Repository)(nil)
	_ ports.HandlerCatalog    = (*Repository)(nil)
)

// DefaultTimeout bounds a single invocation when no client is provided.
const DefaultTimeout = 10 * time.Second

// maxErrorBody is how much of a failed response body is kept in the error.
const maxErrorBody = 512

// Request is the body posted to the handler service.
type Request struct {
	Handler  string         `json:"handler"`
	Contexts map[string]any `json:"contexts"`
}

// Response is the body returned by the handler service.
type Response struct {
	Contexts map[string]any `json:"contexts"`
}

// Repository invokes handlers over HTTP.
type Repository struct {
	base     string
	client   *http.Client
	limiter  *rate.Limiter
	handlers []string
	headers  http.Header
}

// Option configures the Repository.
type Option func(*Repository)

// WithHTTPClient sets the client used for invocations.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Repository) {
		r.client = c
	}
}

// WithRateLimit caps invocations to rps per second with the given burst.
// Callers wait for a token; a cancelled context aborts the wait.
func WithRateLimit(rps float64, burst int) Option {
	return func(r *Repository) {
		r.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHandlers declares the handlers served remotely. When set, Has reports
// only those names and Invoke rejects the others without a round trip.
func WithHandlers(names ...string) Option {
	return func(r *Repository) {
		r.handlers = slices.Sorted(slices.Values(names))
	}
}

// WithHeader adds a header to every request, e.g. an authorization token.
func WithHeader(key, value string) Option {
	return func(r *Repository) {
		r.headers.Add(key, value)
	}
}

// New creates a repository posting to base.
func New(base string, opts ...Option) (*Repository, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("webhook base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("webhook base url %q: scheme must be http or https", base)
	}

	r := &Repository{
		base:    strings.TrimSuffix(base, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Inf, 0),
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Has implements ports.HandlerCatalog. Without declared handlers every name is
// assumed to be served.
func (r *Repository) Has(handler string) bool {
	if r.handlers == nil {
		return true
	}
	_, ok := slices.BinarySearch(r.handlers, handler)
	return ok
}

// Invoke implements ports.HandlerRepository.
func (r *Repository) Invoke(ctx context.Context, handler string, contexts map[string]any) (map[string]any, error) {
	if !r.Has(handler) {
		return nil, &domain.HandlerError{Handler: handler, Err: domain.ErrHandlerNotFound}
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("webhook %s: rate limit: %w", handler, err)
	}

	if contexts == nil {
		contexts = map[string]any{}
	}
	body, err := json.Marshal(Request{Handler: handler, Contexts: contexts})
	if err != nil {
		return nil, fmt.Errorf("webhook %s: encode: %w", handler, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.base+"/"+url.PathEscape(handler), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range r.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook %s: %w", handler, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &domain.HandlerError{Handler: handler, Err: domain.ErrHandlerNotFound}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Handler: handler, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		return nil, fmt.Errorf("webhook %s: decode: %w", handler, err)
	}
	return out.Contexts, nil
}

// StatusError reports a non-2xx answer of the handler service.
type StatusError struct {
	Handler string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook %s: status %d", e.Handler, e.Code)
	}
	return fmt.Sprintf("webhook %s: status %d: %s", e.Handler, e.Code, e.Body)
}
