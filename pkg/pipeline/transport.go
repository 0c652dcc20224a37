// Package pipeline attaches the session's access token to outbound requests
// and recovers once from an authentication failure by renewing the token.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/tabsession/pkg/idx"
	"github.com/aussiebroadwan/tabsession/pkg/jwtx"
	"github.com/aussiebroadwan/tabsession/pkg/slogx"
	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
	"golang.org/x/time/rate"
)

// HeaderRequestID carries a per-request ULID to the upstream.
const HeaderRequestID = "X-Request-ID"

// Renewer hands out a fresh access token. staleAccess is the token the
// upstream rejected, or "" if none was sent. *renewal.Coordinator implements it.
type Renewer interface {
	Renew(ctx context.Context, staleAccess string) (string, error)
}

// Transport is an http.RoundTripper that authenticates requests from a
// token store. A valid access token is sent as a bearer; an invalid or
// absent one is simply left off. When the upstream answers 401 (or 403 with
// RenewOnForbidden) the token is renewed and the request is sent exactly
// once more.
type Transport struct {
	base             http.RoundTripper
	store            *tokenstore.Store
	renewer          Renewer
	codec            *jwtx.Codec
	logger           *slog.Logger
	limiter          *rate.Limiter
	skipAuth         func(*http.Request) bool
	renewOnForbidden bool
}

var _ http.RoundTripper = (*Transport)(nil)

type Option func(*Transport)

// WithBase sets the underlying transport. Default: http.DefaultTransport.
func WithBase(rt http.RoundTripper) Option {
	return func(t *Transport) { t.base = rt }
}

func WithCodec(c *jwtx.Codec) Option {
	return func(t *Transport) { t.codec = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Transport) { t.logger = l }
}

// WithLimiter paces outbound requests, retries included.
func WithLimiter(l *rate.Limiter) Option {
	return func(t *Transport) { t.limiter = l }
}

// WithSkipAuth marks requests that must never carry a bearer nor trigger a
// renewal, such as calls to the issuer itself.
func WithSkipAuth(fn func(*http.Request) bool) Option {
	return func(t *Transport) { t.skipAuth = fn }
}

// WithRenewOnForbidden treats 403 like 401.
func WithRenewOnForbidden(on bool) Option {
	return func(t *Transport) { t.renewOnForbidden = on }
}

// NewTransport creates a Transport reading tokens from store and renewing
// through renewer.
func NewTransport(store *tokenstore.Store, renewer Renewer, opts ...Option) *Transport {
	t := &Transport{
		base:    http.DefaultTransport,
		store:   store,
		renewer: renewer,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.codec == nil {
		t.codec = jwtx.NewCodec(jwtx.WithLogger(t.logger))
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if t.skipAuth != nil && t.skipAuth(req) {
		out := req.Clone(ctx)
		stampRequestID(out)
		return t.send(out)
	}

	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	sent, _ := t.store.Get(tokenstore.Access)

	out := req.Clone(ctx)
	if req.GetBody == nil && getBody != nil {
		if err := rewind(out, getBody); err != nil {
			return nil, err
		}
	}
	stampRequestID(out)
	t.authorize(out, sent)

	resp, err := t.send(out)
	if err != nil || !t.isAuthFailure(resp.StatusCode) {
		return resp, err
	}

	drain(resp)
	t.logger.Debug("upstream rejected credentials, renewing",
		"status", resp.StatusCode,
		"method", req.Method,
		"path", req.URL.Path,
	)

	access, err := t.renewer.Renew(ctx, sent)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	retry := req.Clone(ctx)
	if getBody != nil {
		if err := rewind(retry, getBody); err != nil {
			return nil, err
		}
	}
	retry.Header.Set(HeaderRequestID, out.Header.Get(HeaderRequestID))
	t.authorize(retry, access)

	return t.send(retry)
}

// authorize sets the bearer only for a token that is currently valid.
func (t *Transport) authorize(req *http.Request, token string) {
	req.Header.Del("Authorization")
	if token != "" && t.codec.IsValid(token) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (t *Transport) send(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("pipeline: rate limit: %w", err)
		}
	}
	return t.base.RoundTrip(req)
}

func (t *Transport) isAuthFailure(status int) bool {
	return status == http.StatusUnauthorized ||
		(t.renewOnForbidden && status == http.StatusForbidden)
}

// stampRequestID keeps an explicit header, then falls back to the ID of the
// inbound request that caused this call, then mints one.
func stampRequestID(req *http.Request) {
	if req.Header.Get(HeaderRequestID) != "" {
		return
	}
	if id, ok := slogx.RequestID(req.Context()); ok {
		req.Header.Set(HeaderRequestID, id)
		return
	}
	req.Header.Set(HeaderRequestID, idx.New().String())
}

// replayableBody returns a source of fresh copies of the request body, or
// nil when there is none. A body without GetBody is read into memory once;
// req itself is left untouched apart from its body being consumed.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		return req.GetBody, nil
	}

	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("pipeline: read body: %w", err)
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

func rewind(req *http.Request, getBody func() (io.ReadCloser, error)) error {
	body, err := getBody()
	if err != nil {
		return fmt.Errorf("pipeline: rewind body: %w", err)
	}
	req.Body = body
	req.GetBody = getBody
	return nil
}

// drain discards the rest of a response so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
