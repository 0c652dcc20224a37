package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/tabsession/internal/session/store"
	"github.com/aussiebroadwan/tabsession/pkg/authsdk"
	"github.com/aussiebroadwan/tabsession/pkg/events"
	"github.com/aussiebroadwan/tabsession/pkg/guard"
	"github.com/aussiebroadwan/tabsession/pkg/jwtx"
	"github.com/aussiebroadwan/tabsession/pkg/pipeline"
	"github.com/aussiebroadwan/tabsession/pkg/renewal"
	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
	"golang.org/x/time/rate"
)

// Session is the explicit session context: one credential store and every
// component that reads or renews it. The server and the CLI both build one.
type Session struct {
	Store       *tokenstore.Store
	Codec       *jwtx.Codec
	Issuer      *authsdk.SDKClient
	Coordinator *renewal.Coordinator
	Transport   *pipeline.Transport
	Guard       *guard.Guard
	Bus         *events.Bus
	API         *pipeline.Client
}

// NewSession opens the configured backend and wires the components around
// it. base is the round tripper used for API calls; nil means the default.
func NewSession(ctx context.Context, cfg Config, base http.RoundTripper, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backend, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	ts, err := tokenstore.New(ctx, backend, logger)
	if err != nil {
		closeBackend(backend)
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	s := &Session{
		Store: ts,
		Codec: jwtx.NewCodec(jwtx.WithLogger(logger)),
		Bus:   events.NewBus(logger),
	}

	s.Issuer = authsdk.NewSDKClient(cfg.AuthBaseURL, cfg.AuthClientID)
	s.Issuer.RefreshEncoding = authsdk.RefreshEncoding(cfg.AuthRefreshEncoding)
	s.Issuer.RefreshPath = cfg.AuthRefreshPath

	s.Coordinator = renewal.NewCoordinator(ts, IssuerRenewer(s.Issuer),
		renewal.WithTimeout(cfg.RenewalTimeout),
		renewal.WithCodec(s.Codec),
		renewal.WithLogger(logger),
	)
	s.Coordinator.OnRenewed(func(ctx context.Context, _ renewal.Tokens) { s.Bus.Renewed(ctx) })
	s.Coordinator.OnFailed(s.Bus.RenewalFailed)

	opts := []pipeline.Option{
		pipeline.WithCodec(s.Codec),
		pipeline.WithLogger(logger),
		pipeline.WithRenewOnForbidden(cfg.RenewOnForbidden),
	}
	if base != nil {
		opts = append(opts, pipeline.WithBase(base))
	}
	if cfg.OutboundRatePerSec > 0 {
		opts = append(opts, pipeline.WithLimiter(rate.NewLimiter(rate.Limit(cfg.OutboundRatePerSec), cfg.OutboundBurst)))
	}
	s.Transport = pipeline.NewTransport(ts, s.Coordinator, opts...)
	s.API = pipeline.NewClient(cfg.APIBaseURL, s.Transport)

	s.Guard = guard.New(ts,
		guard.WithCodec(s.Codec),
		guard.WithLogger(logger),
		guard.WithSignInPath(cfg.SignInPath),
		guard.WithOnDenied(func(r *http.Request) { s.Bus.Cleared(r.Context(), "guard") }),
	)

	return s, nil
}

// IssuerRenewer adapts the issuer's refresh grant to renewal.Renewer.
func IssuerRenewer(issuer *authsdk.SDKClient) renewal.Renewer {
	return renewal.RenewerFunc(func(ctx context.Context, refreshToken string) (renewal.Tokens, error) {
		resp, err := issuer.RefreshGrant(ctx, refreshToken)
		if err != nil {
			return renewal.Tokens{}, err
		}
		return renewal.Tokens{Access: resp.AccessToken, Refresh: resp.RefreshToken}, nil
	})
}

// Close releases the event bus and the credential backend.
func (s *Session) Close() error {
	return errors.Join(s.Bus.Close(), s.Store.Close())
}

func closeBackend(b tokenstore.Backend) {
	if c, ok := b.(io.Closer); ok {
		_ = c.Close()
	}
}
