package renewal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/tabsession/pkg/jwtx"
	"github.com/aussiebroadwan/tabsession/pkg/tokenstore"
)

// DefaultTimeout bounds a single renewal call.
const DefaultTimeout = 10 * time.Second

var (
	// ErrRenewalFailed wraps every renewal failure handed to callers.
	ErrRenewalFailed = errors.New("renewal: failed")

	// ErrNoRefreshToken means the store held no refresh token to renew with.
	ErrNoRefreshToken = errors.New("renewal: no refresh token")

	// ErrTimeout means the renewal call did not finish within the timeout.
	ErrTimeout = errors.New("renewal: timed out")

	// ErrIncompleteTokens means the issuer answered without both tokens.
	ErrIncompleteTokens = errors.New("renewal: issuer returned incomplete tokens")
)

// State is the coordinator state.
type State int

const (
	Idle State = iota
	Renewing
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Renewing:
		return "renewing"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stats is a snapshot of the coordinator counters.
type Stats struct {
	State         State
	Renewals      uint64
	Failures      uint64
	ShortCircuits uint64
	Waiting       int
}

type result struct {
	access string
	err    error
}

// Coordinator serialises renewals against a token store.
type Coordinator struct {
	store   *tokenstore.Store
	renewer Renewer
	codec   *jwtx.Codec
	logger  *slog.Logger
	timeout time.Duration

	mu        sync.Mutex
	state     State
	waiters   []chan result
	onRenewed []func(context.Context, Tokens)
	onFailed  []func(context.Context, error)
	stats     Stats
}

type Option func(*Coordinator)

// WithTimeout bounds each renewal call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithCodec sets the codec used for the stale-token check.
func WithCodec(codec *jwtx.Codec) Option {
	return func(c *Coordinator) { c.codec = codec }
}

// NewCoordinator creates an idle coordinator.
func NewCoordinator(store *tokenstore.Store, renewer Renewer, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:   store,
		renewer: renewer,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.codec == nil {
		c.codec = jwtx.NewCodec(jwtx.WithLogger(c.logger))
	}
	return c
}

// OnRenewed registers fn to run after every successful renewal, once the
// new pair is in the store and before waiters are released.
func (c *Coordinator) OnRenewed(fn func(context.Context, Tokens)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRenewed = append(c.onRenewed, fn)
}

// OnFailed registers fn to run after every failed renewal, once the store
// has been cleared and waiters released.
func (c *Coordinator) OnFailed(fn func(context.Context, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFailed = append(c.onFailed, fn)
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns a snapshot of the counters.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.State = c.state
	s.Waiting = len(c.waiters)
	return s
}

// Renew returns a fresh access token. staleAccess is the token the caller
// had rejected, or "" when it sent none; when the store already holds a
// different valid token it is returned without contacting the issuer.
//
// If a renewal is already in flight the caller waits for its outcome.
// ctx only bounds the wait; the renewal call itself is not cancelled by it.
func (c *Coordinator) Renew(ctx context.Context, staleAccess string) (string, error) {
	c.mu.Lock()

	switch c.state {
	case Failed:
		c.mu.Unlock()
		return "", fmt.Errorf("%w: previous renewal is still unwinding", ErrRenewalFailed)

	case Idle:
		if current, ok := c.fresher(staleAccess); ok {
			c.stats.ShortCircuits++
			c.mu.Unlock()
			return current, nil
		}
		c.state = Renewing
		c.logger.Debug("renewal started")
		go c.run(context.WithoutCancel(ctx))
	}

	ch := make(chan result, 1)
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()

	select {
	case r := <-ch:
		return r.access, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// fresher reports a valid access token in the store that differs from
// stale. Called with mu held.
func (c *Coordinator) fresher(stale string) (string, bool) {
	current, ok := c.store.Get(tokenstore.Access)
	if !ok || current == stale || !c.codec.IsValid(current) {
		return "", false
	}
	return current, true
}

func (c *Coordinator) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tokens, err := c.call(ctx)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	c.succeed(ctx, tokens)
}

func (c *Coordinator) call(ctx context.Context) (Tokens, error) {
	refresh, ok := c.store.Get(tokenstore.Refresh)
	if !ok {
		return Tokens{}, ErrNoRefreshToken
	}

	type outcome struct {
		tokens Tokens
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		t, err := c.renewer.Renew(ctx, refresh)
		done <- outcome{tokens: t, err: err}
	}()

	var tokens Tokens
	select {
	case o := <-done:
		if o.err != nil {
			if ctx.Err() != nil {
				return Tokens{}, fmt.Errorf("%w after %s: %w", ErrTimeout, c.timeout, o.err)
			}
			return Tokens{}, o.err
		}
		tokens = o.tokens
	case <-ctx.Done():
		return Tokens{}, fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	}

	if tokens.Access == "" || tokens.Refresh == "" {
		return Tokens{}, ErrIncompleteTokens
	}
	return tokens, nil
}

func (c *Coordinator) succeed(ctx context.Context, tokens Tokens) {
	if err := c.store.Set(tokens.Access, tokens.Refresh); err != nil {
		c.logger.Warn("renewed tokens not persisted", "err", err)
	}

	c.mu.Lock()
	hooks := append([]func(context.Context, Tokens){}, c.onRenewed...)
	c.mu.Unlock()
	for _, fn := range hooks {
		fn(ctx, tokens)
	}

	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.state = Idle
	c.stats.Renewals++
	c.mu.Unlock()

	c.logger.Info("access token renewed", "waiters", len(waiters))
	for _, ch := range waiters {
		ch <- result{access: tokens.Access}
	}
}

func (c *Coordinator) fail(ctx context.Context, cause error) {
	err := fmt.Errorf("%w: %w", ErrRenewalFailed, cause)

	c.mu.Lock()
	c.state = Failed
	waiters := c.waiters
	c.waiters = nil
	c.stats.Failures++
	hooks := append([]func(context.Context, error){}, c.onFailed...)
	c.mu.Unlock()

	if clearErr := c.store.Clear(); clearErr != nil {
		c.logger.Warn("credential clear not persisted", "err", clearErr)
	}

	c.logger.Error("access token renewal failed", "err", cause, "waiters", len(waiters))
	for _, ch := range waiters {
		ch <- result{err: err}
	}

	for _, fn := range hooks {
		fn(ctx, err)
	}

	c.mu.Lock()
	c.state = Idle
	c.mu.Unlock()
}
