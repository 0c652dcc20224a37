package renewal

import "context"

//go:generate mockgen -destination=mock_renewer_test.go -package=renewal . Renewer

// Tokens is a freshly issued credential pair.
type Tokens struct {
	Access  string
	Refresh string
}

// Renewer exchanges a refresh token for a new pair at the issuer.
type Renewer interface {
	Renew(ctx context.Context, refreshToken string) (Tokens, error)
}

// RenewerFunc adapts a function to Renewer.
type RenewerFunc func(ctx context.Context, refreshToken string) (Tokens, error)

func (f RenewerFunc) Renew(ctx context.Context, refreshToken string) (Tokens, error) {
	return f(ctx, refreshToken)
}
