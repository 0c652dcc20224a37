package jwtx

import "errors"

var (
	ErrMalformed = errors.New("jwtx: malformed token")
	ErrExpired   = errors.New("jwtx: token expired")
	ErrNoExpiry  = errors.New("jwtx: token has no exp claim")
)
