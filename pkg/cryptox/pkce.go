package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const (
	// VerifierSize is the number of random bytes behind a code verifier.
	// Hex encoding doubles it to 64 characters, inside RFC 7636's 43..128 range.
	VerifierSize = 32

	// ChallengeMethodS256 is the only challenge method we generate.
	ChallengeMethodS256 = "S256"
)

// ProofKeyPair binds an authorization request to the client that later
// redeems the code. Use it for exactly one authorization attempt.
type ProofKeyPair struct {
	// Verifier is kept secret by the client and sent with the code exchange.
	Verifier string

	// Challenge is BASE64URL(SHA256(Verifier)), sent to the authorize endpoint.
	Challenge string

	// Method is always "S256".
	Method string
}

// GenerateVerifier returns VerifierSize bytes from crypto/rand as lowercase hex.
func GenerateVerifier() (string, error) {
	buf := make([]byte, VerifierSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateChallenge computes the S256 challenge for a verifier:
// unpadded base64url of the SHA-256 digest of the verifier's bytes.
func GenerateChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// NewProofKeyPair generates a fresh verifier and its matching challenge.
func NewProofKeyPair() (*ProofKeyPair, error) {
	verifier, err := GenerateVerifier()
	if err != nil {
		return nil, err
	}

	return &ProofKeyPair{
		Verifier:  verifier,
		Challenge: GenerateChallenge(verifier),
		Method:    ChallengeMethodS256,
	}, nil
}
