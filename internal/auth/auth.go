// Package auth models the caller identity handed to every store
// operation. The identity provider itself (sign-in, profile) is an
// external collaborator; this package only verifies presented
// credentials and carries the resolved identity explicitly, so no data
// function ever reads a global current-user.
package auth

import (
	"context"
	"errors"
	"strings"
)

// Identity is the authenticated user attached to a request.
type Identity struct {
	UID         string
	DisplayName string
	Email       string
	PhotoURL    string
}

var (
	ErrUnauthenticated = errors.New("no authenticated user")
	ErrInvalidToken    = errors.New("invalid token")
)

// Valid reports whether the identity names a concrete user.
func (id Identity) Valid() bool {
	return id.UID != ""
}

// Require returns ErrUnauthenticated for an empty identity. Every
// write path calls this before touching storage.
func Require(id Identity) error {
	if !id.Valid() {
		return ErrUnauthenticated
	}
	return nil
}

// Provider resolves a bearer token to an identity.
type Provider interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

// StaticProvider authenticates against a fixed token table, typically
// loaded from configuration. It stands in for the hosted
// authentication service in development and tests.
type StaticProvider struct {
	tokens map[string]Identity
}

func NewStaticProvider(tokens map[string]Identity) *StaticProvider {
	cp := make(map[string]Identity, len(tokens))
	for k, v := range tokens {
		cp[k] = v
	}
	return &StaticProvider{tokens: cp}
}

// ParseStaticTokens parses "token=uid" pairs separated by commas, as
// accepted by the FINTRACK_API_TOKENS setting.
func ParseStaticTokens(s string) (map[string]Identity, error) {
	tokens := make(map[string]Identity)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, uid, ok := strings.Cut(pair, "=")
		if !ok || token == "" || uid == "" {
			return nil, errors.New("malformed token pair: " + pair)
		}
		tokens[token] = Identity{UID: uid}
	}
	return tokens, nil
}

func (p *StaticProvider) Authenticate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}
	id, ok := p.tokens[token]
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}
