// Package identity resolves bearer credentials to verified emails and manages the
// identity-provider side of user accounts.
package identity

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified caller behind a bearer token.
type Identity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

type Provider interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
	// DeleteAccount removes the provider account for email. A missing account is not an error.
	DeleteAccount(ctx context.Context, email string) error
}
