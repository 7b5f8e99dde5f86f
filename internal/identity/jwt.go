package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider verifies HS256 tokens signed with a shared secret. It keeps no account records,
// so DeleteAccount has nothing to remove.
type JWTProvider struct {
	secret []byte
}

func NewJWTProvider(secret string) (*JWTProvider, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}
	return &JWTProvider{secret: []byte(secret)}, nil
}

// GenerateToken issues a token for email that expires after ttl.
func (p *JWTProvider) GenerateToken(email, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

func (p *JWTProvider) VerifyToken(ctx context.Context, tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{UID: claims.Subject, Email: claims.Email, Name: claims.Name, Picture: claims.Picture}, nil
}

func (p *JWTProvider) DeleteAccount(ctx context.Context, email string) error {
	return nil
}
