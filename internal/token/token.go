package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/izzyjosh/brandai/internal/config"
)

// Claims is the verified content of a session token.
type Claims struct {
	Subject   string // local user id
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer mints and verifies the service's own bearer session tokens.
// Tokens are HMAC-signed JWTs carrying subject, issued-at and expiry; the
// expiry is a fixed configured offset from issued-at.
type Issuer struct {
	config *config.Config
}

// New creates a session token issuer from the loaded configuration.
func New(cfg *config.Config) *Issuer {
	return &Issuer{config: cfg}
}

// Issue creates a signed session token for the given local user id.
func (i *Issuer) Issue(subjectID string) (string, error) {
	if i.config.JWTSecret == "" {
		return "", ErrNoSigningSecret
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subjectID,
		"iat": now.Unix(),
		"exp": now.Add(i.config.JWTExpiration()).Unix(),
	}

	method := jwt.GetSigningMethod(i.config.JWTAlgorithm)
	if method == nil {
		return "", fmt.Errorf("%w: unknown algorithm %s", ErrNoSigningSecret, i.config.JWTAlgorithm)
	}

	tokenString, err := jwt.NewWithClaims(method, claims).SignedString([]byte(i.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return tokenString, nil
}

// Verify checks the signature and expiry of a session token and returns its
// claims. It fails closed: any structural defect, signature mismatch, or
// unexpected signing method yields ErrInvalidToken; a passed expiry yields
// ErrExpiredToken.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	if i.config.JWTSecret == "" {
		return nil, ErrNoSigningSecret
	}

	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(i.config.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	subject, _ := mapClaims["sub"].(string)
	if subject == "" {
		return nil, ErrInvalidToken
	}
	exp, ok := mapClaims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}
	iat, _ := mapClaims["iat"].(float64)

	return &Claims{
		Subject:   subject,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}
