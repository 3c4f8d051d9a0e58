package auth

import (
	"crypto/rsa"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClerkClaims are the claims of a Clerk session token.
type ClerkClaims struct {
	jwt.RegisteredClaims
	SessionID       string `json:"sid"`
	AuthorizedParty string `json:"azp,omitempty"`
}

// ClerkAuthenticator verifies Clerk session tokens networklessly against the
// instance's PEM public key.
type ClerkAuthenticator struct {
	key     *rsa.PublicKey
	issuer  string
	parties []string
	leeway  time.Duration
}

func NewClerkAuthenticator(pemKey, issuer string, authorizedParties []string) (*ClerkAuthenticator, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(normalizePEM(pemKey)))
	if err != nil {
		return nil, fmt.Errorf("parse clerk jwt key: %w", err)
	}
	return &ClerkAuthenticator{
		key:     key,
		issuer:  issuer,
		parties: authorizedParties,
		leeway:  5 * time.Second,
	}, nil
}

func (a *ClerkAuthenticator) Authenticate(token string) (*User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(a.leeway),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &ClerkClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.key, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if claims.AuthorizedParty != "" && len(a.parties) > 0 && !slices.Contains(a.parties, claims.AuthorizedParty) {
		return nil, fmt.Errorf("%w: unauthorized party %q", ErrInvalidToken, claims.AuthorizedParty)
	}

	return &User{ID: claims.Subject, SessionID: claims.SessionID}, nil
}

// normalizePEM restores newlines in keys stored on a single line in env files.
func normalizePEM(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), `\n`, "\n")
}
