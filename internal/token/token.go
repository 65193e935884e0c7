// Package token encodes and decodes the signed session tokens. The codec is
// stateless; session invalidation happens at verification time by comparing
// the embedded login time against the account's current last_login.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	// ErrInvalid covers malformed tokens and bad signatures.
	ErrInvalid = errors.New("token invalid")
	// ErrExpired means the token was well formed and correctly signed but
	// its expiry is in the past.
	ErrExpired = errors.New("token expired")
	// ErrTypeMismatch means the token is of the wrong kind, e.g. a refresh
	// token presented where an access token is expected.
	ErrTypeMismatch = errors.New("token type mismatch")
)

// Payload is what a token carries about its principal. LoginTime is the
// account's last_login at issuance, truncated to seconds.
type Payload struct {
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	IsSuperuser bool   `json:"is_superuser"`
	LoginTime   int64  `json:"login_time"`
}

type claims struct {
	Payload
	Kind Kind `json:"type"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256-signed tokens.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(secret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Issue signs a token of the given kind and returns it with its expiry.
func (c *Codec) Issue(kind Kind, p Payload, now time.Time) (string, time.Time, error) {
	ttl := c.accessTTL
	if kind == KindRefresh {
		ttl = c.refreshTTL
	}
	expiry := now.Add(ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Payload: p,
		Kind:    kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	})
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

// Verify decodes raw and returns its payload. Checks run in fixed order:
// signature, kind, expiry. A wrong kind and an expired-but-otherwise-valid
// token are distinct error values.
func (c *Codec) Verify(raw string, kind Kind) (Payload, error) {
	return c.VerifyAt(raw, kind, time.Now())
}

// VerifyAt is Verify against an explicit clock.
func (c *Codec) VerifyAt(raw string, kind Kind, now time.Time) (Payload, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Expiry is checked by hand below so the kind check can come first.
		jwt.WithoutClaimsValidation(),
	)
	var cl claims
	t, err := parser.ParseWithClaims(raw, &cl, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !t.Valid {
		return Payload{}, ErrInvalid
	}
	if cl.Kind != kind {
		return Payload{}, ErrTypeMismatch
	}
	if cl.ExpiresAt == nil || cl.ExpiresAt.Before(now) {
		return Payload{}, ErrExpired
	}
	return cl.Payload, nil
}
