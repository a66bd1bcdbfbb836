package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/JonMunkholm/PartsInventory/internal/core"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession is returned for any token that cannot be trusted:
// malformed, badly signed, expired, or naming a user that is gone.
var ErrInvalidSession = fmt.Errorf("%w: invalid session", core.ErrUnauthorized)

// Claims are the session token claims.
type Claims struct {
	UserID   int64     `json:"uid"`
	Username string    `json:"username"`
	Role     core.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies session tokens with one HMAC secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

const tokenIssuer = "parts-inventory"

// NewTokenIssuer returns an issuer for secret whose tokens live for ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for u. It returns the token and its expiry.
func (t *TokenIssuer) Issue(u core.User) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies raw and returns its claims. Every failure is ErrInvalidSession.
func (t *TokenIssuer) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidSession
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", ErrInvalidSession)
		}
		return nil, ErrInvalidSession
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
