package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates access tokens from refresh tokens. A token is only
// valid for operations scoped to its kind.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// ErrInvalidToken is returned when a token is missing, malformed, expired,
// carries a bad signature, or is not of the expected kind.
var ErrInvalidToken = errors.New("invalid token")

// Claims embeds the registered JWT claims and adds the token kind. The
// subject carries the authenticated user's email.
type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"kind"`
}

// TokenManager issues and verifies signed access and refresh tokens.
// Validity is purely a function of signature and expiry; there is no
// server-side revocation state.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssuePair mints an access/refresh token pair for the given identity.
func (m *TokenManager) IssuePair(identity string) (access, refresh string, err error) {
	access, err = m.issue(identity, KindAccess, m.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = m.issue(identity, KindRefresh, m.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// IssueAccess mints a new access token from a valid refresh token.
func (m *TokenManager) IssueAccess(refreshToken string) (string, error) {
	identity, err := m.Verify(refreshToken, KindRefresh)
	if err != nil {
		return "", err
	}
	return m.issue(identity, KindAccess, m.accessTTL)
}

// Verify parses the token, checks signature and expiry, and requires the
// given kind. It returns the identity (email) embedded in the token.
func (m *TokenManager) Verify(tokenString string, kind TokenKind) (string, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Kind != kind {
		return "", ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (m *TokenManager) issue(identity string, kind TokenKind, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}
