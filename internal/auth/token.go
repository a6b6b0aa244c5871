// Package auth issues and verifies the identity tokens that bind a client to
// one player of one room.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken        = errors.New("invalid-token")
	ErrInvalidSigningAlg   = fmt.Errorf("%w: invalid-signing-alg", ErrInvalidToken)
	ErrExpiredToken        = fmt.Errorf("%w: expired-token", ErrInvalidToken)
	ErrInvalidSignature    = fmt.Errorf("%w: invalid-token-signature", ErrInvalidToken)
	ErrCorruptedToken      = fmt.Errorf("%w: corrupted-token", ErrInvalidToken)
	ErrTokenGenerationFail = errors.New("token-generation-failed")
)

// Claims identify a player inside a room. IsHost reflects the role when the
// token was issued and is advisory only: the live room decides who is host.
type Claims struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	IsHost   bool   `json:"isHost"`
}

// jwtClaims is the wire form. Fields must be exported for JSON serialization.
type jwtClaims struct {
	Claims
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 identity tokens
type TokenManager struct {
	secretKey []byte
	maxAge    time.Duration
}

// NewTokenManager creates a token manager whose tokens expire after maxAge
func NewTokenManager(secretKey string, maxAge time.Duration) *TokenManager {
	return &TokenManager{
		secretKey: []byte(secretKey),
		maxAge:    maxAge,
	}
}

// Issue signs claims into a token valid from now for the manager's max age
func (m *TokenManager) Issue(claims Claims, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		Claims: claims,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	})

	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenGenerationFail, err)
	}
	return signed, nil
}

// Verify checks the token and returns its claims. Every failure wraps ErrInvalidToken.
func (m *TokenManager) Verify(tokenString string) (Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningAlg
		}
		return m.secretKey, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSigningAlg):
			return Claims{}, ErrInvalidSigningAlg
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpiredToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return Claims{}, ErrInvalidSignature
		default:
			return Claims{}, ErrCorruptedToken
		}
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid || claims.RoomID == "" || claims.PlayerID == "" {
		return Claims{}, ErrCorruptedToken
	}
	return claims.Claims, nil
}
