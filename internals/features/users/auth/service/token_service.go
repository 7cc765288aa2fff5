package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// ClockSkew tolerated when checking exp.
const ClockSkew = 30 * time.Second

var ErrTokenInvalid = errors.New("token invalid")

// Claims carried by access tokens: {id, role, jti, exp}. jti makes every
// issued token distinct, so revoking one never revokes a later login.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IssueAccessToken signs an HS256 token valid for ttl from now.
func IssueAccessToken(secret string, id uuid.UUID, role string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("jwt secret is empty")
	}
	exp := now.Add(ttl).UTC()
	claims := Claims{
		UserID: id.String(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseAccessToken verifies signature and expiry against now.
func ParseAccessToken(secret, raw string, now time.Time) (*Claims, uuid.UUID, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}); err != nil {
		return nil, uuid.Nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.ExpiresAt == nil {
		return nil, uuid.Nil, fmt.Errorf("%w: no exp", ErrTokenInvalid)
	}
	if now.After(claims.ExpiresAt.Time.Add(ClockSkew)) {
		return nil, uuid.Nil, fmt.Errorf("%w: expired at %s", ErrTokenInvalid, claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	id, err := uuid.Parse(strings.TrimSpace(claims.UserID))
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%w: bad id", ErrTokenInvalid)
	}
	return claims, id, nil
}
