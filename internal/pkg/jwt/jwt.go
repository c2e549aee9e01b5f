// Package jwt signs the session tokens handed out by auth. Access tokens carry
// the member's role and ban flag so middleware can authorize without a DB
// read; refresh tokens carry only the member id and a jti that keys the
// refresh_tokens row.
package jwt

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Token kinds, stored in the "type" claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const issuer = "sharespace-api"

// Claims is the payload of an access token
type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	Role     string    `json:"role"`
	IsBanned bool      `json:"is_banned"`
	Type     string    `json:"type"`
	jwt.RegisteredClaims
}

func (c *Claims) kind() string { return c.Type }

// RefreshClaims is the payload of a refresh token. RegisteredClaims.ID is the jti.
type RefreshClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Type   string    `json:"type"`
	jwt.RegisteredClaims
}

func (c *RefreshClaims) kind() string { return c.Type }

type typedClaims interface {
	jwt.Claims
	kind() string
}

type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(secret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (s *Service) registered(subject uuid.UUID, jti string, issuedAt time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject.String(),
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
	}
}

func (s *Service) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// GenerateAccessToken signs a short-lived token for API calls and the websocket
func (s *Service) GenerateAccessToken(userID uuid.UUID, role string, isBanned bool) (string, error) {
	return s.sign(&Claims{
		UserID:           userID,
		Role:             role,
		IsBanned:         isBanned,
		Type:             TokenTypeAccess,
		RegisteredClaims: s.registered(userID, uuid.NewString(), time.Now(), s.accessTTL),
	})
}

// GenerateRefreshToken signs a refresh token and returns its jti and expiry
// so the caller can persist the session.
func (s *Service) GenerateRefreshToken(userID uuid.UUID) (string, string, time.Time, error) {
	now := time.Now()
	jti := uuid.NewString()
	token, err := s.sign(&RefreshClaims{
		UserID:           userID,
		Type:             TokenTypeRefresh,
		RegisteredClaims: s.registered(userID, jti, now, s.refreshTTL),
	})
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, jti, now.Add(s.refreshTTL), nil
}

// HashRefreshToken is the at-rest form of a refresh token
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *Service) ValidateAccessToken(token string) (*Claims, error) {
	claims := &Claims{}
	if err := s.parse(token, claims, TokenTypeAccess); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Service) ValidateRefreshToken(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(token, claims, TokenTypeRefresh); err != nil {
		return nil, err
	}
	return claims, nil
}

// parse verifies signature, issuer and expiry, then checks the token kind.
// Any failure other than expiry collapses to ErrInvalidToken.
func (s *Service) parse(token string, into typedClaims, want string) error {
	parsed, err := jwt.ParseWithClaims(token, into, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	case err != nil, !parsed.Valid, into.kind() != want:
		return ErrInvalidToken
	}
	return nil
}

func (s *Service) GetAccessTTL() time.Duration  { return s.accessTTL }
func (s *Service) GetRefreshTTL() time.Duration { return s.refreshTTL }
