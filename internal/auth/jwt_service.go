package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTokenTTL defines the fallback validity period for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute
	// DefaultRefreshTokenTTL defines the fallback validity period for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// JWTConfig bundles the configuration required to build a JWTService.
// Access and refresh tokens are signed with independent secrets so a leaked
// access secret cannot be used to forge refresh tokens.
type JWTConfig struct {
	AccessSecret    string
	RefreshSecret   string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Clock           func() time.Time
}

// Claims represents the custom claims embedded in issued JWTs.
type Claims struct {
	AdminID string `json:"uid"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTService issues and validates the two token kinds used by the auth core:
// short-lived self-contained access tokens and long-lived refresh tokens
// whose authority additionally depends on a matching store row.
type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewJWTService constructs a JWTService instance when provided with the required configuration.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.AccessSecret == "" {
		return nil, errors.New("jwt: access secret must be provided")
	}
	if cfg.RefreshSecret == "" {
		return nil, errors.New("jwt: refresh secret must be provided")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("jwt: access and refresh secrets must differ")
	}

	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}

	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &JWTService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		issuer:        cfg.Issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           now,
	}, nil
}

// AccessTokenTTL reports the configured access token lifetime.
func (s *JWTService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

// RefreshTokenTTL reports the configured refresh token lifetime.
func (s *JWTService) RefreshTokenTTL() time.Duration {
	return s.refreshTTL
}

// GenerateAccessToken issues a signed short-lived JWT carrying the admin identity.
func (s *JWTService) GenerateAccessToken(adminID, email string) (string, error) {
	if adminID == "" {
		return "", errors.New("jwt: admin id is required")
	}
	return s.generate(adminID, email, s.accessSecret, s.accessTTL)
}

// GenerateRefreshToken issues a signed long-lived JWT and reports its expiry.
// Callers must persist the token value; signature validity alone never
// authorises a refresh.
func (s *JWTService) GenerateRefreshToken(adminID string) (string, time.Time, error) {
	if adminID == "" {
		return "", time.Time{}, errors.New("jwt: admin id is required")
	}

	expiresAt := s.now().Add(s.refreshTTL)
	token, err := s.generate(adminID, "", s.refreshSecret, s.refreshTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ValidateAccessToken parses and validates a signed access token.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.accessSecret)
}

// ValidateRefreshToken checks signature and structural validity of a refresh
// token. It says nothing about whether the token is still live in the store.
func (s *JWTService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.refreshSecret)
}

func (s *JWTService) generate(adminID, email string, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()

	claims := &Claims{
		AdminID: adminID,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, nil
}

func (s *JWTService) validate(tokenString string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("jwt: token string is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, errors.New("jwt: invalid issuer")
	}

	if claims.AdminID == "" {
		return nil, errors.New("jwt: missing admin id claim")
	}

	return &claims, nil
}
