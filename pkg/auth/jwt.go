// Package auth issues and parses the storefront's JWTs and hashes
// passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shashiranjanraj/storefront/config"
	"golang.org/x/crypto/bcrypt"
)

// Token types carried in the "typ" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrWrongTokenType = errors.New("auth: wrong token type")
	ErrInvalidToken   = errors.New("auth: invalid token")
)

// Claims holds the typed JWT payload.
type Claims struct {
	UserID uint   `json:"uid"`
	Role   string `json:"role"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// JTI returns the token id used for revocation.
func (c *Claims) JTI() string { return c.ID }

// Expiry returns when the token stops being valid.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenPair is what login and register hand back to clients.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func secret() []byte {
	return []byte(config.JWTSecret())
}

func sign(userID uint, role, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
}

// GenerateToken creates an access token.
func GenerateToken(userID uint, role string) (string, error) {
	return sign(userID, role, TypeAccess, config.AccessTokenTTL())
}

// GenerateRefreshToken creates a refresh token.
func GenerateRefreshToken(userID uint, role string) (string, error) {
	return sign(userID, role, TypeRefresh, config.RefreshTokenTTL())
}

// GeneratePair issues both tokens for a user.
func GeneratePair(userID uint, role string) (TokenPair, error) {
	access, err := GenerateToken(userID, role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := GenerateRefreshToken(userID, role)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateToken parses t and checks its signature and expiry.
func ValidateToken(t string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(t, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return secret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateTyped is ValidateToken plus a "typ" check.
func ValidateTyped(t, typ string) (*Claims, error) {
	claims, err := ValidateToken(t)
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func bcryptCost() int {
	c := config.Int("BCRYPT_COST", bcrypt.DefaultCost)
	if c < bcrypt.MinCost || c > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return c
}

// HashPassword returns a bcrypt hash of plain.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost())
	return string(b), err
}

// CheckPassword compares a bcrypt hash against plain.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

type claimsKey struct{}

// WithClaims stores parsed claims in ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// FromContext returns the claims stored by the auth middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}
