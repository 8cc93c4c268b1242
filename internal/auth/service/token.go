package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/volunteerhub/backend/internal/models"
)

// DefaultTokenExpiry is the lifetime of an issued session token
const DefaultTokenExpiry = 24 * time.Hour

var (
	// ErrTokenExpired is returned for a correctly signed token whose expiry has passed
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidToken is returned for malformed tokens and tokens whose signature does not verify
	ErrInvalidToken = errors.New("invalid token")
	// ErrClaimsIncomplete is returned for a correctly signed token missing its subject
	ErrClaimsIncomplete = errors.New("token claims are incomplete")
)

// Claims is the identity snapshot embedded in a session token
type Claims struct {
	SubjectID   string
	DisplayName string
	Email       string
	Role        models.Role
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// ClaimsForUser builds the claims snapshot for a user. The password hash is never included.
func ClaimsForUser(user *models.User) Claims {
	return Claims{
		SubjectID:   user.ID,
		DisplayName: user.Name,
		Email:       user.Email,
		Role:        user.Role,
	}
}

// sessionClaims is the wire form of Claims
type sessionClaims struct {
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec signs claims into HS256 tokens and verifies them back
type TokenCodec struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenCodec creates a new token codec
func NewTokenCodec(secret string, expiry time.Duration) *TokenCodec {
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &TokenCodec{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// Expiry returns the configured token lifetime
func (c *TokenCodec) Expiry() time.Duration {
	return c.expiry
}

// Issue signs claims into a token that expires after the configured lifetime.
// IssuedAt and ExpiresAt of the input are ignored and recomputed.
func (c *TokenCodec) Issue(claims Claims) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Name:  claims.DisplayName,
		Email: claims.Email,
		Role:  claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.expiry)),
		},
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Decode verifies the token signature, then its expiry, and returns the embedded claims
func (c *TokenCodec) Decode(tokenString string) (*Claims, error) {
	parsed := &sessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, parsed, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable),
			errors.Is(err, jwt.ErrTokenInvalidClaims):
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		default:
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
	}

	if parsed.Subject == "" {
		return nil, ErrClaimsIncomplete
	}

	claims := &Claims{
		SubjectID:   parsed.Subject,
		DisplayName: parsed.Name,
		Email:       parsed.Email,
		Role:        parsed.Role,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time
	}

	return claims, nil
}
