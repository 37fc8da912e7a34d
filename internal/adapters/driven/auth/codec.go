package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/custodia-labs/gymcrm-auth/internal/core/domain"
	"github.com/custodia-labs/gymcrm-auth/internal/core/ports/driven"
)

// Ensure JWTCodec implements TokenCodec
var _ driven.TokenCodec = (*JWTCodec)(nil)

// MinTokenTTL is the shortest lifetime Issue accepts. JWT expiry has
// whole-second resolution.
const MinTokenTTL = time.Second

// jwtClaims wraps domain.Claims for JWT compatibility
type jwtClaims struct {
	Role domain.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTCodec signs and verifies HS256 tokens with a single shared secret
type JWTCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// CodecOption configures a JWTCodec
type CodecOption func(*JWTCodec)

// WithClock overrides the time source used for iat, exp and validation
func WithClock(now func() time.Time) CodecOption {
	return func(c *JWTCodec) {
		c.now = now
	}
}

// NewJWTCodec creates a codec. An empty secret or issuer is a configuration error.
func NewJWTCodec(secret, issuer string, opts ...CodecOption) (*JWTCodec, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if issuer == "" {
		return nil, errors.New("jwt issuer is required")
	}

	c := &JWTCodec{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue creates a signed JWT for subject that expires after ttl
func (c *JWTCodec) Issue(subject string, ttl time.Duration, claims domain.Claims) (string, *domain.Token, error) {
	if subject == "" {
		return "", nil, fmt.Errorf("%w: empty subject", domain.ErrInvalidInput)
	}
	if ttl < MinTokenTTL {
		return "", nil, fmt.Errorf("%w: ttl must be at least %s", domain.ErrInvalidInput, MinTokenTTL)
	}

	// JWT numeric dates are whole seconds. Expiry rounds up so a token never
	// lives shorter than ttl.
	now := c.now().UTC()
	expiresAt := now.Add(ttl)
	if trunc := expiresAt.Truncate(time.Second); !trunc.Equal(expiresAt) {
		expiresAt = trunc.Add(time.Second)
	}
	token := &domain.Token{
		Subject:   subject,
		Issuer:    c.issuer,
		IssuedAt:  now.Truncate(time.Second),
		ExpiresAt: expiresAt,
		TokenID:   uuid.NewString(),
		Claims:    claims,
	}

	jc := jwtClaims{
		Role: claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   token.Subject,
			Issuer:    token.Issuer,
			IssuedAt:  jwt.NewNumericDate(token.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(token.ExpiresAt),
			ID:        token.TokenID,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jc).SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign jwt: %w", err)
	}
	return signed, token, nil
}

// Verify validates signature, expiry and issuer, then extracts domain claims
func (c *JWTCodec) Verify(tokenString string) (*domain.Token, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", domain.ErrTokenInvalid)
	}

	token := &domain.Token{
		Subject:   claims.Subject,
		Issuer:    claims.Issuer,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
		TokenID:   claims.ID,
		Claims:    domain.Claims{Role: claims.Role},
	}
	if claims.IssuedAt != nil {
		token.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return token, nil
}
