// Package auth mints and validates the portal's session tokens.
//
// Tokens are HS256 JWTs carrying the subject id and email. They are stateless:
// unless a Denylist is configured, a token stays valid until it expires.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/policyportal/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of a session token.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims are the JWT claims of a session token. UserID and Email are the
// subject claims; RegisteredClaims carries sub, jti, iat and exp.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// Subject is what a validated token proves.
type Subject struct {
	ID        string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// Denylist records revoked token ids until their natural expiry.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Issuer signs and validates session tokens with a process-wide key fixed at
// construction. Rotating the key invalidates every outstanding token.
type Issuer struct {
	secret   []byte
	ttl      time.Duration
	denylist Denylist
	now      func() time.Time
}

// NewIssuer builds an Issuer. A non-positive ttl falls back to
// DefaultTokenTTL; denylist may be nil.
func NewIssuer(secret []byte, ttl time.Duration, denylist Denylist) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token signing secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{secret: secret, ttl: ttl, denylist: denylist, now: time.Now}, nil
}

// Issue mints a token for the given subject expiring ttl from now.
func (i *Issuer) Issue(subjectID, subjectEmail string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID: subjectID,
		Email:  subjectEmail,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature and expiry and, when a denylist is configured,
// revocation. Every token problem is reported as common.ErrInvalidToken;
// expiry additionally matches common.ErrTokenExpired. Denylist lookup
// failures are returned as-is.
func (i *Issuer) Validate(ctx context.Context, tokenString string) (*Subject, error) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if i.denylist != nil && claims.ID != "" {
		revoked, err := i.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("denylist lookup: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: revoked", common.ErrInvalidToken)
		}
	}

	return &Subject{
		ID:        claims.UserID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke puts a valid token on the denylist for the rest of its lifetime.
// Without a denylist it only validates the token.
func (i *Issuer) Revoke(ctx context.Context, tokenString string) error {
	subject, err := i.Validate(ctx, tokenString)
	if err != nil {
		return err
	}
	if i.denylist == nil || subject.TokenID == "" {
		return nil
	}

	ttl := subject.ExpiresAt.Sub(i.now())
	if ttl <= 0 {
		return nil
	}
	return i.denylist.Revoke(ctx, subject.TokenID, ttl)
}

func (i *Issuer) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
