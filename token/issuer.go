package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"github.com/jrsteele09/go-session-audit/users"
)

// Claims carried by every issued token.
type Claims struct {
	UserID string         `json:"userId"`
	Role   users.RoleType `json:"role"`
	jwt.RegisteredClaims
}

// Issuer creates signed, time-bound tokens for a subject and role and parses them back.
// The session audit core treats the result as an opaque string.
type Issuer struct {
	signer  Signer
	expiry  time.Duration
	nowFunc func() time.Time
}

type IssuerOption func(*Issuer)

// WithNowFunc overrides the clock, used by tests.
func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func NewIssuer(signer Signer, expiry time.Duration, options ...IssuerOption) *Issuer {
	i := &Issuer{
		signer: signer,
		expiry: expiry,
	}
	for _, opt := range options {
		opt(i)
	}
	if i.expiry <= 0 {
		i.expiry = 7 * 24 * time.Hour
	}
	if i.nowFunc == nil {
		i.nowFunc = time.Now
	}
	return i
}

// Issue signs a new token. Each call carries a fresh jti, so two tokens for the same
// subject issued in the same second still differ.
func (i *Issuer) Issue(subjectID string, role users.RoleType) (string, error) {
	if subjectID == "" {
		return "", fmt.Errorf("Issuer.Issue: %w: empty subject", apperrors.ErrValidation)
	}
	now := i.nowFunc()
	claims := Claims{
		UserID: subjectID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
			ID:        uuid.New().String(),
		},
	}
	signed, err := i.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("Issuer.Issue: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry. Any failure is reported as ErrInvalidToken.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperrors.ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, i.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(i.nowFunc),
	)
	if err != nil || !parsed.Valid {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "Issuer.Parse: %v", err)
	}
	if claims.UserID == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
