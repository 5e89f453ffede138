// Package auth issues and verifies the HS256 access tokens handed out on
// login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/testmart/internal/common"
	"github.com/dmitrijs2005/testmart/internal/server/models"
	"github.com/dmitrijs2005/testmart/internal/timex"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretBytes is the shortest signing secret the issuer accepts.
const MinSecretBytes = 32

// ErrUnauthenticated is the single error Verify returns for any token it
// rejects. It matches common.ErrInvalidToken.
var ErrUnauthenticated = fmt.Errorf("unauthenticated: %w", common.ErrInvalidToken)

// Claims are the registered claims plus the user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// Email is the login handle the token was issued to.
func (c *Claims) Email() string {
	return c.Subject
}

type IssuerConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	Expiry   time.Duration
}

// Validate reports configuration that must stop the server from starting.
func (c IssuerConfig) Validate() error {
	var errs []error
	if len(c.Secret) < MinSecretBytes {
		errs = append(errs, fmt.Errorf("signing secret must be at least %d bytes", MinSecretBytes))
	}
	if c.Issuer == "" {
		errs = append(errs, errors.New("issuer is required"))
	}
	if c.Audience == "" {
		errs = append(errs, errors.New("audience is required"))
	}
	if c.Expiry <= 0 {
		errs = append(errs, errors.New("expiry must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", common.ErrorConfiguration, errors.Join(errs...))
	}
	return nil
}

// Issuer signs and verifies access tokens.
type Issuer struct {
	cfg   IssuerConfig
	clock timex.Clock
}

// NewIssuer validates cfg. A nil clock means the wall clock.
func NewIssuer(cfg IssuerConfig, clock timex.Clock) (*Issuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timex.SystemClock
	}
	return &Issuer{cfg: cfg, clock: clock}, nil
}

// Issue returns a signed token for user and its expiry time.
func (i *Issuer) Issue(user *models.User) (string, time.Time, error) {
	now := i.clock()
	exp := now.Add(i.cfg.Expiry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ID:        uuid.NewString(),
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: user.ID,
	})

	s, err := token.SignedString(i.cfg.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}

// Verify checks signature, algorithm, issuer, audience and expiry with no
// leeway.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return i.cfg.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithAudience(i.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.clock),
	)
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}
	if claims.UserID == "" || claims.Subject == "" {
		return nil, ErrUnauthenticated
	}

	return claims, nil
}
