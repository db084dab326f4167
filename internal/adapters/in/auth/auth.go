// Package auth resolves the acting user of a REST or sync channel request
// from an HS256 bearer token.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/golang-jwt/jwt/v4"
)

// ErrUnauthenticated wraps every token failure.
var ErrUnauthenticated = errors.New("unauthenticated")

// Role decides which endpoints and sync messages an actor may use.
type Role string

const (
	RoleRequester Role = "requester"
	RoleCourier   Role = "courier"
	RoleAdmin     Role = "admin"
)

// Validate rejects unknown roles.
func (r Role) Validate() error {
	switch r {
	case RoleRequester, RoleCourier, RoleAdmin:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a known role", string(r)))
	}
}

// Actor is the authenticated caller.
type Actor struct {
	ID   kernel.UUID
	Role Role
}

// IsCourier reports whether the actor may accept and carry orders.
func (a Actor) IsCourier() bool { return a.Role == RoleCourier }

// IsAdmin reports whether the actor may manage commission accounts.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Claims is the token payload: the subject is the actor id.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies bearer tokens with a shared secret.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

// NewAuthenticator rejects an empty secret.
func NewAuthenticator(secret string) (*Authenticator, error) {
	if secret == "" {
		return nil, errs.NewValueIsRequiredError("jwt secret")
	}
	return &Authenticator{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for actor. It backs the dev token endpoint and tests.
func (a *Authenticator) Issue(actor Actor, ttl time.Duration) (string, error) {
	if err := errors.Join(actor.ID.Validate(), actor.Role.Validate()); err != nil {
		return "", err
	}
	now := a.now()
	claims := Claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse verifies raw and returns the actor it names.
func (a *Authenticator) Parse(raw string) (Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if !token.Valid {
		return Actor{}, ErrUnauthenticated
	}

	id, err := kernel.UUIDFromString(claims.Subject)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: subject: %w", ErrUnauthenticated, err)
	}
	if err := claims.Role.Validate(); err != nil {
		return Actor{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return Actor{ID: id, Role: claims.Role}, nil
}

// FromRequest reads the token from the Authorization header, falling back to
// the token query parameter used by browser WebSocket clients.
func (a *Authenticator) FromRequest(r *http.Request) (Actor, error) {
	raw := ""
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, value, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return Actor{}, fmt.Errorf("%w: malformed authorization header", ErrUnauthenticated)
		}
		raw = strings.TrimSpace(value)
	} else {
		raw = r.URL.Query().Get("token")
	}
	if raw == "" {
		return Actor{}, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}
	return a.Parse(raw)
}
