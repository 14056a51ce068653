// Package identity resolves bearer tokens into caller identities and manages
// accounts at the external identity provider.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidToken is returned when a bearer token cannot be resolved.
	ErrInvalidToken = errors.New("identity: invalid token")

	// ErrUserExists is returned by SignUp when the email is already registered.
	ErrUserExists = errors.New("identity: user already exists")

	// ErrInvalidCredentials is returned by SignIn on a rejected password.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
)

// Identity is an authenticated caller.
type Identity struct {
	UserID     string
	Email      string
	Name       string
	AdminClaim bool
}

// User is an account known to the provider.
type User struct {
	ID        string
	Email     string
	Name      string
	Phone     string
	CreatedAt time.Time
}

// Token is an access token issued on sign-in.
type Token struct {
	AccessToken string
	TokenType   string
	Expiry      time.Time
}

// Provider is the external identity provider.
type Provider interface {
	// Resolve validates a bearer token and returns its identity.
	Resolve(ctx context.Context, token string) (*Identity, error)

	// SignUp registers an account with a confirmed email.
	SignUp(ctx context.Context, email, password, name, phone string) (*User, error)

	// SignIn exchanges credentials for an access token.
	SignIn(ctx context.Context, email, password string) (*Token, error)

	// ListUsers returns every account of the organisation.
	ListUsers(ctx context.Context) ([]User, error)
}

// AdminPolicy decides whether an identity has administrative rights.
type AdminPolicy struct {
	emails map[string]struct{}
}

// NewAdminPolicy creates a policy granting admin to the given emails and to
// identities carrying the provider's admin claim.
func NewAdminPolicy(emails []string) AdminPolicy {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e = normaliseEmail(e); e != "" {
			set[e] = struct{}{}
		}
	}
	return AdminPolicy{emails: set}
}

// IsAdmin reports whether id is an administrator.
func (p AdminPolicy) IsAdmin(id Identity) bool {
	if id.AdminClaim {
		return true
	}
	_, ok := p.emails[normaliseEmail(id.Email)]
	return ok
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type ctxKey int

const (
	identityKey ctxKey = iota + 1
	adminKey
)

// WithIdentity stores the caller and its admin status in ctx.
func WithIdentity(ctx context.Context, id Identity, admin bool) context.Context {
	ctx = context.WithValue(ctx, identityKey, id)
	return context.WithValue(ctx, adminKey, admin)
}

// FromContext returns the caller stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// IsAdminContext reports whether the caller in ctx was resolved as admin.
func IsAdminContext(ctx context.Context) bool {
	admin, _ := ctx.Value(adminKey).(bool)
	return admin
}
