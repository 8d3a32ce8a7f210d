package auth

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is the wire shape of the token payload.
type tokenClaims struct {
	jwt.RegisteredClaims
	Permissions []string `json:"permissions"`
}

// DecodedClaims is the identity and permission set of a verified token. It is
// only produced by Verifier, so holding one means the token passed signature
// and claim checks.
type DecodedClaims struct {
	subject        string
	permissions    []string
	hasPermissions bool
	expiresAt      time.Time
	issuer         string
	audience       []string
}

func newDecodedClaims(c *tokenClaims) *DecodedClaims {
	d := &DecodedClaims{
		subject:        c.Subject,
		hasPermissions: c.Permissions != nil,
		issuer:         c.Issuer,
		audience:       slices.Clone([]string(c.Audience)),
	}
	if c.Permissions != nil {
		d.permissions = append(make([]string, 0, len(c.Permissions)), c.Permissions...)
	}
	if c.ExpiresAt != nil {
		d.expiresAt = c.ExpiresAt.Time
	}
	return d
}

// Subject returns the "sub" claim.
func (c *DecodedClaims) Subject() string { return c.subject }

// Permissions returns a copy of the permission claim in token order.
// Duplicates are kept as issued.
func (c *DecodedClaims) Permissions() []string { return slices.Clone(c.permissions) }

// ExpiresAt returns the "exp" claim.
func (c *DecodedClaims) ExpiresAt() time.Time { return c.expiresAt }

// Issuer returns the "iss" claim.
func (c *DecodedClaims) Issuer() string { return c.issuer }

// Audience returns the "aud" claim.
func (c *DecodedClaims) Audience() []string { return slices.Clone(c.audience) }

// Has reports whether permission is granted. Matching is exact: no prefixes,
// wildcards or case folding.
func (c *DecodedClaims) Has(permission string) bool {
	return slices.Contains(c.permissions, permission)
}

// Require checks a single required permission. A token without a permissions
// claim is a token-shape defect and is reported separately from a denial.
func (c *DecodedClaims) Require(permission string) error {
	if !c.hasPermissions {
		return ErrPermissionsClaimMissing
	}
	if !c.Has(permission) {
		return newError(KindPermissionDenied, fmt.Sprintf("permission %q not found", permission), nil)
	}
	return nil
}

type claimsKey struct{}

// WithClaims adds verified claims to the context
func WithClaims(ctx context.Context, claims *DecodedClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext retrieves verified claims from context
func ClaimsFromContext(ctx context.Context) (*DecodedClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*DecodedClaims)
	return claims, ok && claims != nil
}
