package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/upb/casting-agency/jwks"
)

// KeyResolver produces the verification key for a key id.
type KeyResolver interface {
	Resolve(ctx context.Context, kid string) (jwks.SigningKey, error)
}

// Config holds configuration for Verifier
type Config struct {
	Issuer     string
	Audience   string
	Algorithms []string      // defaults to RS256
	Leeway     time.Duration // clock skew tolerance
	Now        func() time.Time
}

// Verifier authenticates bearer tokens against the issuer's key set and
// enforces route permissions. It holds no per-request state and is safe for
// concurrent use.
type Verifier struct {
	keys       KeyResolver
	issuer     string
	audience   string
	algorithms map[string]bool
	leeway     time.Duration
	now        func() time.Time
}

// NewVerifier creates a Verifier. Only asymmetric RSA and ECDSA algorithms can
// be allowed; "none" and HMAC are refused.
func NewVerifier(cfg Config, keys KeyResolver) (*Verifier, error) {
	if keys == nil {
		return nil, errors.New("key resolver is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("expected issuer is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("expected audience is required")
	}
	if cfg.Leeway < 0 {
		return nil, errors.New("leeway cannot be negative")
	}
	if len(cfg.Algorithms) == 0 {
		cfg.Algorithms = []string{jwt.SigningMethodRS256.Alg()}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	algorithms := make(map[string]bool, len(cfg.Algorithms))
	for _, alg := range cfg.Algorithms {
		switch jwt.GetSigningMethod(alg).(type) {
		case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS, *jwt.SigningMethodECDSA:
			algorithms[alg] = true
		default:
			return nil, fmt.Errorf("signing algorithm %q is not supported", alg)
		}
	}

	return &Verifier{
		keys:       keys,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		algorithms: algorithms,
		leeway:     cfg.Leeway,
		now:        cfg.Now,
	}, nil
}

// Authorize verifies the Authorization header value and checks that the token
// grants required. It is the single decision point for protected operations.
func (v *Verifier) Authorize(ctx context.Context, header, required string) (*DecodedClaims, error) {
	claims, err := v.Authenticate(ctx, header)
	if err != nil {
		return nil, err
	}
	if err := claims.Require(required); err != nil {
		return nil, err
	}
	return claims, nil
}

// Authenticate verifies the Authorization header value without checking any
// permission.
func (v *Verifier) Authenticate(ctx context.Context, header string) (*DecodedClaims, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return nil, err
	}

	kid, alg, err := v.inspect(raw)
	if err != nil {
		return nil, err
	}

	key, err := v.keys.Resolve(ctx, kid)
	if err != nil {
		switch {
		case errors.Is(err, jwks.ErrUnknownSigningKey):
			return nil, newError(KindUnknownSigningKey, ErrUnknownSigningKey.Description, err)
		case errors.Is(err, jwks.ErrKeySourceUnavailable):
			return nil, newError(KindKeySourceUnavailable, ErrKeySourceUnavailable.Description, err)
		default:
			return nil, newError(KindTokenMalformed, "unable to resolve signing key", err)
		}
	}
	if err := keyMatches(key, alg); err != nil {
		return nil, newError(KindTokenMalformed, "signing key does not match token algorithm", err)
	}

	return v.verify(raw, alg, key)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. The scheme is case-insensitive; exactly one token must follow.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", newError(KindAuthorizationHeaderInvalid, "authorization header is expected", nil)
	}

	parts := strings.Fields(header)
	if !strings.EqualFold(parts[0], "bearer") {
		return "", newError(KindAuthorizationHeaderInvalid, `authorization header must start with "Bearer"`, nil)
	}
	switch len(parts) {
	case 1:
		return "", newError(KindAuthorizationHeaderInvalid, "token not found", nil)
	case 2:
		return parts[1], nil
	default:
		return "", newError(KindAuthorizationHeaderInvalid, "authorization header must be a bearer token", nil)
	}
}

// inspect decodes the token without verifying it and rejects structural and
// algorithm defects before any key lookup. An exp already in the past is
// reported here too; unverified data is only ever used to reject.
func (v *Verifier) inspect(raw string) (kid, alg string, err error) {
	claims := &tokenClaims{}
	token, _, err := jwt.NewParser().ParseUnverified(raw, claims)
	if err != nil {
		return "", "", newError(KindTokenMalformed, "unable to parse authentication token", err)
	}

	alg, _ = token.Header["alg"].(string)
	if !v.algorithms[alg] {
		return "", "", newError(KindTokenMalformed, fmt.Sprintf("signing algorithm %q is not accepted", alg), nil)
	}

	kid, _ = token.Header["kid"].(string)
	if kid == "" {
		return "", "", newError(KindTokenMalformed, "token header has no key id", nil)
	}

	if claims.ExpiresAt != nil && !v.now().Before(claims.ExpiresAt.Add(v.leeway)) {
		return "", "", newError(KindTokenExpired, ErrTokenExpired.Description, jwt.ErrTokenExpired)
	}

	return kid, alg, nil
}

func (v *Verifier) verify(raw, alg string, key jwks.SigningKey) (*DecodedClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{alg}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)

	claims := &tokenClaims{}
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return key.Material, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, newError(KindInvalidSignature, ErrInvalidSignature.Description, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, newError(KindTokenExpired, ErrTokenExpired.Description, err)
		case errors.Is(err, jwt.ErrTokenInvalidClaims):
			return nil, newError(KindInvalidClaims, ErrInvalidClaims.Description, err)
		default:
			return nil, newError(KindTokenMalformed, "unable to parse authentication token", err)
		}
	}

	return newDecodedClaims(claims), nil
}

// keyMatches checks the key against the token's algorithm so an RSA key is
// never handed to an ECDSA verifier or the other way round.
func keyMatches(key jwks.SigningKey, alg string) error {
	if key.Algorithm != "" && key.Algorithm != alg {
		return fmt.Errorf("key %s is pinned to %s", key.ID, key.Algorithm)
	}
	switch jwt.GetSigningMethod(alg).(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS:
		if _, ok := key.Material.(*rsa.PublicKey); !ok {
			return fmt.Errorf("key %s is not an RSA key", key.ID)
		}
	case *jwt.SigningMethodECDSA:
		if _, ok := key.Material.(*ecdsa.PublicKey); !ok {
			return fmt.Errorf("key %s is not an ECDSA key", key.ID)
		}
	default:
		return fmt.Errorf("algorithm %s is not supported", alg)
	}
	return nil
}
