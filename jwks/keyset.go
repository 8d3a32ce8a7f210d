package jwks

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Document is the JSON Web Key Set as published by the issuer.
type Document struct {
	Keys []JWK `json:"keys"`
}

// JWK is a single JSON Web Key. Only the public parameters are read.
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg,omitempty"`
	Use string `json:"use,omitempty"`

	// RSA
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`

	// EC
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// SigningKey is a verification key selected by its key id. Algorithm is empty
// when the issuer did not pin one.
type SigningKey struct {
	ID        string
	Algorithm string
	Material  interface{}
}

// KeySet is an immutable snapshot of the issuer's keys. A refresh replaces the
// whole snapshot; a KeySet is never modified after construction.
type KeySet struct {
	keys      map[string]SigningKey
	fetchedAt time.Time
}

// Lookup returns the key registered under kid.
func (s *KeySet) Lookup(kid string) (SigningKey, bool) {
	if s == nil {
		return SigningKey{}, false
	}
	key, ok := s.keys[kid]
	return key, ok
}

// Len returns the number of usable keys in the set.
func (s *KeySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// FetchedAt returns when the set was retrieved from the issuer.
func (s *KeySet) FetchedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.fetchedAt
}

var errUnsupportedKey = errors.New("unsupported key")

// NewKeySet converts every usable signing key of doc. Keys that are not meant
// for signatures, lack a kid, or cannot be decoded are reported in skipped and
// left out of the set.
func NewKeySet(doc *Document, fetchedAt time.Time) (set *KeySet, skipped map[string]error) {
	set = &KeySet{
		keys:      make(map[string]SigningKey, len(doc.Keys)),
		fetchedAt: fetchedAt,
	}
	skipped = make(map[string]error)

	for i := range doc.Keys {
		jwk := &doc.Keys[i]
		if jwk.Kid == "" {
			skipped[fmt.Sprintf("#%d", i)] = errors.New("missing kid")
			continue
		}
		if jwk.Use != "" && jwk.Use != "sig" {
			skipped[jwk.Kid] = fmt.Errorf("%w: use %q", errUnsupportedKey, jwk.Use)
			continue
		}
		key, err := jwk.SigningKey()
		if err != nil {
			skipped[jwk.Kid] = err
			continue
		}
		set.keys[jwk.Kid] = key
	}

	return set, skipped
}

// SigningKey converts the JWK into verification key material.
func (k *JWK) SigningKey() (SigningKey, error) {
	raw, err := json.Marshal(k)
	if err != nil {
		return SigningKey{}, fmt.Errorf("failed to encode key: %w", err)
	}
	key, err := jwk.ParseKey(raw)
	if err != nil {
		return SigningKey{}, fmt.Errorf("failed to parse key: %w", err)
	}

	switch key.KeyType() {
	case jwa.RSA:
		var pub rsa.PublicKey
		if err := key.Raw(&pub); err != nil {
			return SigningKey{}, fmt.Errorf("failed to export RSA key: %w", err)
		}
		if pub.N == nil || pub.N.Sign() <= 0 || pub.E < 3 {
			return SigningKey{}, fmt.Errorf("%w: malformed RSA parameters", errUnsupportedKey)
		}
		return SigningKey{ID: k.Kid, Algorithm: k.Alg, Material: &pub}, nil
	case jwa.EC:
		var pub ecdsa.PublicKey
		if err := key.Raw(&pub); err != nil {
			return SigningKey{}, fmt.Errorf("failed to export EC key: %w", err)
		}
		alg, ok := curveAlgorithms[k.Crv]
		if !ok {
			return SigningKey{}, fmt.Errorf("%w: crv %q", errUnsupportedKey, k.Crv)
		}
		if pub.X == nil || pub.Y == nil || !pub.Curve.IsOnCurve(pub.X, pub.Y) {
			return SigningKey{}, fmt.Errorf("%w: point not on curve %s", errUnsupportedKey, k.Crv)
		}
		if k.Alg != "" && k.Alg != alg {
			return SigningKey{}, fmt.Errorf("%w: alg %s does not match curve %s", errUnsupportedKey, k.Alg, k.Crv)
		}
		return SigningKey{ID: k.Kid, Algorithm: alg, Material: &pub}, nil
	default:
		return SigningKey{}, fmt.Errorf("%w: kty %q", errUnsupportedKey, k.Kty)
	}
}

// curveAlgorithms pins the ECDSA algorithm implied by each supported curve.
var curveAlgorithms = map[string]string{
	"P-256": "ES256",
	"P-384": "ES384",
	"P-521": "ES512",
}
