// Package authtest provides a local token issuer for tests. It serves a key
// set over httptest and signs tokens the way the production identity provider
// does.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/upb/casting-agency/jwks"
	"go.uber.org/zap"
)

const (
	// IssuerURL is the "iss" value of issued tokens.
	IssuerURL = "https://casting-test.auth0.com/"
	// Audience is the "aud" value of issued tokens.
	Audience = "casting-agency"
	// Subject is the default "sub" value of issued tokens.
	Subject = "auth0|tester"
)

// Issuer signs RS256 tokens and publishes the matching key set.
type Issuer struct {
	server *httptest.Server

	mu     sync.Mutex
	key    *rsa.PrivateKey
	kid    string
	status int
	hits   atomic.Int64
}

// NewIssuer starts a key set server that is closed when the test ends.
func NewIssuer(t testing.TB) *Issuer {
	t.Helper()
	iss := &Issuer{
		key:    GenerateKey(t),
		kid:    "key-1",
		status: http.StatusOK,
	}
	iss.server = httptest.NewServer(http.HandlerFunc(iss.serveKeys))
	t.Cleanup(iss.server.Close)
	return iss
}

// GenerateKey returns a fresh 2048-bit RSA key.
func GenerateKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return key
}

// JWKSURL is the key set endpoint.
func (i *Issuer) JWKSURL() string { return i.server.URL }

// Hits is the number of key set requests served so far.
func (i *Issuer) Hits() int64 { return i.hits.Load() }

// KeyID is the kid of the current signing key.
func (i *Issuer) KeyID() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.kid
}

// Rotate replaces the signing key. The old key is no longer published.
func (i *Issuer) Rotate(t testing.TB, kid string) {
	t.Helper()
	key := GenerateKey(t)
	i.mu.Lock()
	defer i.mu.Unlock()
	i.key, i.kid = key, kid
}

// SetStatus makes the key set endpoint answer with status.
func (i *Issuer) SetStatus(status int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.status = status
}

// Resolver returns a key resolver pointed at the issuer.
func (i *Issuer) Resolver() *jwks.Resolver {
	return jwks.NewResolver(jwks.Config{URL: i.JWKSURL(), HTTPTimeout: 2 * time.Second}, zap.NewNop())
}

// Claims returns a valid claim set carrying permissions. A nil permissions
// slice leaves the claim out.
func Claims(permissions []string) jwt.MapClaims {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": IssuerURL,
		"aud": Audience,
		"sub": Subject,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	if permissions != nil {
		claims["permissions"] = permissions
	}
	return claims
}

// Token signs a valid token carrying permissions with the current key.
func (i *Issuer) Token(t testing.TB, permissions ...string) string {
	t.Helper()
	if permissions == nil {
		permissions = []string{}
	}
	return i.Sign(t, Claims(permissions))
}

// Sign signs claims with the current key.
func (i *Issuer) Sign(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	i.mu.Lock()
	key, kid := i.key, i.kid
	i.mu.Unlock()
	return SignWith(t, key, kid, claims)
}

// SignWith signs claims with an arbitrary RSA key under kid. An empty kid
// leaves the header field out.
func SignWith(t testing.TB, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// Bearer formats an Authorization header value.
func Bearer(token string) string {
	return "Bearer " + token
}

func (i *Issuer) serveKeys(w http.ResponseWriter, _ *http.Request) {
	i.hits.Add(1)

	i.mu.Lock()
	status, key, kid := i.status, i.key, i.kid
	i.mu.Unlock()

	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}

	doc := jwks.Document{Keys: []jwks.JWK{publicJWK(kid, &key.PublicKey)}}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

// publicJWK encodes an RSA public key as a signing JWK.
func publicJWK(kid string, pub *rsa.PublicKey) jwks.JWK {
	key, err := jwk.FromRaw(pub)
	if err != nil {
		panic(err)
	}
	_ = key.Set(jwk.KeyIDKey, kid)
	_ = key.Set(jwk.AlgorithmKey, jwa.RS256)
	_ = key.Set(jwk.KeyUsageKey, jwk.ForSignature)

	raw, err := json.Marshal(key)
	if err != nil {
		panic(err)
	}
	var out jwks.JWK
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}
