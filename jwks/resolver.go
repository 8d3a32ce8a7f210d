package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/upb/casting-agency/metrics"
	"go.uber.org/zap"
)

var (
	// ErrKeySourceUnavailable is returned when the key set cannot be fetched or parsed
	ErrKeySourceUnavailable = errors.New("key source unavailable")

	// ErrUnknownSigningKey is returned when a key id is absent even after a refresh
	ErrUnknownSigningKey = errors.New("unknown signing key")
)

// maxDocumentSize bounds the key set response body.
const maxDocumentSize = 1 << 20

// Config holds configuration for Resolver
type Config struct {
	URL         string
	HTTPTimeout time.Duration
	CacheTTL    time.Duration // 0 disables proactive refresh
	HTTPClient  *http.Client  // optional; overrides HTTPTimeout
}

// Stats describes the current cache generation.
type Stats struct {
	Keys      int       `json:"keys"`
	FetchedAt time.Time `json:"fetched_at"`
	Refreshes int64     `json:"refreshes"`
	Failures  int64     `json:"failures"`
}

// Resolver fetches the issuer's key set and resolves key ids against it.
//
// Readers load the current KeySet without locking. Refreshes are serialized
// through sem and publish a complete new KeySet with a single atomic store,
// so a reader never sees a partially built set.
type Resolver struct {
	url        string
	httpClient *http.Client
	cacheTTL   time.Duration
	logger     *zap.Logger

	keys atomic.Pointer[KeySet]
	sem  chan struct{}

	refreshes atomic.Int64
	failures  atomic.Int64
}

// NewResolver creates a Resolver. The key set is fetched lazily on the first
// Resolve unless Prime is called.
func NewResolver(cfg Config, logger *zap.Logger) *Resolver {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 5 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		url:        cfg.URL,
		httpClient: client,
		cacheTTL:   cfg.CacheTTL,
		logger:     logger,
		sem:        make(chan struct{}, 1),
	}
}

// Resolve returns the key registered under kid. A miss triggers exactly one
// refresh before ErrUnknownSigningKey is returned.
func (r *Resolver) Resolve(ctx context.Context, kid string) (SigningKey, error) {
	current := r.keys.Load()
	if key, ok := current.Lookup(kid); ok && !r.stale(current) {
		return key, nil
	}

	fresh, err := r.refreshAfter(ctx, current)
	if err != nil {
		// A stale set is still better than nothing while the issuer is down.
		if key, ok := current.Lookup(kid); ok {
			r.logger.Warn("serving key from stale key set",
				zap.String("kid", kid),
				zap.Error(err))
			return key, nil
		}
		return SigningKey{}, err
	}

	if key, ok := fresh.Lookup(kid); ok {
		return key, nil
	}
	return SigningKey{}, fmt.Errorf("%w: kid %q", ErrUnknownSigningKey, kid)
}

// Refresh unconditionally fetches the key set and replaces the cache.
func (r *Resolver) Refresh(ctx context.Context) error {
	if err := r.acquire(ctx); err != nil {
		return err
	}
	defer r.release()

	_, err := r.fetch(ctx)
	return err
}

// Prime performs the initial fetch. Failure leaves the cache empty; the next
// Resolve retries.
func (r *Resolver) Prime(ctx context.Context) {
	if err := r.Refresh(ctx); err != nil {
		r.logger.Warn("initial key set fetch failed", zap.String("url", r.url), zap.Error(err))
	}
}

// Stats returns cache statistics
func (r *Resolver) Stats() Stats {
	current := r.keys.Load()
	return Stats{
		Keys:      current.Len(),
		FetchedAt: current.FetchedAt(),
		Refreshes: r.refreshes.Load(),
		Failures:  r.failures.Load(),
	}
}

// refreshAfter refreshes unless another caller already replaced seen while
// this one waited for the refresh slot.
func (r *Resolver) refreshAfter(ctx context.Context, seen *KeySet) (*KeySet, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.release()

	if current := r.keys.Load(); current != seen && !r.stale(current) {
		return current, nil
	}
	return r.fetch(ctx)
}

func (r *Resolver) acquire(ctx context.Context) error {
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrKeySourceUnavailable, ctx.Err())
	}
}

func (r *Resolver) release() {
	<-r.sem
}

func (r *Resolver) stale(set *KeySet) bool {
	if set == nil {
		return true
	}
	return r.cacheTTL > 0 && time.Since(set.FetchedAt()) > r.cacheTTL
}

// fetch must be called while holding the refresh slot.
func (r *Resolver) fetch(ctx context.Context) (*KeySet, error) {
	start := time.Now()
	r.refreshes.Add(1)

	set, err := r.download(ctx)
	metrics.JWKSRefreshDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		r.failures.Add(1)
		metrics.JWKSRefreshes.WithLabelValues("failure").Inc()
		r.logger.Warn("key set refresh failed", zap.String("url", r.url), zap.Error(err))
		return nil, err
	}

	r.keys.Store(set)
	metrics.JWKSRefreshes.WithLabelValues("success").Inc()
	metrics.JWKSKeys.Set(float64(set.Len()))
	r.logger.Info("key set refreshed",
		zap.String("url", r.url),
		zap.Int("keys", set.Len()),
		zap.Duration("took", time.Since(start)))

	return set, nil
}

func (r *Resolver) download(ctx context.Context) (*KeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrKeySourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrKeySourceUnavailable, resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentSize)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: failed to decode key set: %v", ErrKeySourceUnavailable, err)
	}

	set, skipped := NewKeySet(&doc, time.Now())
	for kid, reason := range skipped {
		r.logger.Debug("skipping key", zap.String("kid", kid), zap.Error(reason))
	}
	if set.Len() == 0 {
		return nil, fmt.Errorf("%w: key set contains no usable signing keys", ErrKeySourceUnavailable)
	}

	return set, nil
}
