package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
)

const maxJWKSBytes = 1 << 20

// RefreshRecorder counts key set refresh attempts by outcome.
type RefreshRecorder interface {
	RecordJWKSRefresh(outcome string)
}

// KeySetOptions configures a KeySet.
type KeySetOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	MinRefresh time.Duration
	Logger     *zap.Logger
	Recorder   RefreshRecorder
}

// KeySet caches the provider's public signing keys by kid. The key map is
// replaced wholesale on refresh and never mutated in place.
type KeySet struct {
	url        string
	client     *http.Client
	timeout    time.Duration
	minRefresh time.Duration
	logger     *zap.Logger
	recorder   RefreshRecorder
	now        func() time.Time

	mu          sync.RWMutex
	keys        map[string]any
	lastAttempt time.Time

	group singleflight.Group
}

// NewKeySet builds an empty key set; keys are fetched on first use.
func NewKeySet(url string, opts KeySetOptions) *KeySet {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.MinRefresh < 0 {
		opts.MinRefresh = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &KeySet{
		url:        url,
		client:     opts.HTTPClient,
		timeout:    opts.Timeout,
		minRefresh: opts.MinRefresh,
		logger:     opts.Logger,
		recorder:   opts.Recorder,
		now:        time.Now,
	}
}

// Key returns the public key for kid. An unknown kid triggers at most one
// refresh per MinRefresh window.
func (k *KeySet) Key(ctx context.Context, kid string) (any, error) {
	if key, ok := k.lookup(kid); ok {
		return key, nil
	}
	if !k.refreshDue() {
		return nil, auth.ErrInvalidToken.WithMessage("unknown signing key")
	}

	if err := k.Refresh(ctx); err != nil {
		if !k.Loaded() {
			return nil, auth.ErrProviderUnavailable.WithMessage("signing keys are unavailable").Wrap(err)
		}
		k.logger.Warn("jwks refresh failed, using cached keys", zap.Error(err))
	}

	if key, ok := k.lookup(kid); ok {
		return key, nil
	}
	return nil, auth.ErrInvalidToken.WithMessage("unknown signing key")
}

// Refresh fetches the key set. Concurrent callers share one request.
func (k *KeySet) Refresh(ctx context.Context) error {
	_, err, _ := k.group.Do("jwks", func() (any, error) {
		k.mu.Lock()
		k.lastAttempt = k.now()
		k.mu.Unlock()

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), k.timeout)
		defer cancel()

		keys, err := k.fetch(fetchCtx)
		if err != nil {
			k.record("error")
			return nil, err
		}

		k.mu.Lock()
		k.keys = keys
		k.mu.Unlock()
		k.record("ok")
		k.logger.Info("jwks refreshed", zap.Int("keys", len(keys)))
		return nil, nil
	})
	return err
}

// Loaded reports whether any keys have been fetched successfully.
func (k *KeySet) Loaded() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.keys != nil
}

func (k *KeySet) lookup(kid string) (any, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	key, ok := k.keys[kid]
	return key, ok
}

func (k *KeySet) refreshDue() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.keys == nil {
		return true
	}
	return k.now().Sub(k.lastAttempt) >= k.minRefresh
}

func (k *KeySet) fetch(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := k.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJWKSBytes)).Decode(&set); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]any, len(set.Keys))
	for _, key := range set.Keys {
		if key.KeyID == "" || !key.Valid() || !key.IsPublic() {
			continue
		}
		if key.Use != "" && key.Use != "sig" {
			continue
		}
		keys[key.KeyID] = key.Key
	}
	if len(keys) == 0 {
		return nil, errors.New("jwks contains no usable signing keys")
	}
	return keys, nil
}

func (k *KeySet) record(outcome string) {
	if k.recorder != nil {
		k.recorder.RecordJWKSRefresh(outcome)
	}
}
