package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
)

type signingKey struct {
	kid  string
	priv *rsa.PrivateKey
}

func newSigningKey(t *testing.T, kid string) signingKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return signingKey{kid: kid, priv: priv}
}

// jwksServer serves whatever keys are currently published and counts hits.
type jwksServer struct {
	*httptest.Server
	mu     sync.Mutex
	keys   []signingKey
	status int
	hits   atomic.Int32
}

func newJWKSServer(t *testing.T, keys ...signingKey) *jwksServer {
	t.Helper()
	s := &jwksServer{keys: keys, status: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.hits.Add(1)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.status != http.StatusOK {
			w.WriteHeader(s.status)
			return
		}
		set := jose.JSONWebKeySet{}
		for _, k := range s.keys {
			set.Keys = append(set.Keys, jose.JSONWebKey{Key: &k.priv.PublicKey, KeyID: k.kid, Algorithm: "RS256", Use: "sig"})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *jwksServer) publish(keys ...signingKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = keys
}

func (s *jwksServer) fail(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

type refreshCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *refreshCounter) RecordJWKSRefresh(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[outcome]++
}

func TestKeySetLoadsLazilyAndCaches(t *testing.T) {
	k1 := newSigningKey(t, "k1")
	srv := newJWKSServer(t, k1)
	rec := &refreshCounter{}
	ks := NewKeySet(srv.URL, KeySetOptions{MinRefresh: time.Minute, Recorder: rec})

	assert.False(t, ks.Loaded())

	key, err := ks.Key(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, &k1.priv.PublicKey, key)

	_, err = ks.Key(context.Background(), "k1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, srv.hits.Load())
	assert.Equal(t, 1, rec.counts["ok"])
}

func TestKeySetRefreshesOnUnknownKidWithinLimit(t *testing.T) {
	k1, k2 := newSigningKey(t, "k1"), newSigningKey(t, "k2")
	srv := newJWKSServer(t, k1)
	ks := NewKeySet(srv.URL, KeySetOptions{MinRefresh: time.Minute})
	now := time.Now()
	ks.now = func() time.Time { return now }

	_, err := ks.Key(context.Background(), "k1")
	require.NoError(t, err)

	srv.publish(k1, k2)

	// Inside the refresh window an unknown kid does not hit the endpoint.
	_, err = ks.Key(context.Background(), "k2")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	assert.EqualValues(t, 1, srv.hits.Load())

	now = now.Add(2 * time.Minute)
	key, err := ks.Key(context.Background(), "k2")
	require.NoError(t, err)
	assert.Equal(t, &k2.priv.PublicKey, key)
	assert.EqualValues(t, 2, srv.hits.Load())

	now = now.Add(2 * time.Minute)
	_, err = ks.Key(context.Background(), "k3")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestKeySetUnavailableWithoutCachedKeys(t *testing.T) {
	srv := newJWKSServer(t)
	srv.fail(http.StatusInternalServerError)
	rec := &refreshCounter{}
	ks := NewKeySet(srv.URL, KeySetOptions{Recorder: rec})

	_, err := ks.Key(context.Background(), "k1")
	assert.ErrorIs(t, err, auth.ErrProviderUnavailable)
	assert.Equal(t, 1, rec.counts["error"])
}

func TestKeySetKeepsCachedKeysWhenRefreshFails(t *testing.T) {
	k1 := newSigningKey(t, "k1")
	srv := newJWKSServer(t, k1)
	ks := NewKeySet(srv.URL, KeySetOptions{})

	_, err := ks.Key(context.Background(), "k1")
	require.NoError(t, err)

	srv.fail(http.StatusBadGateway)
	_, err = ks.Key(context.Background(), "other")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = ks.Key(context.Background(), "k1")
	assert.NoError(t, err)
}

func TestKeySetConcurrentLookups(t *testing.T) {
	k1 := newSigningKey(t, "k1")
	srv := newJWKSServer(t, k1)
	ks := NewKeySet(srv.URL, KeySetOptions{MinRefresh: time.Minute})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ks.Key(context.Background(), "k1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, srv.hits.Load(), int32(32))
	assert.True(t, ks.Loaded())
}
