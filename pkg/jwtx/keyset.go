package jwtx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the identity provider's public verification keys by kid.
// It is safe for concurrent use.
type KeySet struct {
	mu  sync.RWMutex
	pub map[string]any // kid: *rsa.PublicKey | *ecdsa.PublicKey | ed25519.PublicKey
}

func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]any)}
}

// Get returns the public key for kid.
func (k *KeySet) Get(kid string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

func (k *KeySet) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub)
}

// ResetFromJWKS replaces all keys. Keys the set cannot use (encryption keys,
// unsupported curves) are skipped; the set is left untouched when nothing
// usable remains.
func (k *KeySet) ResetFromJWKS(jwks JWKS) error {
	next := make(map[string]any, len(jwks.Keys))
	for _, j := range jwks.Keys {
		if j.Kid == "" || (j.Use != "" && j.Use != "sig") {
			continue
		}
		key, err := j.PublicKey()
		if err != nil {
			continue
		}
		next[j.Kid] = key
	}
	if len(next) == 0 {
		return errors.New("jwtx: no usable signing keys in JWKS")
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub = next
	return nil
}

// RemoteKeySet keeps a KeySet in sync with a JWKS endpoint. Unknown kids
// trigger a refetch, at most once per MinRefresh.
type RemoteKeySet struct {
	URL        string
	HTTPClient *http.Client
	MinRefresh time.Duration

	keys *KeySet

	mu        sync.Mutex
	lastFetch time.Time
}

func NewRemoteKeySet(url string) *RemoteKeySet {
	return &RemoteKeySet{
		URL:        url,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		MinRefresh: time.Minute,
		keys:       NewKeySet(),
	}
}

// Refresh fetches the JWKS and replaces the cached keys.
func (r *RemoteKeySet) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshLocked(ctx)
}

func (r *RemoteKeySet) refreshLocked(ctx context.Context) error {
	r.lastFetch = time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return fmt.Errorf("jwtx: build JWKS request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("jwtx: fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwtx: fetch JWKS: unexpected status %d", resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("jwtx: decode JWKS: %w", err)
	}
	return r.keys.ResetFromJWKS(jwks)
}

// Key returns the key for kid, refetching the set once if kid is unknown.
func (r *RemoteKeySet) Key(ctx context.Context, kid string) (any, error) {
	if key, err := r.keys.Get(kid); err == nil {
		return key, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have refreshed while we waited.
	if key, err := r.keys.Get(kid); err == nil {
		return key, nil
	}
	if !r.lastFetch.IsZero() && time.Since(r.lastFetch) < r.MinRefresh {
		return nil, ErrNoKey
	}
	if err := r.refreshLocked(ctx); err != nil {
		return nil, err
	}
	return r.keys.Get(kid)
}
