package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrKeyNotFound means the key-set document was fetched but contained no
	// entry for the requested key ID.
	ErrKeyNotFound = errors.New("key not found in key set")

	// ErrKeySetUnreachable means the key-set document could not be fetched.
	ErrKeySetUnreachable = errors.New("key set unreachable")
)

// KeySetCache resolves public verification keys from remote JWKS documents.
// Resolved keys are cached for the process lifetime; a cache miss always
// triggers a fresh fetch. Concurrent misses for the same key are collapsed
// into a single fetch to bound outbound volume under load.
type KeySetCache struct {
	httpClient *http.Client
	group      singleflight.Group

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey // keyed by keySetURL + "#" + keyID
}

// NewKeySetCache creates a key-set cache whose fetches are bounded by timeout.
func NewKeySetCache(timeout time.Duration) *KeySetCache {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KeySetCache{
		httpClient: &http.Client{Timeout: timeout},
		keys:       make(map[string]*rsa.PublicKey),
	}
}

// Resolve returns the public key identified by keyID within the key set
// published at keySetURL. Fails with ErrKeySetUnreachable when the fetch
// fails and ErrKeyNotFound when the fetched set has no matching entry.
func (c *KeySetCache) Resolve(ctx context.Context, keyID, keySetURL string) (*rsa.PublicKey, error) {
	cacheKey := keySetURL + "#" + keyID

	c.mu.RLock()
	key, ok := c.keys[cacheKey]
	c.mu.RUnlock()
	if ok {
		return key, nil
	}

	v, err, _ := c.group.Do(cacheKey, func() (interface{}, error) {
		return c.fetchKey(ctx, keyID, keySetURL)
	})
	if err != nil {
		return nil, err
	}
	return v.(*rsa.PublicKey), nil
}

// fetchKey fetches the key-set document and caches every parseable entry.
// Racing fetches for the same URL are safe: key material is idempotent per
// key ID, so last-writer-wins inserts cannot corrupt the cache.
func (c *KeySetCache) fetchKey(ctx context.Context, keyID, keySetURL string) (*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, keySetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrKeySetUnreachable, resp.StatusCode)
	}

	var doc struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrKeySetUnreachable, err)
	}

	var found *rsa.PublicKey
	cached := 0
	c.mu.Lock()
	for _, entry := range doc.Keys {
		if entry.Kty != "RSA" || entry.Kid == "" {
			continue
		}
		key, err := parseRSAPublicKey(entry.N, entry.E)
		if err != nil {
			slog.Warn("auth.keyset_entry_unparseable", "kid", entry.Kid, "error", err)
			continue
		}
		c.keys[keySetURL+"#"+entry.Kid] = key
		cached++
		if entry.Kid == keyID {
			found = key
		}
	}
	c.mu.Unlock()

	slog.Debug("key set fetched", "url", keySetURL, "keys", cached)

	if found == nil {
		return nil, fmt.Errorf("%w: kid=%s", ErrKeyNotFound, keyID)
	}
	return found, nil
}

// parseRSAPublicKey builds an RSA public key from base64url JWK components.
func parseRSAPublicKey(nB64, eB64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	if e <= 1 {
		return nil, fmt.Errorf("invalid exponent")
	}

	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}
