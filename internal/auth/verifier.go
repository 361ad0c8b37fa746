package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken means no signature token accompanied the request.
	ErrMissingToken = errors.New("missing signature token")

	// ErrMalformedToken means the token could not be structurally decoded or
	// lacks the key ID / key-set location needed for verification.
	ErrMalformedToken = errors.New("malformed signature token")

	// ErrKeyResolutionFailed means the verification key could not be obtained.
	ErrKeyResolutionFailed = errors.New("key resolution failed")

	// ErrSignatureInvalid means the token failed cryptographic verification,
	// including expiry and algorithm downgrade attempts.
	ErrSignatureInvalid = errors.New("signature invalid")
)

// Claim carrying the issuer-published key-set location.
const keySetURLClaim = "publicKeyUrl"

// Config holds the verifier's deployment-scoped settings. Bypass is an
// explicit field here rather than ambient process state so tests can
// instantiate verifiers with bypass on or off independently.
type Config struct {
	// BypassEnabled accepts BypassSentinel in place of a real token.
	BypassEnabled  bool
	BypassSentinel string

	// PinnedKeySetURL, when set, overrides the key-set location carried in
	// the (unverified) token claims. Pinning avoids trusting an attacker-
	// controllable URL; leave empty only when the issuer rotates locations.
	PinnedKeySetURL string
}

// Result is the outcome of a successful verification.
type Result struct {
	Claims jwt.MapClaims

	// Bypassed is true when the bypass sentinel short-circuited
	// verification. Downstream dispatch echoes the reply instead of
	// calling the external API in that case.
	Bypassed bool
}

// Verifier validates signed webhook tokens against dynamically fetched
// public keys.
type Verifier struct {
	cfg  Config
	keys *KeySetCache
}

// NewVerifier creates a Verifier resolving keys through cache.
func NewVerifier(cfg Config, cache *KeySetCache) *Verifier {
	return &Verifier{cfg: cfg, keys: cache}
}

// Verify checks token and returns its claims.
//
// Order of checks:
//  1. bypass sentinel (when enabled): succeeds with empty claims, no fetch
//  2. structural decode: kid header and a usable key-set location required
//  3. key resolution via the key-set cache
//  4. cryptographic verification, RSA family only
func (v *Verifier) Verify(ctx context.Context, token string) (Result, error) {
	if token == "" {
		return Result{}, ErrMissingToken
	}

	if v.cfg.BypassEnabled && token == v.cfg.BypassSentinel {
		slog.Warn("auth.bypass_token_accepted")
		return Result{Claims: jwt.MapClaims{}, Bypassed: true}, nil
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	keyID, ok := parsed.Header["kid"].(string)
	if !ok || keyID == "" {
		return Result{}, fmt.Errorf("%w: no kid header", ErrMalformedToken)
	}

	claims, _ := parsed.Claims.(jwt.MapClaims)
	keySetURL := v.cfg.PinnedKeySetURL
	if keySetURL == "" {
		keySetURL, _ = claims[keySetURLClaim].(string)
		if keySetURL == "" {
			return Result{}, fmt.Errorf("%w: no %s claim", ErrMalformedToken, keySetURLClaim)
		}
		// Trust-on-first-use: the location comes from unverified claims.
		// Pin auth.keyset_url in config wherever the issuer allows it.
		slog.Warn("auth.keyset_url_from_claims", "url", keySetURL)
	}

	publicKey, err := v.keys.Resolve(ctx, keyID, keySetURL)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrKeyResolutionFailed, err)
	}

	verified, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	out, _ := verified.Claims.(jwt.MapClaims)
	return Result{Claims: out}, nil
}
