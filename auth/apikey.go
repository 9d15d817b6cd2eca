package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/textproto"
	"strings"
)

const (
	headerAuthorization = "Authorization"
	headerAPIKey        = "X-API-Key"
	headerOrigin        = "Origin"
	headerReferer       = "Referer"

	bearerPrefix = "Bearer "
)

// credential is the secret presented by a request.
type credential struct {
	value  string
	bearer bool // taken from the Authorization header
}

// extractCredential reads "Authorization: Bearer <key>", falling back to
// X-API-Key. The bearer scheme is matched case-sensitively.
func extractCredential(headers map[string][]string) (credential, bool) {
	if v, ok := strings.CutPrefix(headerValue(headers, headerAuthorization), bearerPrefix); ok {
		return credential{value: v, bearer: true}, v != ""
	}
	if v := headerValue(headers, headerAPIKey); v != "" {
		return credential{value: v}, true
	}
	return credential{}, false
}

// requestOrigin returns the Origin header, or Referer when Origin is absent.
func requestOrigin(headers map[string][]string) string {
	if o := headerValue(headers, headerOrigin); o != "" {
		return o
	}
	return headerValue(headers, headerReferer)
}

// headerValue returns the first value of a header, matching the name
// case-insensitively.
func headerValue(headers map[string][]string, name string) string {
	if len(headers) == 0 {
		return ""
	}
	if values := headers[textproto.CanonicalMIMEHeaderKey(name)]; len(values) > 0 {
		return values[0]
	}
	for k, values := range headers {
		if strings.EqualFold(k, name) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// originAllowed reports whether origin matches one of the allowed patterns:
// "*", a prefix ending in "*", or an exact value.
func originAllowed(allowed []string, origin string) bool {
	for _, pattern := range allowed {
		if pattern == "*" {
			return true
		}
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(origin, prefix) {
				return true
			}
			continue
		}
		if origin == pattern {
			return true
		}
	}
	return false
}

// keyring holds digests of the accepted API keys.
type keyring struct {
	digests [][sha256.Size]byte
}

func newKeyring(keys []string) keyring {
	kr := keyring{digests: make([][sha256.Size]byte, 0, len(keys))}
	for _, k := range keys {
		if k == "" {
			continue
		}
		kr.digests = append(kr.digests, sha256.Sum256([]byte(k)))
	}
	return kr
}

// contains compares key against every registered key in constant time.
func (kr keyring) contains(key string) bool {
	d := sha256.Sum256([]byte(key))
	found := 0
	for i := range kr.digests {
		found |= subtle.ConstantTimeCompare(d[:], kr.digests[i][:])
	}
	return found == 1
}

func (kr keyring) len() int {
	return len(kr.digests)
}

// HashAPIKey returns the hex SHA-256 digest of an API key.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// ClientID returns the display identifier for a credential: "client_"
// followed by the first 8 hex digits of its SHA-256 digest. It identifies a
// credential in logs without revealing it.
func ClientID(key string) string {
	return "client_" + HashAPIKey(key)[:8]
}
