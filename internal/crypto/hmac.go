// Package crypto provides HMAC request signing for the transfer gateway and
// password-based encryption for the escrow signing secret.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// HMACAuth holds the credentials for HMAC-authenticated requests against the
// transfer gateway.
type HMACAuth struct {
	Key    string // API key identifying the engine
	Secret string // shared signing secret
}

// Headers returns the authentication headers for a gateway request. The
// signature is HMAC-SHA256(secret, timestamp+method+path+body) encoded as
// base64.
//
// Returned header keys:
//   - X-Arena-Key
//   - X-Arena-Timestamp
//   - X-Arena-Signature
func (h *HMACAuth) Headers(method, path, body string) map[string]string {
	return h.HeadersAt(method, path, body, time.Now().Unix())
}

// HeadersAt is like Headers but lets the caller supply the Unix timestamp
// (useful for deterministic testing).
func (h *HMACAuth) HeadersAt(method, path, body string, unixTS int64) map[string]string {
	ts := strconv.FormatInt(unixTS, 10)

	message := ts + method + path + body
	sig := hmacSHA256Base64([]byte(h.Secret), message)

	return map[string]string{
		"X-Arena-Key":       h.Key,
		"X-Arena-Timestamp": ts,
		"X-Arena-Signature": sig,
	}
}

// Verify reports whether the given signature matches the message components
// under this credential. Comparison is constant-time.
func (h *HMACAuth) Verify(ts, method, path, body, signature string) bool {
	want := hmacSHA256Base64([]byte(h.Secret), ts+method+path+body)
	return hmac.Equal([]byte(want), []byte(signature))
}

// String returns a redacted representation suitable for logging.
func (h *HMACAuth) String() string {
	redact := func(s string) string {
		if len(s) <= 4 {
			return "****"
		}
		return s[:4] + "****"
	}
	return fmt.Sprintf("HMACAuth{key=%s, secret=%s}", redact(h.Key), redact(h.Secret))
}

// hmacSHA256Base64 computes HMAC-SHA256 of message using key and returns the
// result as a base64 standard-encoded string.
func hmacSHA256Base64(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
