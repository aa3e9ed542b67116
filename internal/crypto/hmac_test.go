package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersAt_Deterministic(t *testing.T) {
	auth := HMACAuth{Key: "engine-key", Secret: "shared-secret"}

	h1 := auth.HeadersAt("POST", "/v1/transfers", `{"amount":"1"}`, 1700000000)
	h2 := auth.HeadersAt("POST", "/v1/transfers", `{"amount":"1"}`, 1700000000)
	assert.Equal(t, h1, h2)

	assert.Equal(t, "engine-key", h1["X-Arena-Key"])
	assert.Equal(t, "1700000000", h1["X-Arena-Timestamp"])
	assert.NotEmpty(t, h1["X-Arena-Signature"])
}

func TestHeadersAt_SignatureCoversAllParts(t *testing.T) {
	auth := HMACAuth{Key: "k", Secret: "s"}
	base := auth.HeadersAt("POST", "/v1/transfers", "body", 1700000000)

	variants := []map[string]string{
		auth.HeadersAt("GET", "/v1/transfers", "body", 1700000000),
		auth.HeadersAt("POST", "/v1/other", "body", 1700000000),
		auth.HeadersAt("POST", "/v1/transfers", "other", 1700000000),
		auth.HeadersAt("POST", "/v1/transfers", "body", 1700000001),
	}
	for i, v := range variants {
		assert.NotEqual(t, base["X-Arena-Signature"], v["X-Arena-Signature"], "variant %d", i)
	}
}

func TestVerify(t *testing.T) {
	auth := HMACAuth{Key: "k", Secret: "s"}
	headers := auth.HeadersAt("POST", "/v1/transfers", "body", 1700000000)

	ok := auth.Verify(headers["X-Arena-Timestamp"], "POST", "/v1/transfers", "body", headers["X-Arena-Signature"])
	assert.True(t, ok)

	assert.False(t, auth.Verify(headers["X-Arena-Timestamp"], "POST", "/v1/transfers", "tampered", headers["X-Arena-Signature"]))

	other := HMACAuth{Key: "k", Secret: "different"}
	assert.False(t, other.Verify(headers["X-Arena-Timestamp"], "POST", "/v1/transfers", "body", headers["X-Arena-Signature"]))
}

func TestString_Redacts(t *testing.T) {
	auth := HMACAuth{Key: "engine-key", Secret: "super-secret-value"}
	s := auth.String()
	assert.NotContains(t, s, "super-secret-value")
	assert.NotContains(t, s, "engine-key")
	assert.Contains(t, s, "engi****")
}

func TestSecretRoundTrip(t *testing.T) {
	blob, err := EncryptSecret("the signing secret", "password123")
	require.NoError(t, err)

	got, err := DecryptSecret(blob, "password123")
	require.NoError(t, err)
	assert.Equal(t, "the signing secret", got)

	_, err = DecryptSecret(blob, "wrong-password")
	assert.Error(t, err)
}
