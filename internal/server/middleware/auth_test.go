package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func identityEcho() (http.Handler, *string) {
	var got string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Identity(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return h, &got
}

func TestAuth_DisabledWithoutKeys(t *testing.T) {
	next, got := identityEcho()
	h := Auth(nil, "", "")(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, *got)
}

func TestAuth_BearerToken(t *testing.T) {
	next, got := identityEcho()
	h := Auth(map[string]string{"key-abc": "alice"}, "", "")(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer key-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", *got)
}

func TestAuth_APIKeyHeader(t *testing.T) {
	next, got := identityEcho()
	h := Auth(map[string]string{"key-abc": "alice"}, "", "")(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "key-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", *got)
}

func TestAuth_AdminKey(t *testing.T) {
	next, got := identityEcho()
	h := Auth(map[string]string{"key-abc": "alice"}, "admin-key", "authority")(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer admin-key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "authority", *got)
}

func TestAuth_RejectsUnknownAndMissingTokens(t *testing.T) {
	next, _ := identityEcho()
	h := Auth(map[string]string{"key-abc": "alice"}, "", "")(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
