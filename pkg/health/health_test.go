package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, h *Handler, path string) (*http.Response, Response) {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Result(), body
}

func TestLivenessAlwaysOK(t *testing.T) {
	h := NewHandler(func() bool { return false })

	resp, body := doRequest(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body.Status)
	assert.False(t, body.CheckedAt.IsZero())
}

func TestReadinessFollowsStore(t *testing.T) {
	ready := false
	h := NewHandler(func() bool { return ready })

	resp, body := doRequest(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "initializing", body.Status)

	ready = true
	resp, body = doRequest(t, h, "/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body.Status)
}
