package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthChecker_NilServerContext(t *testing.T) {
	h := NewHealthChecker(nil)
	assert.True(t, h.IsReady())

	rec, body := serve(t, h.DetailedHealthHandler())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, healthStatusOK, body["status"])
	assert.Equal(t, guidelinesDisabled, body["guidelines"])
	assert.NotContains(t, body, "mailbox_domain")
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name           string
		notReady       bool
		shutdown       bool
		wantCode       int
		wantDetailed   string
		wantReadyCheck string
	}{
		{name: "ready", wantCode: http.StatusOK, wantDetailed: healthStatusOK, wantReadyCheck: healthStatusOK},
		{name: "not ready", notReady: true, wantCode: http.StatusServiceUnavailable, wantDetailed: healthStatusNotReady, wantReadyCheck: healthStatusNotReady},
		{name: "shut down", shutdown: true, wantCode: http.StatusServiceUnavailable, wantDetailed: healthStatusShuttingDown, wantReadyCheck: healthStatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t, &fakeMailbox{account: "me@example.com"})
			h := NewHealthChecker(sc)
			if tt.notReady {
				h.SetReady(false)
			}
			if tt.shutdown {
				require.NoError(t, sc.Shutdown())
			}

			assert.Equal(t, tt.wantCode == http.StatusOK, h.IsReady())

			rec, body := serve(t, h.ReadinessHandler())
			assert.Equal(t, tt.wantCode, rec.Code)
			checks := body["checks"].(map[string]interface{})
			assert.Equal(t, tt.wantReadyCheck, checks["ready"])

			rec, body = serve(t, h.DetailedHealthHandler())
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantDetailed, body["status"])
			assert.Equal(t, "example.com", body["mailbox_domain"])

			rec, _ = serve(t, h.LivenessHandler())
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}
