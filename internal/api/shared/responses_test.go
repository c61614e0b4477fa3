package shared

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/shop-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithJSON(w, r, http.StatusCreated, map[string]string{"id": "42"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"42"}`, w.Body.String())
}

func TestRespondWithError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(SetTraceID(r.Context()))

	RespondWithError(w, r, http.StatusForbidden, "forbidden", "Not allowed")

	assert.Equal(t, http.StatusForbidden, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Not allowed", resp.Error)
	assert.Equal(t, "forbidden", resp.Code)
	assert.Equal(t, GetTraceID(r.Context()), resp.TraceID)
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		opts      []ResponseOption
		wantLevel string
	}{
		{"server error", http.StatusInternalServerError, nil, "ERROR"},
		{"conflict", http.StatusConflict, nil, "WARN"},
		{"bad request", http.StatusBadRequest, nil, "DEBUG"},
		{"elevated bad request", http.StatusBadRequest, []ResponseOption{WithElevatedLogLevel()}, "WARN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx, buf := logger.NewTestContext(t)
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/sales/purchase", nil).WithContext(ctx)

			secret := errors.New("dial tcp postgres://shop:hunter2@db:5432/shop failed")
			RespondWithErrorAndLog(w, r, tc.status, "some_code", "Something went wrong", secret, tc.opts...)

			assert.Equal(t, tc.status, w.Code)
			assert.NotContains(t, w.Body.String(), "hunter2", "raw error must not reach the client")

			entries, err := buf.GetLogEntries()
			require.NoError(t, err)
			require.NotEmpty(t, entries)
			last := entries[len(entries)-1]
			assert.Equal(t, tc.wantLevel, last["level"])
			assert.Equal(t, "API error response", last["msg"])
			assert.NotContains(t, last["error"], "hunter2", "logged error must be redacted")
		})
	}
}

func TestErrorLogLevel(t *testing.T) {
	elevated := responseOptions{elevateLogLevel: true}

	assert.Equal(t, slog.LevelError, errorLogLevel(http.StatusServiceUnavailable, elevated))
	assert.Equal(t, slog.LevelWarn, errorLogLevel(http.StatusConflict, responseOptions{}))
	assert.Equal(t, slog.LevelDebug, errorLogLevel(http.StatusNotFound, responseOptions{}))
	assert.Equal(t, slog.LevelWarn, errorLogLevel(http.StatusUnauthorized, elevated))
	assert.Equal(t, slog.LevelDebug, errorLogLevel(http.StatusOK, elevated))
}
