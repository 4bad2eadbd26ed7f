package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandler() *ErrorHandler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewErrorHandler(logger)
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleErrorWritesProblemJSON(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cot/XAUUSD", nil)

	h.HandleError(rec, req, ErrValidation("window", "unsupported window"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	body := decodeProblem(t, rec)
	assert.Equal(t, TypeValidation, body["type"])
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
	assert.Equal(t, "/api/cot/XAUUSD", body["instance"])
}

func TestErrorToProblemMapping(t *testing.T) {
	h := testHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/cot", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "unsupported symbol",
			err:        UnsupportedSymbolError("DOGEUSD"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeSymbolUnsupported,
		},
		{
			name:       "upstream unavailable",
			err:        ErrUpstreamUnavailable,
			wantStatus: http.StatusBadGateway,
			wantType:   TypeUpstreamUnavailable,
		},
		{
			name:       "validation failure",
			err:        ErrValidation("class", "unknown trader class"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "deadline exceeded maps to timeout",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "cancellation maps to timeout",
			err:        context.Canceled,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "wrapped api error unwraps",
			err:        fmt.Errorf("query failed: %w", ErrSymbolUnsupported),
			wantStatus: http.StatusNotFound,
			wantType:   TypeSymbolUnsupported,
		},
		{
			name:       "unknown error is internal",
			err:        fmt.Errorf("something odd"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := h.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.wantType, p.Type)
			assert.NotEmpty(t, p.Title)
		})
	}
}

func TestProblemDetailsMarshalIncludesExtensions(t *testing.T) {
	p := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "bad window", "/api/cot")
	p.WithExtension("trace_id", "abc-123")
	p.WithExtension("field", "window")

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "abc-123", body["trace_id"])
	assert.Equal(t, "window", body["field"])
	assert.Equal(t, TypeValidation, body["type"])
}

func TestAPIErrorMessage(t *testing.T) {
	err := New(http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "upstream down")
	assert.Equal(t, "upstream down", err.Error())
	assert.Equal(t, http.StatusBadGateway, err.StatusCode)
}
