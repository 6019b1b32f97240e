package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mvillard/patrimoine/internal/core"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, map[string]string{"name": "Bitcoin"})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %s", ct)
	}

	var resp SuccessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok || data["name"] != "Bitcoin" {
		t.Errorf("data = %v", resp.Data)
	}
	if resp.Meta.Timestamp.IsZero() {
		t.Error("meta timestamp missing")
	}
}

func TestError_CodedError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusNotFound, core.WrapError(core.ErrAssetNotFound, errors.New("id abc")))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error.Code != core.ErrAssetNotFound.Code {
		t.Errorf("code = %s, want %s", resp.Error.Code, core.ErrAssetNotFound.Code)
	}
	if resp.Error.Cause != "id abc" {
		t.Errorf("cause = %q, want %q", resp.Error.Cause, "id abc")
	}
}

func TestError_UnknownErrorMasked(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusInternalServerError, errors.New("pq: connection reset"))

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %s, want INTERNAL_ERROR", resp.Error.Code)
	}
	if resp.Error.Cause != "" {
		t.Errorf("internal detail leaked: %q", resp.Error.Cause)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"asset not found", core.ErrAssetNotFound, http.StatusNotFound},
		{"no symbol", core.ErrAssetNoSymbol, http.StatusBadRequest},
		{"no chain", core.ErrNoChain, http.StatusBadRequest},
		{"invalid config", core.ErrConfigInvalid, http.StatusBadRequest},
		{"no history", core.ErrNoHistory, http.StatusNotFound},
		{"exhausted", core.ErrResolutionExhausted, http.StatusBadGateway},
		{"no price data", core.ErrNoPriceData, http.StatusBadGateway},
		{"wrapped not found", core.WrapError(core.ErrAssetNotFound, errors.New("x")), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor = %d, want %d", got, tt.want)
			}
		})
	}
}
