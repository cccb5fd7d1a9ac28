package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iwvelando/hp12c/internal/calculator"
	"github.com/iwvelando/hp12c/pkg/format"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, maxKeys int) http.Handler {
	t.Helper()
	formatter, err := format.NewFormatter("en")
	if err != nil {
		t.Fatalf("failed to create formatter: %v", err)
	}
	engine := calculator.NewEngine(zap.NewNop(), calculator.Options{Precision: 2})
	session := calculator.NewSession(zap.NewNop(), engine, formatter, 10)
	return NewHandler(zap.NewNop(), session, maxKeys, "test-version")
}

func pressKeys(t *testing.T, handler http.Handler, keys ...string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(keysRequest{Keys: keys})
	if err != nil {
		t.Fatalf("failed to encode request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/keys", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func getState(t *testing.T, handler http.Handler) calculator.Snapshot {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var snap calculator.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	return snap
}

func TestHandleKeysSuccess(t *testing.T) {
	handler := newTestHandler(t, 0)

	rr := pressKeys(t, handler, "1", "0", "0", "enter", "5", "0", "+")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var resp keysResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Pressed != 7 {
		t.Errorf("expected 7 keys pressed, got %d", resp.Pressed)
	}
	if resp.State.Display != "150.00" {
		t.Errorf("expected display 150.00, got %q", resp.State.Display)
	}

	// State persists between requests.
	rr = pressKeys(t, handler, "2", "×")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if snap := getState(t, handler); snap.Display != "300.00" {
		t.Errorf("expected display 300.00, got %q", snap.Display)
	}
}

func TestHandleKeysErrorDisplay(t *testing.T) {
	handler := newTestHandler(t, 0)

	rr := pressKeys(t, handler, "0", "1/x")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"display":"Error"`) {
		t.Errorf("expected error display in %s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"x":null`) {
		t.Errorf("expected null X in %s", rr.Body.String())
	}
}

func TestHandleKeysUnknownKey(t *testing.T) {
	handler := newTestHandler(t, 0)
	pressKeys(t, handler, "4", "2")

	rr := pressKeys(t, handler, "enter", "sin")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp["error"], "sin") {
		t.Errorf("expected error to name the key, got %q", resp["error"])
	}

	snap := getState(t, handler)
	if !snap.Entering || snap.Display != "42" {
		t.Errorf("expected the session to still be entering 42, got %+v", snap)
	}
}

func TestHandleKeysInvalidJSON(t *testing.T) {
	handler := newTestHandler(t, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/keys", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleKeysTooManyKeys(t *testing.T) {
	handler := newTestHandler(t, 2)

	rr := pressKeys(t, handler, "1", "2", "3")
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
	if snap := getState(t, handler); snap.Entering || snap.Display != "0.00" {
		t.Errorf("rejected request changed the session: %+v", snap)
	}

	if rr := pressKeys(t, handler, "4", "2"); rr.Code != http.StatusOK {
		t.Errorf("expected status 200 at the key limit, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleKeysBodyTooLarge(t *testing.T) {
	handler := newTestHandler(t, 2)

	rr := pressKeys(t, handler, strings.Repeat("1", int(KeysBodyLimit(2))))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleKeysMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/keys", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestHandleReset(t *testing.T) {
	handler := newTestHandler(t, 0)
	pressKeys(t, handler, "7", "enter", "f", "4")

	req := httptest.NewRequest(http.MethodPost, "/api/reset", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	snap := getState(t, handler)
	if snap.Display != "0.00" || snap.Precision != 2 {
		t.Errorf("expected power-on state after reset, got %+v", snap)
	}
}

func TestHandleHistory(t *testing.T) {
	handler := newTestHandler(t, 0)
	pressKeys(t, handler, "2", "enter", "3", "+", "4", "×")

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp struct {
		History []struct {
			Operation string  `json:"operation"`
			Result    float64 `json:"result"`
		} `json:"history"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if len(resp.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(resp.History))
	}
	if resp.History[1].Operation != "×" || resp.History[1].Result != 20 {
		t.Errorf("unexpected last history entry %+v", resp.History[1])
	}
}

func TestHandleContext(t *testing.T) {
	handler := newTestHandler(t, 0)
	pressKeys(t, handler, "1", "2", "n")

	req := httptest.NewRequest(http.MethodGet, "/api/context", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp struct {
		SessionID string `json:"sessionId"`
		State     struct {
			Memory struct {
				N float64 `json:"n"`
			} `json:"memory"`
		} `json:"state"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode context: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("expected a session ID in the context")
	}
	if resp.State.Memory.N != 12 {
		t.Errorf("expected n = 12 in the context memory, got %v", resp.State.Memory.N)
	}
}

func TestHandleAmortization(t *testing.T) {
	handler := newTestHandler(t, 0)
	pressKeys(t, handler, "3", "6", "0", "n", ".", "3", "7", "5", "i",
		"1", "7", "5", "0", "0", "0", "pv", "8", "8", "6", ".", "7", "chs", "pmt")
	before := getState(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/amortization?payments=3", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Payments int     `json:"payments"`
		Balance  float64 `json:"balance"`
		Schedule []struct {
			Number   int     `json:"number"`
			Interest float64 `json:"interest"`
		} `json:"schedule"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode amortization: %v", err)
	}
	if resp.Payments != 3 || len(resp.Schedule) != 3 {
		t.Fatalf("expected 3 payments, got %+v", resp)
	}
	if resp.Schedule[0].Interest != -656.25 {
		t.Errorf("expected first interest -656.25, got %v", resp.Schedule[0].Interest)
	}
	if resp.Balance < 174306.05 || resp.Balance > 174306.07 {
		t.Errorf("expected balance 174306.06, got %v", resp.Balance)
	}

	if after := getState(t, handler); after.Memory != before.Memory {
		t.Errorf("amortization preview changed memory: %+v", after.Memory)
	}
}

func TestHandleAmortizationInvalid(t *testing.T) {
	handler := newTestHandler(t, 0)

	for _, query := range []string{"", "?payments=abc", "?payments=0", "?payments=2.5"} {
		req := httptest.NewRequest(http.MethodGet, "/api/amortization"+query, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%q: expected status 400, got %d", query, rr.Code)
		}
	}
}

func TestHandleAmortizationOverflow(t *testing.T) {
	handler := newTestHandler(t, 0)
	pressKeys(t, handler, "1", "0", "enter", "3", "0", "0", "yx", "sto", "i",
		"1", "0", "0", "0", "0", "0", "0", "0", "0", "0", "pv", "1", "chs", "pmt")

	req := httptest.NewRequest(http.MethodGet, "/api/amortization?payments=1", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleVersion(t *testing.T) {
	handler := newTestHandler(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode version response: %v", err)
	}
	if resp["version"] != "test-version" {
		t.Errorf("expected version test-version, got %q", resp["version"])
	}

	defaultHandler := NewHandler(nil, nil, 0, "  ")
	rr = httptest.NewRecorder()
	defaultHandler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	if !strings.Contains(rr.Body.String(), `"dev"`) {
		t.Errorf("expected dev version, got %s", rr.Body.String())
	}
}
