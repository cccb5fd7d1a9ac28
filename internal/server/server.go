// Package server exposes a calculator session over HTTP so a browser keypad
// can drive it.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/iwvelando/hp12c/internal/calculator"
	"github.com/iwvelando/hp12c/pkg/constants"
	"github.com/iwvelando/hp12c/pkg/loans"
	"go.uber.org/zap"
)

type handler struct {
	logger      *zap.Logger
	maxKeys     int
	maxBodySize int64
	version     string
	amortizer   *loans.AmortizationScheduleGenerator

	mu      sync.Mutex
	session *calculator.Session
}

type keysRequest struct {
	Keys []string `json:"keys"`
}

type keysResponse struct {
	State   calculator.Snapshot `json:"state"`
	Pressed int                 `json:"pressed"`
}

// NewHandler constructs the HTTP handler serving the keypad API for session.
// A single request may press at most maxKeys keys. All requests share the
// one session and are serialized.
func NewHandler(logger *zap.Logger, session *calculator.Session, maxKeys int, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if session == nil {
		session = calculator.NewSession(logger, nil, nil, 0)
	}

	if maxKeys <= 0 {
		maxKeys = constants.DefaultMaxKeysPerRequest
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		session:     session,
		maxKeys:     maxKeys,
		maxBodySize: KeysBodyLimit(maxKeys),
		version:     trimmedVersion,
		amortizer:   loans.NewAmortizationScheduleGenerator(logger),
	}

	mux := http.NewServeMux()

	// Key presses
	mux.HandleFunc("/api/keys", h.handleKeys)

	// Read-only views of the session
	mux.HandleFunc("/api/state", h.handleState)
	mux.HandleFunc("/api/history", h.handleHistory)
	mux.HandleFunc("/api/context", h.handleContext)
	mux.HandleFunc("/api/amortization", h.handleAmortization)

	mux.HandleFunc("/api/reset", h.handleReset)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

func (h *handler) handleKeys(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleKeys"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	var req keysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode keys: %v", err), op)
		return
	}
	if len(req.Keys) > h.maxKeys {
		h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request presses %d keys, limit is %d", len(req.Keys), h.maxKeys), op)
		return
	}

	h.mu.Lock()
	snap, err := h.session.PressTokens(req.Keys...)
	h.mu.Unlock()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.logger.Info("keys applied",
		zap.String("op", op),
		zap.Int("keys", len(req.Keys)),
		zap.String("display", snap.Display),
		zap.Bool("error", snap.Error),
	)

	h.writeJSON(w, http.StatusOK, keysResponse{State: snap, Pressed: len(req.Keys)})
}

func (h *handler) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	snap := h.session.Snapshot()
	h.mu.Unlock()

	h.writeJSON(w, http.StatusOK, snap)
}

func (h *handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	history := h.session.History()
	h.mu.Unlock()

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": history,
	})
}

func (h *handler) handleContext(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleContext"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	blob, err := h.session.Context()
	h.mu.Unlock()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob); err != nil {
		h.logger.Error("failed to write context response", zap.String("op", op), zap.Error(err))
	}
}

// handleAmortization previews the amortization of payments periods of the
// loan in the financial registers without changing the session.
func (h *handler) handleAmortization(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAmortization"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	raw := r.URL.Query().Get("payments")
	payments, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid payments %q", raw), op)
		return
	}

	h.mu.Lock()
	state := h.session.State()
	h.mu.Unlock()

	result, err := h.amortizer.GenerateSchedule(state.Memory, payments, state.Precision)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, loans.ErrInvalidPayments) || errors.Is(err, loans.ErrInvalidLoan) {
			status = http.StatusBadRequest
		}
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	snap := h.session.Reset()
	h.mu.Unlock()

	h.logger.Info("session reset",
		zap.String("op", "server.handleReset"),
		zap.String("session", h.session.ID().String()),
	)

	h.writeJSON(w, http.StatusOK, snap)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("keypad request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}
