package scan

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/venue-matcher/internal/api"
	"github.com/rickgao/venue-matcher/internal/stream"
)

const (
	preflightTimeout = 5 * time.Second
	healthTimeout    = 5 * time.Second
)

// ExchangeStatus reports the Kalshi exchange state for /health.
type ExchangeStatus interface {
	GetExchangeStatus(ctx context.Context) (*api.ExchangeStatusResponse, error)
}

// Handler serves the scan endpoints.
type Handler struct {
	svc      *Service
	exchange ExchangeStatus
	logger   *slog.Logger
}

// NewHandler creates a Handler. exchange may be nil.
func NewHandler(svc *Service, exchange ExchangeStatus, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, exchange: exchange, logger: logger}
}

// Routes registers the scan, WebSocket and health endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/scan", h.ServeSSE)
	mux.HandleFunc("GET /ws/scan", h.ServeWS)
	mux.HandleFunc("GET /health", h.ServeHealth)
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// ServeSSE runs a scan and streams it as server-sent events.
func (h *Handler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	req, ok := h.preflight(w, r, requestID)
	if !ok {
		return
	}

	sse, err := stream.NewSSE(w, requestID)
	if err != nil {
		h.logger.Error("open event stream", "request_id", requestID, "error", err)
		writeError(w, http.StatusInternalServerError, CodeFatal, err.Error(), requestID)
		return
	}
	defer sse.Close()

	h.svc.Run(r.Context(), req, sse)
}

// ServeWS runs a scan over a WebSocket. A client close cancels the run.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	req, ok := h.preflight(w, r, requestID)
	if !ok {
		return
	}

	ws, err := stream.Upgrade(w, r, requestID, h.logger)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "request_id", requestID, "error", err)
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	ws.WatchClose(cancel)

	h.svc.Run(ctx, req, ws)
}

// preflight validates the query and checks the store before any stream is
// opened. It writes the error response itself.
func (h *Handler) preflight(w http.ResponseWriter, r *http.Request, requestID string) (Request, bool) {
	req, err := ParseRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error(), requestID)
		return req, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), preflightTimeout)
	defer cancel()
	if err := h.svc.Ping(ctx); err != nil {
		h.logger.Error("store unreachable", "request_id", requestID, "error", err)
		writeError(w, http.StatusServiceUnavailable, CodeDBConnectionFailed, "database unreachable", requestID)
		return req, false
	}
	return req, true
}

// ServeHealth reports store connectivity and the Kalshi exchange state.
func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	health := struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Components: make(map[string]any),
	}

	if err := h.svc.Ping(ctx); err != nil {
		health.Status = "unhealthy"
		health.Components["store"] = map[string]string{
			"status": "disconnected",
			"error":  err.Error(),
		}
	} else {
		health.Components["store"] = "connected"
	}

	if h.exchange != nil {
		status, err := h.exchange.GetExchangeStatus(ctx)
		switch {
		case err != nil:
			if health.Status == "healthy" {
				health.Status = "degraded"
			}
			health.Components["kalshi"] = map[string]string{
				"status": "unreachable",
				"error":  err.Error(),
			}
		default:
			health.Components["kalshi"] = map[string]any{
				"exchange_active": status.ExchangeActive,
				"trading_active":  status.TradingActive,
				"authenticated":   h.svc.authenticated,
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}

func requestIDFrom(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

func writeError(w http.ResponseWriter, status int, code, msg, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Code: code, Message: msg, RequestID: requestID})
}
