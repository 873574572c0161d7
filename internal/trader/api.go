package trader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"demo-options-trader/internal/models"
	"demo-options-trader/internal/notify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// APIServer exposes a trading session over HTTP.
type APIServer struct {
	engine *Engine
	hub    *notify.Hub
	logger *zap.Logger
	server *http.Server
}

// NewAPIServer creates a server for engine. hub may be nil, in which case
// /ws is not served.
func NewAPIServer(logger *zap.Logger, engine *Engine, hub *notify.Hub, port int) *APIServer {
	s := &APIServer{
		engine: engine,
		hub:    hub,
		logger: logger.Named("api-server"),
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the router.
func (s *APIServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)

	r.Route("/api", func(r chi.Router) {
		r.Get("/balance", s.handleBalance)
		r.Post("/recharge", s.handleRecharge)
		r.Post("/trades", s.handleOpenTrade)
		r.Get("/trades/active", s.handleActiveTrade)
		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handleClearHistory)
		r.Get("/statistics", s.handleStatistics)
	})

	if s.hub != nil {
		r.Get("/ws", s.hub.ServeWs)
	}
	return r
}

// Start serves until Shutdown is called.
func (s *APIServer) Start() error {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *APIServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *APIServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// maxBodyBytes caps request bodies on the write endpoints.
const maxBodyBytes = 4 << 10

// amountField accepts a JSON string ("$1,000") or number (1000).
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number")
	}
	*a = amountField(n.String())
	return nil
}

type openTradeRequest struct {
	Direction string      `json:"direction"`
	Stake     amountField `json:"stake"`
}

type rechargeRequest struct {
	Amount amountField `json:"amount"`
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type activeTradeResponse struct {
	Active    bool          `json:"active"`
	Trade     *models.Trade `json:"trade,omitempty"`
	Remaining int           `json:"remaining"`
}

type statusResponse struct {
	SessionID      string          `json:"session_id"`
	Uptime         string          `json:"uptime"`
	Balance        decimal.Decimal `json:"balance"`
	ActiveTrade    bool            `json:"active_trade"`
	HistoryEntries int             `json:"history_entries"`
	WSClients      int             `json:"ws_clients"`
}

func (s *APIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *APIServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	_, active := s.engine.ActiveTrade()
	resp := statusResponse{
		SessionID:      s.engine.SessionID.String(),
		Uptime:         s.engine.clock.Now().Sub(s.engine.StartTime).Round(time.Second).String(),
		Balance:        s.engine.Balance(),
		ActiveTrade:    active,
		HistoryEntries: len(s.engine.History()),
	}
	if s.hub != nil {
		resp.WSClients = s.hub.ConnectedCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *APIServer) handleBalance(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, balanceResponse{Balance: s.engine.Balance()})
}

func (s *APIServer) handleRecharge(w http.ResponseWriter, r *http.Request) {
	var req rechargeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := models.ParseAmount(string(req.Amount))
	if err == nil {
		err = s.engine.Credit(amount)
	}
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: s.engine.Balance()})
}

func (s *APIServer) handleOpenTrade(w http.ResponseWriter, r *http.Request) {
	var req openTradeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	trade, err := s.engine.Submit(r.Context(), req.Direction, string(req.Stake))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, activeTradeResponse{
		Active:    true,
		Trade:     &trade,
		Remaining: s.engine.RemainingTicks(),
	})
}

func (s *APIServer) handleActiveTrade(w http.ResponseWriter, _ *http.Request) {
	trade, ok := s.engine.ActiveTrade()
	if !ok {
		writeJSON(w, http.StatusOK, activeTradeResponse{})
		return
	}
	writeJSON(w, http.StatusOK, activeTradeResponse{
		Active:    true,
		Trade:     &trade,
		Remaining: s.engine.RemainingTicks(),
	})
}

func (s *APIServer) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.History())
}

func (s *APIServer) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ClearHistory(r.Context()); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) handleStatistics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Stats())
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidStake),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidDirection):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrTradeAlreadyActive):
		return http.StatusConflict
	case errors.Is(err, ErrEngineClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *APIServer) writeEngineError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
