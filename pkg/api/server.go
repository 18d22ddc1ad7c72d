package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/papertrader/pkg/tools"
	"github.com/uhyunpark/papertrader/pkg/trade"
)

const (
	maxBodyBytes        = 1 << 20
	defaultJournalLimit = 50
	maxJournalLimit     = 500
)

// Engine is what the REST surface needs from the trade engine
type Engine interface {
	tools.Engine
	AdjustBalance(currency trade.Currency, amount float64) trade.BalanceAdjustResponse
	SubscribeAccountSnapshot(fn trade.Subscriber) (unsubscribe func())
	PendingCount() int
}

// JournalReader serves audit queries; nil when the journal is disabled
type JournalReader interface {
	Recent(limit int) ([]trade.OrderEvent, error)
	History(orderID string) ([]trade.OrderEvent, error)
}

type Options struct {
	Engine      Engine
	Dispatcher  *tools.Dispatcher
	Journal     JournalReader
	CORSOrigins []string // empty = allow all
	Logger      *zap.Logger
}

// Server handles REST API and WebSocket connections
type Server struct {
	engine     Engine
	dispatcher *tools.Dispatcher
	journal    JournalReader
	router     *mux.Router
	hub        *Hub
	origins    []string
	logger     *zap.Logger

	unsubscribe func()
}

// NewServer wires routes and starts forwarding account snapshots to the
// ticket list and the hub
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = tools.NewDispatcher(opts.Engine, nil, logger)
	}

	s := &Server{
		engine:     opts.Engine,
		dispatcher: dispatcher,
		journal:    opts.Journal,
		router:     mux.NewRouter(),
		hub:        NewHub(logger),
		origins:    opts.CORSOrigins,
		logger:     logger.Named("api"),
	}

	s.setupRoutes()
	tickets := dispatcher.Tickets()
	s.unsubscribe = s.engine.SubscribeAccountSnapshot(func(snap trade.Snapshot) {
		tickets.Sync(snap)
		s.hub.BroadcastToChannel(ChannelAccount, WSMessage{Type: ChannelAccount, Data: snap})
	})
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Account endpoints
	api.HandleFunc("/account", s.handleGetAccount).Methods("GET")
	api.HandleFunc("/balance/adjust", s.handleAdjustBalance).Methods("POST")
	api.HandleFunc("/fx/convert", s.handleConvert).Methods("POST")

	// Order endpoints
	api.HandleFunc("/orders", s.handlePlaceOrder).Methods("POST")
	api.HandleFunc("/orders/{id}/cancel", s.handleCancelOrder).Methods("POST")
	api.HandleFunc("/orders/{id}", s.handleModifyOrder).Methods("PATCH")
	api.HandleFunc("/orders/{id}/history", s.handleOrderHistory).Methods("GET")

	// Market endpoints
	api.HandleFunc("/market/price", s.handleMarketPrice).Methods("GET")

	// Tool-call boundary
	api.HandleFunc("/tools", s.handleListTools).Methods("GET")
	api.HandleFunc("/tools/{name}", s.handleInvokeTool).Methods("POST")
	api.HandleFunc("/tickets", s.handleListTickets).Methods("GET")
	api.HandleFunc("/tickets/{id}/submit", s.handleSubmitTicket).Methods("POST")
	api.HandleFunc("/tickets/{id}", s.handleDeleteTicket).Methods("DELETE")

	// Audit
	api.HandleFunc("/journal", s.handleJournal).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped in CORS
func (s *Server) Handler() http.Handler {
	opts := cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Call-Id"},
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowCredentials = true
	}
	return cors.New(opts).Handler(s.router)
}

// Start serves on addr until ctx is canceled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server_starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	s.logger.Info("server_stopped")
	return err
}

// Close stops forwarding snapshots to WebSocket clients
func (s *Server) Close() {
	s.unsubscribe()
}

// ==============================
// Account Handlers
// ==============================

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.GetAccountSnapshot())
}

func (s *Server) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	var req BalanceAdjustRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp := s.engine.AdjustBalance(req.Currency, req.Amount)
	respondJSON(w, okStatus(resp.OK, resp.Error), resp)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req FxConvertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp := s.engine.ConvertCurrency(req.From, req.To, req.Amount)
	respondJSON(w, okStatus(resp.OK, resp.Error), resp)
}

// ==============================
// Order Handlers
// ==============================

// handlePlaceOrder answers 200 even for rejections: the rejected order is
// stored and returned like any other.
func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req trade.OrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, s.engine.PlaceOrder(req))
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	resp := s.engine.CancelOrder(mux.Vars(r)["id"])
	respondJSON(w, okStatus(resp.OK, resp.Error), resp)
}

func (s *Server) handleModifyOrder(w http.ResponseWriter, r *http.Request) {
	var patch trade.ModifyPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	resp := s.engine.ModifyOrder(mux.Vars(r)["id"], patch)
	respondJSON(w, okStatus(resp.OK, resp.Error), resp)
}

func (s *Server) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		respondJSON(w, http.StatusOK, JournalResponse{Events: []trade.OrderEvent{}})
		return
	}
	events, err := s.journal.History(mux.Vars(r)["id"])
	if err != nil {
		s.logger.Warn("journal_read_failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "journal unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, JournalResponse{Enabled: true, Events: events})
}

// ==============================
// Market Handlers
// ==============================

func (s *Server) handleMarketPrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pt := trade.ProductType(strings.ToLower(q.Get("productType")))
	if !pt.Valid() {
		respondError(w, http.StatusBadRequest, "invalid productType", "productType must be stock|fund|bond|option|crypto")
		return
	}
	var ccy trade.Currency
	if raw := q.Get("currency"); raw != "" {
		c, ok := trade.ParseCurrency(raw)
		if !ok || !c.IsFiat() {
			respondError(w, http.StatusBadRequest, "invalid currency", "currency must be USD|JPY|CNY")
			return
		}
		ccy = c
	}
	quote := trade.GetMarketPrice(pt, q.Get("symbol"), ccy)
	respondJSON(w, okStatus(quote.OK, quote.Error), quote)
}

// ==============================
// Tool Handlers
// ==============================

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, tools.Definitions(r.URL.Query().Get("lang")))
}

// handleInvokeTool passes the raw body through as the tool arguments. The
// tool output is always a JSON document, so it is written verbatim.
func (s *Server) handleInvokeTool(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read body", err.Error())
		return
	}

	status := http.StatusOK
	if !tools.Known(name) {
		status = http.StatusNotFound
	}
	out := s.dispatcher.Invoke(r.Context(), name, r.Header.Get("X-Call-Id"), string(body))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, out)
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.dispatcher.Tickets().List())
}

func (s *Server) handleSubmitTicket(w http.ResponseWriter, r *http.Request) {
	resp, err := s.dispatcher.SubmitTicket(mux.Vars(r)["id"])
	switch {
	case errors.Is(err, tools.ErrTicketNotFound):
		respondError(w, http.StatusNotFound, err.Error(), "")
	case err != nil:
		respondError(w, http.StatusConflict, err.Error(), "")
	default:
		respondJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleDeleteTicket(w http.ResponseWriter, r *http.Request) {
	if !s.dispatcher.Tickets().Delete(mux.Vars(r)["id"]) {
		respondError(w, http.StatusNotFound, tools.ErrTicketNotFound.Error(), "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ==============================
// Audit / Health
// ==============================

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxJournalLimit)
	}

	if s.journal == nil {
		respondJSON(w, http.StatusOK, JournalResponse{Events: []trade.OrderEvent{}})
		return
	}
	events, err := s.journal.Recent(limit)
	if err != nil {
		s.logger.Warn("journal_read_failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "journal unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, JournalResponse{Enabled: true, Events: events})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Pending:     s.engine.PendingCount(),
		Subscribers: s.hub.Len(),
	})
}

// ==============================
// Helper Functions
// ==============================

// okStatus maps an engine outcome to an HTTP status; the body always carries
// the full response, snapshot included.
func okStatus(ok bool, errMsg string) int {
	switch {
	case ok:
		return http.StatusOK
	case errMsg == trade.ErrOrderNotFound.Error():
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   error,
		Message: message,
	})
}
