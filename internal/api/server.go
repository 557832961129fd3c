package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/zappabad/safetrade/internal/broker"
	"github.com/zappabad/safetrade/internal/market"
	marketview "github.com/zappabad/safetrade/internal/market/view"
	"github.com/zappabad/safetrade/internal/orderbook/core"
	orderbookview "github.com/zappabad/safetrade/internal/orderbook/view"
)

// TokenHeader carries the session token on authenticated requests.
const TokenHeader = "X-Session-Token"

// Brokerage is the participant-facing side of the venue.
type Brokerage interface {
	AddUser(name, password string) error
	Login(name, password string) (broker.Session, error)
	Logout(token string) error
	Session(token string) (broker.Session, error)
	ActiveTraders() []core.UserID
	PlaceOrder(ctx context.Context, token string, req broker.OrderRequest) (core.OrderID, error)
	Quote(ctx context.Context, token, symbol string) (string, error)
	Messages(token string) ([]string, error)
	Peek(token string) ([]string, error)
	Participants() []core.UserID
	Activity() []broker.Activity
	Subscribe(token string, buffer int) (<-chan string, func(), error)
}

// Market provides read access to listed instruments.
type Market interface {
	Listings() []market.Listing
	Listing(symbol string) (market.Listing, bool)
	Quote(ctx context.Context, symbol string) (string, error)
	TradesLast(symbol string, n int) ([]core.TradeEvent, bool)
	Candles(symbol string, n int) ([]orderbookview.Candle, bool)
	Snapshot() marketview.MarketSnapshot
	DroppedEvents() int64
	DroppedBookEvents() int64
}

// Config holds configuration for the API server.
type Config struct {
	// AllowedOrigins lists CORS origins.
	AllowedOrigins []string
	// RequestTimeout bounds order and quote calls into the venue.
	RequestTimeout time.Duration
	// MaxTrades caps the trades endpoint's limit parameter.
	MaxTrades int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
		RequestTimeout: 5 * time.Second,
		MaxTrades:      500,
	}
}

// Server handles REST API and WebSocket connections
type Server struct {
	cfg       Config
	brokerage Brokerage
	market    Market
	router    *mux.Router
	hub       *Hub
	log       *zap.Logger
}

// NewServer creates a new API server
func NewServer(cfg Config, brokerage Brokerage, mkt Market, logger *zap.Logger) *Server {
	d := DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = d.AllowedOrigins
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = d.RequestTimeout
	}
	if cfg.MaxTrades <= 0 {
		cfg.MaxTrades = d.MaxTrades
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("api")

	s := &Server{
		cfg:       cfg,
		brokerage: brokerage,
		market:    mkt,
		router:    mux.NewRouter(),
		hub:       NewHub(log),
		log:       log,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// API v1 routes
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Participant endpoints
	api.HandleFunc("/users", s.handleAddUser).Methods("POST")
	api.HandleFunc("/sessions", s.handleLogin).Methods("POST")
	api.HandleFunc("/sessions", s.handleLogout).Methods("DELETE")
	api.HandleFunc("/sessions", s.handleSession).Methods("GET")
	api.HandleFunc("/activity", s.handleActivity).Methods("GET")
	api.HandleFunc("/messages", s.handleMessages).Methods("GET")

	// Market endpoints
	api.HandleFunc("/markets", s.handleGetMarkets).Methods("GET")
	api.HandleFunc("/markets/{symbol}/quote", s.handleGetQuote).Methods("GET")
	api.HandleFunc("/markets/{symbol}/trades", s.handleGetTrades).Methods("GET")
	api.HandleFunc("/markets/{symbol}/candles", s.handleGetCandles).Methods("GET")

	// Order submission
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", TokenHeader},
	})
	return c.Handler(s.router)
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Run serves on addr, streaming market events to WebSocket clients, until
// ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string, events <-chan marketview.MarketEvent) error {
	go s.hub.Run(ctx, events)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := s.brokerage.AddUser(req.Name, req.Password); err != nil {
		s.respondBrokerError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	sess, err := s.brokerage.Login(req.Name, req.Password)
	if err != nil {
		s.respondBrokerError(w, err)
		return
	}
	respondJSON(w, SessionInfo{Token: sess.Token, Name: string(sess.Name)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.brokerage.Logout(r.Header.Get(TokenHeader)); err != nil {
		s.respondBrokerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.brokerage.Session(r.Header.Get(TokenHeader))
	if err != nil {
		s.respondBrokerError(w, err)
		return
	}
	respondJSON(w, SessionInfo{Token: sess.Token, Name: string(sess.Name), LoginTime: sess.LoginTime})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if _, err := s.brokerage.Session(r.Header.Get(TokenHeader)); err != nil {
		s.respondBrokerError(w, err)
		return
	}
	acts := s.brokerage.Activity()
	out := make([]ActivityInfo, len(acts))
	for i, a := range acts {
		out[i] = ActivityInfo{
			Name:    string(a.Name),
			Type:    a.Type.String(),
			Time:    a.Time,
			OrderID: int64(a.OrderID),
			Symbol:  a.Symbol,
		}
	}
	respondJSON(w, out)
}

// handleMessages drains the mailbox, or only reads it with ?peek=true.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	read := s.brokerage.Messages
	if r.URL.Query().Get("peek") == "true" {
		read = s.brokerage.Peek
	}
	msgs, err := read(r.Header.Get(TokenHeader))
	if err != nil {
		s.respondBrokerError(w, err)
		return
	}
	if msgs == nil {
		msgs = []string{}
	}
	respondJSON(w, MessagesResponse{Messages: msgs})
}

func (s *Server) handleGetMarkets(w http.ResponseWriter, r *http.Request) {
	listings := s.market.Listings()
	snap := s.market.Snapshot()

	response := make([]MarketInfo, len(listings))
	for i, l := range listings {
		info := MarketInfo{
			Symbol:       l.Symbol,
			Company:      l.Company,
			OpeningPrice: core.FormatMoney(l.OpeningPrice),
			Last:         core.FormatMoney(l.OpeningPrice),
			High:         core.FormatMoney(l.OpeningPrice),
			Low:          core.FormatMoney(l.OpeningPrice),
		}
		if sum, ok := snap.BySymbol[l.Symbol]; ok && sum.HasTrade {
			info.Last = core.FormatMoney(sum.Stats.Last)
			info.High = core.FormatMoney(sum.Stats.High)
			info.Low = core.FormatMoney(sum.Stats.Low)
			info.Volume = int64(sum.Stats.Volume)
		}
		response[i] = info
	}

	respondJSON(w, response)
}

// handleGetQuote returns the quote text. With a session token the quote is
// also relayed to the participant's mailbox.
func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	var (
		q   string
		err error
	)
	if token := r.Header.Get(TokenHeader); token != "" {
		q, err = s.brokerage.Quote(ctx, token, symbol)
	} else {
		q, err = s.market.Quote(ctx, symbol)
	}
	if err != nil {
		s.respondBrokerError(w, err)
		return
	}

	if _, ok := s.market.Listing(symbol); !ok {
		respondError(w, http.StatusNotFound, "market not found", q)
		return
	}
	respondJSON(w, QuoteInfo{Symbol: symbol, Quote: q})
}

// queryLimit reads ?limit, capped at s.cfg.MaxTrades.
func (s *Server) queryLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		respondError(w, http.StatusBadRequest, "invalid limit", v)
		return 0, false
	}
	return min(n, s.cfg.MaxTrades), true
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	limit, ok := s.queryLimit(w, r, 50)
	if !ok {
		return
	}

	trades, ok := s.market.TradesLast(symbol, limit)
	if !ok {
		respondError(w, http.StatusNotFound, "market not found", symbol+" not found")
		return
	}

	response := make([]TradeInfo, len(trades))
	for i, t := range trades {
		response[i] = tradeInfo(t)
	}
	respondJSON(w, response)
}

func (s *Server) handleGetCandles(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	limit, ok := s.queryLimit(w, r, 60)
	if !ok {
		return
	}

	candles, ok := s.market.Candles(symbol, limit)
	if !ok {
		respondError(w, http.StatusNotFound, "market not found", symbol+" not found")
		return
	}

	response := make([]CandleInfo, len(candles))
	for i, c := range candles {
		response[i] = CandleInfo{
			Start:  c.Start,
			Open:   core.FormatMoney(c.Open),
			High:   core.FormatMoney(c.High),
			Low:    core.FormatMoney(c.Low),
			Close:  core.FormatMoney(c.Close),
			Volume: int64(c.Volume),
			Trades: c.Trades,
		}
	}
	respondJSON(w, response)
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	or, err := toOrderRequest(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	id, err := s.brokerage.PlaceOrder(ctx, r.Header.Get(TokenHeader), or)
	if err != nil {
		s.respondBrokerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(OrderAck{OrderID: int64(id)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, HealthResponse{
		Status:              "ok",
		Listings:            len(s.market.Listings()),
		ActiveTraders:       len(s.brokerage.ActiveTraders()),
		Participants:        len(s.brokerage.Participants()),
		DroppedMarketEvents: s.market.DroppedEvents(),
		DroppedBookEvents:   s.market.DroppedBookEvents(),
		WSClients:           s.hub.ClientCount(),
	})
}

// ==============================
// Helpers
// ==============================

func toOrderRequest(req OrderRequest) (broker.OrderRequest, error) {
	out := broker.OrderRequest{
		Symbol: req.Symbol,
		Shares: core.Size(req.Shares),
		Price:  req.Price.Round(2),
	}
	switch strings.ToLower(req.Side) {
	case "buy":
		out.Side = core.SideBuy
	case "sell":
		out.Side = core.SideSell
	default:
		return out, errors.New(`side must be "buy" or "sell"`)
	}
	switch strings.ToLower(req.Type) {
	case "limit", "":
		out.Kind = core.OrderKindLimit
	case "market":
		out.Kind = core.OrderKindMarket
	default:
		return out, errors.New(`type must be "limit" or "market"`)
	}
	return out, nil
}

func tradeInfo(t core.TradeEvent) TradeInfo {
	return TradeInfo{
		Symbol:    t.Symbol,
		Price:     core.FormatMoney(t.Price),
		Size:      int64(t.Size),
		Buyer:     string(t.Buyer),
		Seller:    string(t.Seller),
		Timestamp: t.Time,
	}
}

func (s *Server) respondBrokerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, broker.ErrInvalidName),
		errors.Is(err, broker.ErrInvalidPassword),
		errors.Is(err, broker.ErrInvalidOrder):
		respondError(w, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, broker.ErrNameTaken),
		errors.Is(err, broker.ErrAlreadyLoggedIn):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, broker.ErrUnknownUser):
		respondError(w, http.StatusNotFound, "unknown user", err.Error())
	case errors.Is(err, broker.ErrWrongPassword),
		errors.Is(err, broker.ErrNoSession):
		respondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", err.Error())
	default:
		s.log.Warn("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
