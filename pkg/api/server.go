package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/peerdex/peerdex/pkg/exchange"
	"github.com/peerdex/peerdex/pkg/node"
	"github.com/peerdex/peerdex/pkg/util"
)

// Server exposes the node over REST and WebSocket: order submission, book
// snapshots, and push streams for trades and book updates.
type Server struct {
	node   *node.Node
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger
	clock  util.Clock
}

func NewServer(n *node.Node, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		node:   n,
		router: mux.NewRouter(),
		hub:    NewHub(log),
		log:    log,
		clock:  util.RealClock{},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	v1.HandleFunc("/orderbook", s.handleGetOrderbook).Methods("GET")

	s.router.HandleFunc("/ws", s.hub.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the full middleware-wrapped handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

func (s *Server) Start(addr string) error {
	s.log.Infow("api_listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	res, err := s.node.Submit(r.Context(), node.OrderRequest{
		Side:     req.Side,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		if errors.Is(err, exchange.ErrInvalidOrderType) || errors.Is(err, exchange.ErrInvalidOrderValue) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.log.Errorw("order_submit_failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	fills := make([]FillInfo, len(res.Fills))
	for i, f := range res.Fills {
		fills[i] = FillInfo{Price: f.Price, Quantity: f.Quantity, Timestamp: f.Timestamp.UnixMilli()}
	}
	writeJSON(w, http.StatusOK, SubmitOrderResponse{
		OrderID:   res.Order.ID,
		Fills:     fills,
		Remaining: res.Remaining,
		Resting:   res.Resting,
	})
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// BroadcastTrade pushes a fill to WebSocket subscribers. Wired to the node's
// OnFill hook.
func (s *Server) BroadcastTrade(taker *exchange.Order, f exchange.Fill) {
	s.hub.Broadcast(wsMessage{Channel: "trades", Data: TradeEvent{
		OrderID:   taker.ID,
		Side:      string(taker.Side),
		Price:     f.Price,
		Quantity:  f.Quantity,
		Timestamp: f.Timestamp.UnixMilli(),
	}})
}

// BroadcastOrderbook pushes the current book snapshot to WebSocket
// subscribers.
func (s *Server) BroadcastOrderbook() {
	s.hub.Broadcast(wsMessage{Channel: "orderbook", Data: s.snapshot()})
}

func (s *Server) snapshot() OrderbookSnapshot {
	book := s.node.Book()
	return OrderbookSnapshot{
		Bids:      toLevels(book.BidLevels()),
		Asks:      toLevels(book.AskLevels()),
		Timestamp: s.clock.Now().UnixMilli(),
	}
}

func toLevels(in []exchange.PriceLevel) []PriceLevel {
	out := make([]PriceLevel, len(in))
	for i, l := range in {
		out[i] = PriceLevel{Price: l.Price, Quantity: l.Quantity, Orders: l.Orders}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
