package node

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/peerdex/peerdex/pkg/exchange"
	"github.com/peerdex/peerdex/pkg/p2p"
	"github.com/peerdex/peerdex/pkg/util"
)

// Broadcaster announces a resting order to peers so they can attempt their
// own local match. Implemented by p2p.Net; delivery is best-effort.
type Broadcaster interface {
	BroadcastOrder(ctx context.Context, w p2p.OrderWire) error
}

// OrderRequest is the plain submission record from the API or a local caller.
// A zero Timestamp means "now".
type OrderRequest struct {
	Side      string
	Price     float64
	Quantity  float64
	Timestamp time.Time
}

// SubmitResult reports what happened to a submitted order. Remaining reflects
// the order's quantity after matching; Resting means that remainder was added
// to the book and announced to peers.
type SubmitResult struct {
	Order     *exchange.Order
	Fills     []exchange.Fill
	Remaining float64
	Resting   bool
}

// Node ties one local order book to the gossip fabric. Orders are validated
// before they reach the book, so the book only ever sees well-formed state;
// the book's own lock serializes matching.
type Node struct {
	book  *exchange.OrderBook
	net   Broadcaster
	log   *zap.SugaredLogger
	clock util.Clock

	// OnFill, when set, observes every fill produced by this node's book.
	// Called outside the book's critical section.
	OnFill func(taker *exchange.Order, f exchange.Fill)
}

func New(book *exchange.OrderBook, net Broadcaster, log *zap.SugaredLogger, clock util.Clock) *Node {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if clock == nil {
		clock = util.RealClock{}
	}
	return &Node{book: book, net: net, log: log, clock: clock}
}

// Book exposes the node's order book for read-only snapshots.
func (n *Node) Book() *exchange.OrderBook { return n.book }

// Submit validates a local order request, matches it against the book, and
// announces any remainder to peers. Validation failures leave the book
// untouched. A failed broadcast is logged and swallowed: the order is already
// resting locally and peer delivery carries no guarantee anyway.
func (n *Node) Submit(ctx context.Context, req OrderRequest) (*SubmitResult, error) {
	side, err := exchange.ParseSide(req.Side)
	if err != nil {
		return nil, err
	}
	ts := req.Timestamp
	if ts.IsZero() {
		ts = n.clock.Now()
	}
	order, err := exchange.NewOrder(side, req.Price, req.Quantity, ts)
	if err != nil {
		return nil, err
	}
	n.log.Infow("order_submitted", "order", order.String())

	res := n.run(order)
	if res.Resting {
		n.broadcast(ctx, order, res.Remaining)
	}
	return res, nil
}

// HandleRemote processes an order announced by a peer. The payload is
// reconstructed into a fresh Order — including a newly generated local id,
// since ids from independent nodes can collide — and matched exactly like a
// local submission. Remote orders are never re-announced. Malformed payloads
// are dropped with a warning; a bad peer must not corrupt the book.
func (n *Node) HandleRemote(ctx context.Context, w p2p.OrderWire) {
	side, err := exchange.ParseSide(w.Type)
	if err != nil {
		n.log.Warnw("remote_order_rejected", "remote_id", w.OrderID, "err", err)
		return
	}
	ts := time.UnixMilli(w.Timestamp)
	if w.Timestamp == 0 {
		ts = n.clock.Now()
	}
	order, err := exchange.NewOrder(side, w.Price, w.Quantity, ts)
	if err != nil {
		n.log.Warnw("remote_order_rejected", "remote_id", w.OrderID, "err", err)
		return
	}
	n.log.Infow("remote_order_received", "remote_id", w.OrderID, "local_id", order.ID)

	res := n.run(order)
	if res.Resting {
		n.log.Infow("remote_order_resting", "local_id", order.ID, "remaining", res.Remaining)
	}
}

// run executes the match and reports fills. The book call is the only
// critical section; callbacks and logging happen after it returns. The
// remainder comes from MatchOrder's return value: once the order rests,
// another goroutine's match may mutate its quantity under the book lock, so
// re-reading it here would race.
func (n *Node) run(order *exchange.Order) *SubmitResult {
	fills, remaining := n.book.MatchOrder(order)

	for _, f := range fills {
		n.log.Infow("order_matched",
			"id", order.ID, "side", order.Side, "price", f.Price, "quantity", f.Quantity)
		if n.OnFill != nil {
			n.OnFill(order, f)
		}
	}
	return &SubmitResult{
		Order:     order,
		Fills:     fills,
		Remaining: remaining,
		Resting:   remaining > 0,
	}
}

func (n *Node) broadcast(ctx context.Context, order *exchange.Order, remaining float64) {
	w := p2p.OrderWire{
		Type:      string(order.Side),
		Price:     order.Price,
		Quantity:  remaining,
		Timestamp: order.Timestamp.UnixMilli(),
		OrderID:   order.ID,
	}
	if err := n.net.BroadcastOrder(ctx, w); err != nil {
		n.log.Warnw("order_broadcast_failed", "id", order.ID, "err", err)
		return
	}
	n.log.Infow("order_broadcast", "id", order.ID, "remaining", remaining)
}
