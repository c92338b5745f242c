package exchange

import (
	"sync"

	"github.com/peerdex/peerdex/pkg/util"
)

// PriceLevel aggregates resting quantity at a single price.
type PriceLevel struct {
	Price    float64
	Quantity float64
	Orders   int
}

// OrderBook holds this node's local view of the market: bids sorted by
// descending price, asks by ascending price. Every order in bids is a buy
// with positive quantity, symmetrically for asks, and an order appears on
// at most one side.
//
// The book is not shared between nodes; peers each run their own.
type OrderBook struct {
	mu    sync.Mutex
	bids  []*Order
	asks  []*Order
	clock util.Clock
}

func NewOrderBook(clock util.Clock) *OrderBook {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &OrderBook{clock: clock}
}

// AddOrder rests an order on its side of the book and re-sorts that side.
func (ob *OrderBook) AddOrder(o *Order) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	ob.add(o)
}

func (ob *OrderBook) add(o *Order) {
	if o.Side == Buy {
		ob.bids = append(ob.bids, o)
		sortByPrice(ob.bids, false)
	} else {
		ob.asks = append(ob.asks, o)
		sortByPrice(ob.asks, true)
	}
}

// MatchOrder runs the incoming order against the opposite side and rests any
// remainder. The whole operation is one critical section: the multi-step
// sort/scan/mutate sequence must not interleave with other book operations.
//
// Returns the fills and the incoming order's remaining quantity, captured
// under the lock. Once the remainder rests, the order belongs to the book and
// a later match may mutate it; callers must use the returned value rather
// than read the order's quantity afterwards.
func (ob *OrderBook) MatchOrder(incoming *Order) ([]Fill, float64) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	var fills []Fill
	var remaining float64
	if incoming.Side == Buy {
		fills, remaining = Match(incoming, &ob.asks, func(ask, bid *Order) bool {
			return ask.Price <= bid.Price
		}, ob.clock)
	} else {
		fills, remaining = Match(incoming, &ob.bids, func(bid, ask *Order) bool {
			return bid.Price >= ask.Price
		}, ob.clock)
	}
	if remaining > 0 {
		ob.add(incoming)
	}
	return fills, remaining
}

// BidLevels returns aggregated bid levels, best (highest) price first.
func (ob *OrderBook) BidLevels() []PriceLevel {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return aggregate(ob.bids)
}

// AskLevels returns aggregated ask levels, best (lowest) price first.
func (ob *OrderBook) AskLevels() []PriceLevel {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return aggregate(ob.asks)
}

// Depth returns the number of resting orders on each side.
func (ob *OrderBook) Depth() (bids, asks int) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return len(ob.bids), len(ob.asks)
}

// aggregate walks an already-sorted side and merges adjacent equal prices.
func aggregate(side []*Order) []PriceLevel {
	var levels []PriceLevel
	for _, o := range side {
		if n := len(levels); n > 0 && levels[n-1].Price == o.Price {
			levels[n-1].Quantity += o.qty
			levels[n-1].Orders++
			continue
		}
		levels = append(levels, PriceLevel{Price: o.Price, Quantity: o.qty, Orders: 1})
	}
	return levels
}
