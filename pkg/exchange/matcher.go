package exchange

import (
	"math"
	"sort"
	"time"

	"github.com/peerdex/peerdex/pkg/util"
)

// Fill records one matching step. Price is always the resting order's price:
// the maker already on the book trades at its quoted price, not the taker's.
type Fill struct {
	Price     float64
	Quantity  float64
	Timestamp time.Time
}

// MatchCondition reports whether a resting order's price is compatible with
// the incoming order's. The matcher stops at the first resting order that
// fails it.
type MatchCondition func(resting, incoming *Order) bool

// Match consumes resting liquidity with the incoming order until the incoming
// quantity is exhausted or the best-priced resting order fails cond. It sorts
// resting itself (best price first), so callers need not maintain any order.
// Both the incoming order and the resting orders are mutated in place; fully
// consumed resting orders are removed from the slice.
//
// Returns the fills plus the incoming order's remaining quantity.
func Match(incoming *Order, resting *[]*Order, cond MatchCondition, clock util.Clock) ([]Fill, float64) {
	queue := *resting
	// Best price first: lowest ask for an incoming buy, highest bid for an
	// incoming sell. Once the head fails cond, no later order can pass.
	sortByPrice(queue, incoming.Side == Buy)

	var fills []Fill
	for incoming.qty > 0 && len(queue) > 0 {
		head := queue[0]
		if !cond(head, incoming) {
			break
		}
		q := math.Min(incoming.qty, head.qty)
		fills = append(fills, Fill{Price: head.Price, Quantity: q, Timestamp: clock.Now()})
		incoming.fill(q)
		head.fill(q)
		if head.qty == 0 {
			queue = queue[1:]
		}
	}
	*resting = queue
	return fills, incoming.qty
}

// sortByPrice orders by price (ascending when asc), breaking ties by earliest
// timestamp, then id. The tie-break keeps matching deterministic at equal
// prices.
func sortByPrice(orders []*Order, asc bool) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if a.Price != b.Price {
			if asc {
				return a.Price < b.Price
			}
			return a.Price > b.Price
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID < b.ID
	})
}
