package exchange

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

var (
	// ErrInvalidOrderType is returned when an order side is neither buy nor sell.
	ErrInvalidOrderType = errors.New("invalid order type: must be 'buy' or 'sell'")
	// ErrInvalidOrderValue is returned when price or quantity is not a positive
	// finite number.
	ErrInvalidOrderValue = errors.New("price and quantity must be positive numbers")
)

// ParseSide converts a wire string into a Side.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Buy, Sell:
		return Side(s), nil
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidOrderType, s)
}

// Order is a single buy or sell intent. Side, price, id and timestamp are
// fixed at construction; quantity is decremented only by the matcher while
// the order sits in a book, and never goes below zero.
type Order struct {
	ID        string
	Side      Side
	Price     float64
	Timestamp time.Time

	qty float64
}

// NewOrder validates the inputs and builds an order with a generated id.
// No book state is touched here: a failed construction leaves nothing behind.
func NewOrder(side Side, price, quantity float64, ts time.Time) (*Order, error) {
	if side != Buy && side != Sell {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidOrderType, side)
	}
	if !positiveFinite(price) || !positiveFinite(quantity) {
		return nil, fmt.Errorf("%w: price=%v quantity=%v", ErrInvalidOrderValue, price, quantity)
	}
	return &Order{
		ID:        newOrderID(side, ts),
		Side:      side,
		Price:     price,
		Timestamp: ts,
		qty:       quantity,
	}, nil
}

// Quantity returns the order's remaining quantity.
func (o *Order) Quantity() float64 { return o.qty }

// fill decrements the remaining quantity. Only the matcher calls this;
// callers guarantee q <= o.qty.
func (o *Order) fill(q float64) { o.qty -= q }

func (o *Order) String() string {
	return fmt.Sprintf("Order[%s] %s %v @ %v (%s)",
		o.ID, strings.ToUpper(string(o.Side)), o.qty, o.Price,
		o.Timestamp.UTC().Format(time.RFC3339Nano))
}

// newOrderID derives a best-effort unique id from the side, creation time
// and a random component. Uniqueness is not cryptographically guaranteed.
func newOrderID(side Side, ts time.Time) string {
	return fmt.Sprintf("%s-%d-%s", side, ts.UnixMilli(), uuid.NewString()[:8])
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1) && !math.IsNaN(v)
}
