package exchange

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func drawOrder(t *rapid.T, clock *fakeClock) *Order {
	side := Buy
	if rapid.Bool().Draw(t, "isSell") {
		side = Sell
	}
	price := float64(rapid.IntRange(1, 200).Draw(t, "price"))
	qty := float64(rapid.IntRange(1, 50).Draw(t, "qty"))
	o, err := NewOrder(side, price, qty, clock.Now())
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	return o
}

func TestProperty_SidesStaySorted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clock := newFakeClock()
		ob := NewOrderBook(clock)
		n := rapid.IntRange(1, 40).Draw(t, "n")
		for i := 0; i < n; i++ {
			ob.AddOrder(drawOrder(t, clock))
		}

		for i := 1; i < len(ob.bids); i++ {
			if ob.bids[i-1].Price < ob.bids[i].Price {
				t.Fatalf("bids not non-increasing at %d: %v < %v", i, ob.bids[i-1].Price, ob.bids[i].Price)
			}
		}
		for i := 1; i < len(ob.asks); i++ {
			if ob.asks[i-1].Price > ob.asks[i].Price {
				t.Fatalf("asks not non-decreasing at %d: %v > %v", i, ob.asks[i-1].Price, ob.asks[i].Price)
			}
		}
	})
}

func TestProperty_ConservationAndQuantityFloor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clock := newFakeClock()
		ob := NewOrderBook(clock)
		n := rapid.IntRange(0, 30).Draw(t, "n")
		for i := 0; i < n; i++ {
			ob.MatchOrder(drawOrder(t, clock))
		}

		incoming := drawOrder(t, clock)
		before := incoming.Quantity()
		fills, remaining := ob.MatchOrder(incoming)

		var filled float64
		for _, f := range fills {
			if f.Quantity <= 0 {
				t.Fatalf("fill with non-positive quantity: %+v", f)
			}
			filled += f.Quantity
		}
		if remaining+filled != before {
			t.Fatalf("conservation broken: remaining %v + filled %v != before %v",
				remaining, filled, before)
		}
		if remaining < 0 {
			t.Fatalf("incoming quantity went negative: %v", remaining)
		}
		for _, o := range append(append([]*Order{}, ob.bids...), ob.asks...) {
			if o.Quantity() <= 0 {
				t.Fatalf("resting order %s has quantity %v; zero-qty orders must be removed", o.ID, o.Quantity())
			}
		}
	})
}

func TestProperty_PriceMakerAndUncrossedBook(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clock := newFakeClock()
		ob := NewOrderBook(clock)
		n := rapid.IntRange(1, 30).Draw(t, "n")

		restingPrices := map[float64]bool{}
		for i := 0; i < n; i++ {
			o := drawOrder(t, clock)
			fills, remaining := ob.MatchOrder(o)
			for _, f := range fills {
				if !restingPrices[f.Price] {
					t.Fatalf("fill at %v, a price no resting order ever quoted", f.Price)
				}
			}
			if remaining > 0 {
				restingPrices[o.Price] = true
			}
		}

		// After any sequence of matches the book cannot be crossed.
		if len(ob.bids) > 0 && len(ob.asks) > 0 {
			if ob.bids[0].Price >= ob.asks[0].Price {
				t.Fatalf("book crossed: best bid %v >= best ask %v", ob.bids[0].Price, ob.asks[0].Price)
			}
		}
	})
}

func TestProperty_MatcherRemovesOnlyConsumed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clock := newFakeClock()
		ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		n := rapid.IntRange(1, 20).Draw(t, "n")
		asks := make([]*Order, 0, n)
		var total float64
		for i := 0; i < n; i++ {
			price := float64(rapid.IntRange(50, 150).Draw(t, "askPrice"))
			qty := float64(rapid.IntRange(1, 20).Draw(t, "askQty"))
			o, _ := NewOrder(Sell, price, qty, ts.Add(time.Duration(i)*time.Second))
			asks = append(asks, o)
			total += qty
		}

		incoming, _ := NewOrder(Buy, 200, float64(rapid.IntRange(1, 400).Draw(t, "takerQty")), ts)
		fills, remaining := Match(incoming, &asks, buyCond, clock)

		var filled float64
		for _, f := range fills {
			filled += f.Quantity
		}
		var left float64
		for _, o := range asks {
			if o.Quantity() <= 0 {
				t.Fatalf("consumed order left in the resting slice")
			}
			left += o.Quantity()
		}
		if filled+left != total {
			t.Fatalf("resting liquidity not conserved: filled %v + left %v != %v", filled, left, total)
		}
		if remaining != incoming.Quantity() {
			t.Fatalf("returned remainder %v disagrees with order state %v", remaining, incoming.Quantity())
		}
	})
}
