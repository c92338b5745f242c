package api

// Request and response types for the REST endpoints and WebSocket messages.

type SubmitOrderRequest struct {
	Side     string  `json:"side"` // "buy" or "sell"
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

type SubmitOrderResponse struct {
	OrderID   string     `json:"orderId"`
	Fills     []FillInfo `json:"fills"`
	Remaining float64    `json:"remaining"`
	Resting   bool       `json:"resting"` // true when the remainder was added to the book
}

type FillInfo struct {
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
}

// OrderbookSnapshot is this node's local view; peers each publish their own.
type OrderbookSnapshot struct {
	Bids      []PriceLevel `json:"bids"` // sorted high to low
	Asks      []PriceLevel `json:"asks"` // sorted low to high
	Timestamp int64        `json:"timestamp"`
}

type PriceLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Orders   int     `json:"orders"`
}

type TradeEvent struct {
	OrderID   string  `json:"orderId"` // taker's id
	Side      string  `json:"side"`
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"`
	Timestamp int64   `json:"timestamp"`
}

// wsMessage is the envelope for every WebSocket push.
type wsMessage struct {
	Channel string `json:"channel"` // "trades" or "orderbook"
	Data    any    `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}
