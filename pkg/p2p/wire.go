package p2p

import (
	"encoding/json"
	"fmt"
)

// OrderWire is the JSON payload gossiped between nodes. Type is "buy" or
// "sell", timestamp is unix milliseconds, orderId is the sender's id and is
// advisory only — receivers assign their own local ids.
type OrderWire struct {
	Type      string  `json:"type"`
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"`
	Timestamp int64   `json:"timestamp"`
	OrderID   string  `json:"orderId"`
}

func encodeOrder(w OrderWire) ([]byte, error) {
	return json.Marshal(w)
}

func decodeOrder(data []byte) (OrderWire, error) {
	var w OrderWire
	if err := json.Unmarshal(data, &w); err != nil {
		return OrderWire{}, fmt.Errorf("decode order payload: %w", err)
	}
	return w, nil
}
