package trades

import "time"

// Trade sides.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// TradeLot is a discrete batch of shares acquired in one trade, tracked until
// fully closed. TradeValue is recomputed from quantity * price at write time.
type TradeLot struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Ticker     string    `json:"ticker"`
	Exchange   string    `json:"exchange"`
	Side       string    `json:"side"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	TradeValue float64   `json:"trade_value"`
	TradeDate  string    `json:"trade_date"` // YYYY-MM-DD
	Closed     bool      `json:"closed"`
	CreatedAt  time.Time `json:"created_at"`
}

// Transaction is one executed trade, identified by a uuid.
type Transaction struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	Ticker     string    `json:"ticker"`
	Side       string    `json:"side"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	TradeValue float64   `json:"trade_value"`
	Currency   string    `json:"currency"`
	ExecutedAt string    `json:"executed_at"` // YYYY-MM-DD
	CreatedAt  time.Time `json:"created_at"`
}

// RealizedPnL is the profit or loss booked when a lot is closed.
// RealizedPnL = proceeds - cost basis, recomputed at write time.
type RealizedPnL struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Ticker      string    `json:"ticker"`
	Quantity    float64   `json:"quantity"`
	Proceeds    float64   `json:"proceeds"`
	CostBasis   float64   `json:"cost_basis"`
	RealizedPnL float64   `json:"realized_pnl"`
	ClosedAt    string    `json:"closed_at"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"created_at"`
}

// TradeLotInput is the POST body for a lot. trade_value is derived.
type TradeLotInput struct {
	Ticker    string  `json:"ticker"`
	Exchange  string  `json:"exchange"`
	Side      string  `json:"side"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	TradeDate string  `json:"trade_date"`
}

// TransactionInput is the POST body for a transaction. trade_value is derived.
type TransactionInput struct {
	Ticker     string  `json:"ticker"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	ExecutedAt string  `json:"executed_at"`
}

// RealizedPnLInput is the POST body for a realization. realized_pnl is derived.
type RealizedPnLInput struct {
	Ticker    string  `json:"ticker"`
	Quantity  float64 `json:"quantity"`
	Proceeds  float64 `json:"proceeds"`
	CostBasis float64 `json:"cost_basis"`
	ClosedAt  string  `json:"closed_at"`
}
