package funding

import "time"

// Movement direction reference IDs, seeded by the app schema.
const (
	DirectionDeposit    = 1
	DirectionWithdrawal = 2
)

// CashMovement is a single deposit or withdrawal event in the funding ledger.
// Amounts are carried in both the user's home currency and the trading
// currency; the trading amount is always recomputed server-side from the home
// amount and the spot rate.
type CashMovement struct {
	ID                   int64     `json:"id"`
	UserID               int64     `json:"user_id"`
	DirectionID          int       `json:"direction_id"`
	Direction            string    `json:"direction"`
	HomeCurrencyValue    float64   `json:"home_currency_value"`
	TradingCurrencyValue float64   `json:"trading_currency_value"`
	SpotRate             float64   `json:"spot_rate"`
	HomeCurrencyCode     string    `json:"home_currency_code"`
	TradingCurrencyCode  string    `json:"trading_currency_code"`
	TransactionDate      string    `json:"transaction_date"` // YYYY-MM-DD
	PeriodFrom           string    `json:"period_from"`      // YYYY-MM-DD
	PeriodTo             *string   `json:"period_to"`        // nil = currently open period
	Notes                *string   `json:"notes,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// Period is an investor-defined reporting window. A nil To denotes the
// currently open period, which is a distinct window of its own, not an
// open-ended range.
type Period struct {
	From string  `json:"period_from"`
	To   *string `json:"period_to"`
}

// Key returns a stable grouping key for the period window.
func (p Period) Key() string {
	if p.To == nil {
		return p.From + "|current"
	}
	return p.From + "|" + *p.To
}

// PeriodStats aggregates a user's funding activity within one period window.
type PeriodStats struct {
	Period
	DepositCount          int     `json:"deposit_count"`
	WithdrawalCount       int     `json:"withdrawal_count"`
	TotalDepositedHome    float64 `json:"total_deposited_home"`
	TotalDepositedTrading float64 `json:"total_deposited_trading"`
	TotalWithdrawnHome    float64 `json:"total_withdrawn_home"`
	TotalWithdrawnTrading float64 `json:"total_withdrawn_trading"`
	NetHome               float64 `json:"net_home"`
	NetTrading            float64 `json:"net_trading"`
	// WeightedAvgRate is the FX rate averaged over movements in the period,
	// weighted by home-currency amount rather than a simple mean.
	WeightedAvgRate float64 `json:"weighted_avg_rate"`
}

// CreateMovementInput is the POST body for recording a movement.
// trading_currency_value is intentionally absent: it is derived server-side.
type CreateMovementInput struct {
	HomeCurrencyValue   float64 `json:"home_currency_value"`
	SpotRate            float64 `json:"spot_rate"`
	TransactionDate     string  `json:"transaction_date"`
	DirectionID         int     `json:"direction_id"`
	HomeCurrencyCode    string  `json:"home_currency_code"`
	TradingCurrencyCode string  `json:"trading_currency_code"`
	PeriodFrom          string  `json:"period_from"`
	PeriodTo            *string `json:"period_to"`
	Notes               *string `json:"notes"`
}
