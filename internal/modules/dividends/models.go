package dividends

import "time"

// Dividend is one per-ticker dividend event. TotalAmount is always
// recomputed server-side as per_share * shares_owned; a client-supplied
// total is never stored.
type Dividend struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Ticker      string     `json:"ticker"`
	ExDate      string     `json:"ex_date"` // YYYY-MM-DD
	PayDate     *string    `json:"pay_date,omitempty"`
	PerShare    float64    `json:"per_share"`
	SharesOwned float64    `json:"shares_owned"`
	TotalAmount float64    `json:"total_amount"`
	Currency    string     `json:"currency"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// TickerSummary aggregates a user's dividends for one ticker.
type TickerSummary struct {
	Ticker      string  `json:"ticker"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// YearSummary aggregates a user's dividends for one calendar year of ex-dates.
type YearSummary struct {
	Year        int     `json:"year"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// QuarterSummary aggregates a user's dividends for one calendar quarter.
type QuarterSummary struct {
	Year        int     `json:"year"`
	Quarter     int     `json:"quarter"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// DetailPage is one page of dividend detail rows plus paging info.
type DetailPage struct {
	Items    []Dividend `json:"items"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
	Total    int        `json:"total"`
}

// DividendInput is the POST/PUT body. total_amount is intentionally absent.
type DividendInput struct {
	Ticker      string  `json:"ticker"`
	ExDate      string  `json:"ex_date"`
	PayDate     *string `json:"pay_date"`
	PerShare    float64 `json:"per_share"`
	SharesOwned float64 `json:"shares_owned"`
	Currency    string  `json:"currency"`
}
