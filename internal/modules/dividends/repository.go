// Package dividends tracks per-ticker dividend events and their summary
// views by ticker, year, and quarter.
package dividends

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stackfolio/stackfolio/internal/domain"
)

const dividendColumns = `id, user_id, ticker, ex_date, pay_date, per_share, shares_owned, total_amount, currency, created_at, updated_at`

// Repository handles database operations for dividends
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new dividends repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "dividends").Logger(),
	}
}

// Create inserts a new dividend row.
func (r *Repository) Create(d *Dividend) error {
	now := time.Now()
	result, err := r.db.Exec(`
		INSERT INTO dividends (user_id, ticker, ex_date, pay_date, per_share, shares_owned, total_amount, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.UserID, d.Ticker, d.ExDate, nullString(d.PayDate), d.PerShare, d.SharesOwned, d.TotalAmount, d.Currency, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create dividend: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get dividend id: %w", err)
	}
	d.ID = id
	d.CreatedAt = now
	return nil
}

// Update rewrites a dividend row in place. Returns domain.ErrNotFound when
// the row does not exist or belongs to another user.
func (r *Repository) Update(d *Dividend) error {
	now := time.Now()
	result, err := r.db.Exec(`
		UPDATE dividends
		SET ticker = ?, ex_date = ?, pay_date = ?, per_share = ?, shares_owned = ?, total_amount = ?, currency = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		d.Ticker, d.ExDate, nullString(d.PayDate), d.PerShare, d.SharesOwned, d.TotalAmount, d.Currency, now.Unix(),
		d.ID, d.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dividend: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check dividend update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	t := now
	d.UpdatedAt = &t
	return nil
}

// GetByID returns one dividend scoped to a user.
func (r *Repository) GetByID(userID, id int64) (*Dividend, error) {
	row := r.db.QueryRow(`SELECT `+dividendColumns+` FROM dividends WHERE id = ? AND user_id = ?`, id, userID)

	d, err := scanDividend(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DetailByTicker returns one page of a ticker's dividends, newest ex-date
// first, with the total row count for paging.
func (r *Repository) DetailByTicker(userID int64, ticker string, page, pageSize int) (*DetailPage, error) {
	var total int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM dividends WHERE user_id = ? AND ticker = ?`, userID, ticker).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count dividends: %w", err)
	}

	rows, err := r.db.Query(`
		SELECT `+dividendColumns+` FROM dividends
		WHERE user_id = ? AND ticker = ?
		ORDER BY ex_date DESC, id DESC
		LIMIT ? OFFSET ?`,
		userID, ticker, pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividends by ticker: %w", err)
	}
	defer rows.Close()

	items, err := scanDividends(rows)
	if err != nil {
		return nil, err
	}
	return &DetailPage{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

// DetailByExDateRange returns one page of dividends whose ex-date falls in
// [start, end), newest first.
func (r *Repository) DetailByExDateRange(userID int64, start, end string, page, pageSize int) (*DetailPage, error) {
	var total int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM dividends WHERE user_id = ? AND ex_date >= ? AND ex_date < ?`,
		userID, start, end,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count dividends: %w", err)
	}

	rows, err := r.db.Query(`
		SELECT `+dividendColumns+` FROM dividends
		WHERE user_id = ? AND ex_date >= ? AND ex_date < ?
		ORDER BY ex_date DESC, id DESC
		LIMIT ? OFFSET ?`,
		userID, start, end, pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividends by date range: %w", err)
	}
	defer rows.Close()

	items, err := scanDividends(rows)
	if err != nil {
		return nil, err
	}
	return &DetailPage{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

// SummaryByTicker aggregates per ticker, largest total received first.
func (r *Repository) SummaryByTicker(userID int64) ([]TickerSummary, error) {
	rows, err := r.db.Query(`
		SELECT ticker, COUNT(*), SUM(total_amount)
		FROM dividends WHERE user_id = ?
		GROUP BY ticker
		ORDER BY SUM(total_amount) DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticker summary: %w", err)
	}
	defer rows.Close()

	var summaries []TickerSummary
	for rows.Next() {
		var s TickerSummary
		if err := rows.Scan(&s.Ticker, &s.Count, &s.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan ticker summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// SummaryByYear aggregates by ex-date calendar year, newest first.
func (r *Repository) SummaryByYear(userID int64) ([]YearSummary, error) {
	rows, err := r.db.Query(`
		SELECT CAST(strftime('%Y', ex_date) AS INTEGER) AS year, COUNT(*), SUM(total_amount)
		FROM dividends WHERE user_id = ?
		GROUP BY year
		ORDER BY year DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query year summary: %w", err)
	}
	defer rows.Close()

	var summaries []YearSummary
	for rows.Next() {
		var s YearSummary
		if err := rows.Scan(&s.Year, &s.Count, &s.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan year summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// SummaryByQuarter aggregates by ex-date calendar quarter, newest first.
func (r *Repository) SummaryByQuarter(userID int64) ([]QuarterSummary, error) {
	rows, err := r.db.Query(`
		SELECT
			CAST(strftime('%Y', ex_date) AS INTEGER) AS year,
			(CAST(strftime('%m', ex_date) AS INTEGER) + 2) / 3 AS quarter,
			COUNT(*),
			SUM(total_amount)
		FROM dividends WHERE user_id = ?
		GROUP BY year, quarter
		ORDER BY year DESC, quarter DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query quarter summary: %w", err)
	}
	defer rows.Close()

	var summaries []QuarterSummary
	for rows.Next() {
		var s QuarterSummary
		if err := rows.Scan(&s.Year, &s.Quarter, &s.Count, &s.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan quarter summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDividend(row rowScanner) (*Dividend, error) {
	var d Dividend
	var payDate sql.NullString
	var createdAt int64
	var updatedAt sql.NullInt64

	err := row.Scan(&d.ID, &d.UserID, &d.Ticker, &d.ExDate, &payDate,
		&d.PerShare, &d.SharesOwned, &d.TotalAmount, &d.Currency, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if payDate.Valid {
		d.PayDate = &payDate.String
	}
	d.CreatedAt = time.Unix(createdAt, 0)
	if updatedAt.Valid {
		t := time.Unix(updatedAt.Int64, 0)
		d.UpdatedAt = &t
	}
	return &d, nil
}

func scanDividends(rows *sql.Rows) ([]Dividend, error) {
	var dividends []Dividend
	for rows.Next() {
		d, err := scanDividend(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dividend: %w", err)
		}
		dividends = append(dividends, *d)
	}
	return dividends, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
