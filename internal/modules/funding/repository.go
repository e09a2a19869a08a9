// Package funding provides the cash-movement ledger: deposits and withdrawals
// recorded against investor-defined reporting periods, and their aggregation.
package funding

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// movementColumns is the select list for cash_movements joined with the
// direction reference table. Column order must match scanMovement.
const movementColumns = `m.id, m.user_id, m.direction_id, d.name, m.home_currency_value,
m.trading_currency_value, m.spot_rate, m.home_currency_code, m.trading_currency_code,
m.transaction_date, m.period_from, m.period_to, m.notes, m.created_at`

// Repository handles cash movement persistence in app.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new cash movement repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "funding").Logger(),
	}
}

// Create inserts a new cash movement and populates ID and CreatedAt.
// Validation happens in the service; the repository trusts its input.
func (r *Repository) Create(m *CashMovement) error {
	now := time.Now().Unix()

	query := `
		INSERT INTO cash_movements (
			user_id, direction_id, home_currency_value, trading_currency_value,
			spot_rate, home_currency_code, trading_currency_code,
			transaction_date, period_from, period_to, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		m.UserID,
		m.DirectionID,
		m.HomeCurrencyValue,
		m.TradingCurrencyValue,
		m.SpotRate,
		m.HomeCurrencyCode,
		m.TradingCurrencyCode,
		m.TransactionDate,
		m.PeriodFrom,
		nullString(m.PeriodTo),
		nullString(m.Notes),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cash movement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}

	m.ID = id
	m.CreatedAt = time.Unix(now, 0).UTC()
	if m.Direction == "" {
		switch m.DirectionID {
		case DirectionDeposit:
			m.Direction = "deposit"
		case DirectionWithdrawal:
			m.Direction = "withdrawal"
		}
	}

	r.log.Info().
		Int64("user_id", m.UserID).
		Str("direction", m.Direction).
		Float64("home_value", m.HomeCurrencyValue).
		Msg("Cash movement recorded")

	return nil
}

// AllForUser returns all movements for a user, newest first.
func (r *Repository) AllForUser(userID int64) ([]CashMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM cash_movements m
		JOIN movement_directions d ON d.id = m.direction_id
		WHERE m.user_id = ?
		ORDER BY m.transaction_date DESC, m.id DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash movements: %w", err)
	}
	defer rows.Close()

	return r.scanMovements(rows)
}

// Currencies returns the distinct trading currencies the user has recorded
// movements in.
func (r *Repository) Currencies(userID int64) ([]string, error) {
	rows, err := r.db.Query(
		"SELECT DISTINCT trading_currency_code FROM cash_movements WHERE user_id = ? ORDER BY trading_currency_code",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	defer rows.Close()

	var currencies []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		currencies = append(currencies, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currencies: %w", err)
	}

	return currencies, nil
}

// UniquePeriods returns the distinct (period_from, period_to) windows present
// in the user's history, most recent start first. A NULL period_to row is the
// open "current" period and comes back as its own window.
func (r *Repository) UniquePeriods(userID int64) ([]Period, error) {
	query := `
		SELECT DISTINCT period_from, period_to
		FROM cash_movements
		WHERE user_id = ?
		ORDER BY period_from DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		var p Period
		var to sql.NullString
		if err := rows.Scan(&p.From, &to); err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		if to.Valid {
			p.To = &to.String
		}
		periods = append(periods, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating periods: %w", err)
	}

	return periods, nil
}

// ForPeriod returns movements whose window matches exactly. A nil periodTo
// matches only rows whose period_to IS NULL - the open period is a distinct
// window, never an open-ended range.
func (r *Repository) ForPeriod(userID int64, periodFrom string, periodTo *string) ([]CashMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM cash_movements m
		JOIN movement_directions d ON d.id = m.direction_id
		WHERE m.user_id = ? AND m.period_from = ?
	`

	args := []interface{}{userID, periodFrom}
	if periodTo == nil {
		query += " AND m.period_to IS NULL"
	} else {
		query += " AND m.period_to = ?"
		args = append(args, *periodTo)
	}
	query += " ORDER BY m.transaction_date DESC, m.id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements for period: %w", err)
	}
	defer rows.Close()

	return r.scanMovements(rows)
}

// scanMovements is a helper to scan multiple movements
func (r *Repository) scanMovements(rows *sql.Rows) ([]CashMovement, error) {
	var movements []CashMovement

	for rows.Next() {
		var m CashMovement
		var periodTo, notes sql.NullString
		var createdAt sql.NullInt64

		err := rows.Scan(
			&m.ID,
			&m.UserID,
			&m.DirectionID,
			&m.Direction,
			&m.HomeCurrencyValue,
			&m.TradingCurrencyValue,
			&m.SpotRate,
			&m.HomeCurrencyCode,
			&m.TradingCurrencyCode,
			&m.TransactionDate,
			&m.PeriodFrom,
			&periodTo,
			&notes,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cash movement: %w", err)
		}

		if periodTo.Valid {
			m.PeriodTo = &periodTo.String
		}
		if notes.Valid {
			m.Notes = &notes.String
		}
		if createdAt.Valid {
			m.CreatedAt = time.Unix(createdAt.Int64, 0).UTC()
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cash movements: %w", err)
	}

	return movements, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
