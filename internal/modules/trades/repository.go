// Package trades records executed trades as lots and transactions plus the
// realized P&L booked when lots close.
package trades

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles database operations for the trade ledger
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new trades repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "trades").Logger(),
	}
}

// Lots ---------------------------------------------------------------------

// CreateLot inserts a new trade lot.
func (r *Repository) CreateLot(l *TradeLot) error {
	now := time.Now()
	result, err := r.db.Exec(`
		INSERT INTO trade_lots (user_id, ticker, exchange, side, quantity, price, trade_value, trade_date, closed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		l.UserID, l.Ticker, l.Exchange, l.Side, l.Quantity, l.Price, l.TradeValue, l.TradeDate, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create trade lot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get lot id: %w", err)
	}
	l.ID = id
	l.CreatedAt = now
	return nil
}

// LotsForUser returns a user's lots, newest trade first. openOnly restricts to
// lots not yet closed.
func (r *Repository) LotsForUser(userID int64, openOnly bool) ([]TradeLot, error) {
	query := `
		SELECT id, user_id, ticker, exchange, side, quantity, price, trade_value, trade_date, closed, created_at
		FROM trade_lots WHERE user_id = ?`
	if openOnly {
		query += ` AND closed = 0`
	}
	query += ` ORDER BY trade_date DESC, id DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade lots: %w", err)
	}
	defer rows.Close()

	var lots []TradeLot
	for rows.Next() {
		var l TradeLot
		var createdAt int64
		if err := rows.Scan(&l.ID, &l.UserID, &l.Ticker, &l.Exchange, &l.Side, &l.Quantity,
			&l.Price, &l.TradeValue, &l.TradeDate, &l.Closed, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade lot: %w", err)
		}
		l.CreatedAt = time.Unix(createdAt, 0)
		lots = append(lots, l)
	}
	return lots, rows.Err()
}

// CloseLot marks a lot closed.
func (r *Repository) CloseLot(userID, id int64) (bool, error) {
	result, err := r.db.Exec(`UPDATE trade_lots SET closed = 1 WHERE id = ? AND user_id = ? AND closed = 0`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to close trade lot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check lot close: %w", err)
	}
	return affected > 0, nil
}

// Transactions --------------------------------------------------------------

// CreateTransaction inserts a new transaction row.
func (r *Repository) CreateTransaction(tx *Transaction) error {
	now := time.Now()
	_, err := r.db.Exec(`
		INSERT INTO transactions (id, user_id, ticker, side, quantity, price, trade_value, currency, executed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Ticker, tx.Side, tx.Quantity, tx.Price, tx.TradeValue, tx.Currency, tx.ExecutedAt, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	tx.CreatedAt = now
	return nil
}

// TransactionsForUser returns a user's transactions, newest execution first.
func (r *Repository) TransactionsForUser(userID int64) ([]Transaction, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, ticker, side, quantity, price, trade_value, currency, executed_at, created_at
		FROM transactions WHERE user_id = ?
		ORDER BY executed_at DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var tx Transaction
		var createdAt int64
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Ticker, &tx.Side, &tx.Quantity,
			&tx.Price, &tx.TradeValue, &tx.Currency, &tx.ExecutedAt, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.CreatedAt = time.Unix(createdAt, 0)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// Realized P&L --------------------------------------------------------------

// CreateRealizedPnL appends a realization record.
func (r *Repository) CreateRealizedPnL(p *RealizedPnL) error {
	now := time.Now()
	result, err := r.db.Exec(`
		INSERT INTO realized_pnl_history (user_id, ticker, quantity, proceeds, cost_basis, realized_pnl, closed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Ticker, p.Quantity, p.Proceeds, p.CostBasis, p.RealizedPnL, p.ClosedAt, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create realized pnl record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get realized pnl id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}

// RealizedPnLForUser returns a user's realization history, newest close first.
func (r *Repository) RealizedPnLForUser(userID int64) ([]RealizedPnL, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, ticker, quantity, proceeds, cost_basis, realized_pnl, closed_at, created_at
		FROM realized_pnl_history WHERE user_id = ?
		ORDER BY closed_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query realized pnl history: %w", err)
	}
	defer rows.Close()

	var records []RealizedPnL
	for rows.Next() {
		var p RealizedPnL
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.Ticker, &p.Quantity, &p.Proceeds,
			&p.CostBasis, &p.RealizedPnL, &p.ClosedAt, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan realized pnl record: %w", err)
		}
		p.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, p)
	}
	return records, rows.Err()
}
