// Package positions tracks a user's current holdings joined with their asset
// classifications.
package positions

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stackfolio/stackfolio/internal/domain"
)

const positionColumns = `
	p.id, p.user_id, p.ticker, p.exchange, p.quantity, p.avg_cost,
	p.market_value, p.unrealized_pnl, p.currency, p.is_active,
	c.asset_class, c.asset_type, p.created_at, p.updated_at`

const positionJoin = `
	FROM positions p
	LEFT JOIN asset_classifications c
		ON c.user_id = p.user_id AND c.ticker = p.ticker AND c.exchange = p.exchange`

// Repository handles database operations for positions
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new positions repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "positions").Logger(),
	}
}

// Create inserts a new position row.
func (r *Repository) Create(p *Position) error {
	now := time.Now()
	result, err := r.db.Exec(`
		INSERT INTO positions (user_id, ticker, exchange, quantity, avg_cost, market_value, unrealized_pnl, currency, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Ticker, p.Exchange, p.Quantity, p.AvgCost, p.MarketValue, p.UnrealizedPnL, p.Currency, boolToInt(p.IsActive), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get position id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}

// Update rewrites a position row in place.
func (r *Repository) Update(p *Position) error {
	now := time.Now()
	result, err := r.db.Exec(`
		UPDATE positions
		SET ticker = ?, exchange = ?, quantity = ?, avg_cost = ?, market_value = ?, unrealized_pnl = ?, currency = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		p.Ticker, p.Exchange, p.Quantity, p.AvgCost, p.MarketValue, p.UnrealizedPnL, p.Currency, boolToInt(p.IsActive), now.Unix(),
		p.ID, p.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check position update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	t := now
	p.UpdatedAt = &t
	return nil
}

// GetByID returns one position with its classification, scoped to a user.
func (r *Repository) GetByID(userID, id int64) (*Position, error) {
	row := r.db.QueryRow(`SELECT `+positionColumns+positionJoin+` WHERE p.id = ? AND p.user_id = ?`, id, userID)

	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByUser returns a user's positions with classifications. A nil isActive
// returns all rows; otherwise rows are filtered by the flag.
func (r *Repository) GetByUser(userID int64, isActive *bool) ([]Position, error) {
	query := `SELECT ` + positionColumns + positionJoin + ` WHERE p.user_id = ?`
	args := []interface{}{userID}
	if isActive != nil {
		query += ` AND p.is_active = ?`
		args = append(args, boolToInt(*isActive))
	}
	query += ` ORDER BY p.ticker, p.exchange`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, *p)
	}
	return positions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPosition(row rowScanner) (*Position, error) {
	var p Position
	var assetClass, assetType sql.NullString
	var createdAt int64
	var updatedAt sql.NullInt64

	err := row.Scan(&p.ID, &p.UserID, &p.Ticker, &p.Exchange, &p.Quantity, &p.AvgCost,
		&p.MarketValue, &p.UnrealizedPnL, &p.Currency, &p.IsActive,
		&assetClass, &assetType, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.AssetClass = assetClass.String
	p.AssetType = assetType.String
	p.CreatedAt = time.Unix(createdAt, 0)
	if updatedAt.Valid {
		t := time.Unix(updatedAt.Int64, 0)
		p.UpdatedAt = &t
	}
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
