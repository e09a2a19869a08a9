// Package classifications resolves ticker to asset-class/asset-type mappings
// used to group positions and dashboard charts.
package classifications

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stackfolio/stackfolio/internal/domain"
)

// Repository handles database operations for asset classifications
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new classifications repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "classifications").Logger(),
	}
}

// Upsert assigns or replaces the classification for a ticker.
func (r *Repository) Upsert(c *Classification) error {
	_, err := r.db.Exec(`
		INSERT INTO asset_classifications (user_id, ticker, exchange, asset_class, asset_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, ticker, exchange)
		DO UPDATE SET asset_class = excluded.asset_class, asset_type = excluded.asset_type`,
		c.UserID, c.Ticker, c.Exchange, c.AssetClass, c.AssetType, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert classification: %w", err)
	}

	return r.db.QueryRow(`
		SELECT id, created_at FROM asset_classifications
		WHERE user_id = ? AND ticker = ? AND exchange = ?`,
		c.UserID, c.Ticker, c.Exchange,
	).Scan(&c.ID, &scanUnix{&c.CreatedAt})
}

// ListForUser returns all of a user's classifications ordered by ticker.
func (r *Repository) ListForUser(userID int64) ([]Classification, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, ticker, exchange, asset_class, asset_type, created_at
		FROM asset_classifications
		WHERE user_id = ?
		ORDER BY ticker, exchange`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query classifications: %w", err)
	}
	defer rows.Close()

	var list []Classification
	for rows.Next() {
		var c Classification
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.UserID, &c.Ticker, &c.Exchange, &c.AssetClass, &c.AssetType, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", err)
		}
		c.CreatedAt = time.Unix(createdAt, 0)
		list = append(list, c)
	}
	return list, rows.Err()
}

// GetForTicker returns the classification for one ticker.
func (r *Repository) GetForTicker(userID int64, ticker, exchange string) (*Classification, error) {
	var c Classification
	var createdAt int64
	err := r.db.QueryRow(`
		SELECT id, user_id, ticker, exchange, asset_class, asset_type, created_at
		FROM asset_classifications
		WHERE user_id = ? AND ticker = ? AND exchange = ?`,
		userID, ticker, exchange,
	).Scan(&c.ID, &c.UserID, &c.Ticker, &c.Exchange, &c.AssetClass, &c.AssetType, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get classification: %w", err)
	}
	c.CreatedAt = time.Unix(createdAt, 0)
	return &c, nil
}

// scanUnix adapts a *time.Time to Scan a unix-seconds integer column.
type scanUnix struct {
	t *time.Time
}

func (s *scanUnix) Scan(src interface{}) error {
	v, ok := src.(int64)
	if !ok {
		return fmt.Errorf("expected int64 timestamp, got %T", src)
	}
	*s.t = time.Unix(v, 0)
	return nil
}
