// Package news stores per-ticker news and alert records.
package news

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stackfolio/stackfolio/internal/domain"
)

const itemColumns = `n.id, n.user_id, n.ticker, n.type_id, t.name, n.headline, n.body, n.published_at, n.staged, n.created_at`
const itemJoin = ` FROM news_items n JOIN news_types t ON t.id = n.type_id`

// Repository handles database operations for news items
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new news repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "news").Logger(),
	}
}

// Create inserts a news item.
func (r *Repository) Create(item *Item) error {
	if item.TypeID != TypeNews && item.TypeID != TypeAlert {
		return domain.NewValidationError("type_id")
	}

	now := time.Now()
	result, err := r.db.Exec(`
		INSERT INTO news_items (user_id, ticker, type_id, headline, body, published_at, staged, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.UserID, item.Ticker, item.TypeID, item.Headline, nullString(item.Body), item.PublishedAt, boolToInt(item.Staged), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create news item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get news item id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	if item.TypeID == TypeAlert {
		item.Type = "alert"
	} else {
		item.Type = "news"
	}
	return nil
}

// List returns a user's unstaged items, newest first, optionally filtered by
// ticker and/or type. Zero values skip the corresponding filter.
func (r *Repository) List(userID int64, ticker string, typeID int64) ([]Item, error) {
	query := `SELECT ` + itemColumns + itemJoin + ` WHERE n.user_id = ? AND n.staged = 0`
	args := []interface{}{userID}
	if ticker != "" {
		query += ` AND n.ticker = ?`
		args = append(args, ticker)
	}
	if typeID != 0 {
		query += ` AND n.type_id = ?`
		args = append(args, typeID)
	}
	query += ` ORDER BY n.published_at DESC, n.id DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query news items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var body sql.NullString
		var createdAt int64
		if err := rows.Scan(&item.ID, &item.UserID, &item.Ticker, &item.TypeID, &item.Type,
			&item.Headline, &body, &item.PublishedAt, &item.Staged, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan news item: %w", err)
		}
		if body.Valid {
			item.Body = &body.String
		}
		item.CreatedAt = time.Unix(createdAt, 0)
		items = append(items, item)
	}
	return items, rows.Err()
}

// PurgeStaged deletes a user's staged items. This is the only hard delete in
// the news lifecycle.
func (r *Repository) PurgeStaged(userID int64) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM news_items WHERE user_id = ? AND staged = 1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge staged news: %w", err)
	}
	return result.RowsAffected()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
