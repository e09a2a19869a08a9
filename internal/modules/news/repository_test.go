package news

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/stackfolio/stackfolio/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE news_types (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);
		INSERT INTO news_types (id, name) VALUES (1, 'news'), (2, 'alert');

		CREATE TABLE news_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			ticker TEXT NOT NULL,
			type_id INTEGER NOT NULL,
			headline TEXT NOT NULL,
			body TEXT,
			published_at TEXT NOT NULL,
			staged INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	return db
}

func testItem(userID int64, ticker string, typeID int, staged bool) *Item {
	return &Item{
		UserID:      userID,
		Ticker:      ticker,
		TypeID:      typeID,
		Headline:    ticker + " headline",
		PublishedAt: "2024-06-01",
		Staged:      staged,
	}
}

func TestCreateAndListByTicker(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Create(testItem(1, "AAPL", TypeNews, false)))
	require.NoError(t, repo.Create(testItem(1, "AAPL", TypeAlert, false)))
	require.NoError(t, repo.Create(testItem(1, "MSFT", TypeNews, false)))

	items, err := repo.List(1, "AAPL", 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, "AAPL", item.Ticker)
	}

	all, err := repo.List(1, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestList_FiltersByType(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Create(testItem(1, "AAPL", TypeNews, false)))
	require.NoError(t, repo.Create(testItem(1, "AAPL", TypeAlert, false)))
	require.NoError(t, repo.Create(testItem(1, "MSFT", TypeAlert, false)))

	alerts, err := repo.List(1, "", TypeAlert)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	for _, item := range alerts {
		assert.Equal(t, "alert", item.Type)
	}

	// Both filters combine
	aaplAlerts, err := repo.List(1, "AAPL", TypeAlert)
	require.NoError(t, err)
	assert.Len(t, aaplAlerts, 1)
}

func TestCreate_JoinsTypeName(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Create(testItem(1, "AAPL", TypeAlert, false)))

	items, err := repo.List(1, "AAPL", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "alert", items[0].Type)
}

func TestCreate_RejectsUnknownType(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	err := repo.Create(testItem(1, "AAPL", 9, false))
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestStagedItemsHiddenAndPurged(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Create(testItem(1, "AAPL", TypeNews, false)))
	require.NoError(t, repo.Create(testItem(1, "AAPL", TypeNews, true)))
	require.NoError(t, repo.Create(testItem(2, "AAPL", TypeNews, true)))

	// Staged items never appear in listings
	items, err := repo.List(1, "AAPL", 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// Purge deletes only this user's staged rows
	deleted, err := repo.PurgeStaged(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM news_items`).Scan(&remaining))
	assert.Equal(t, 2, remaining)
}
