package classifications

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
		CREATE TABLE asset_classifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			ticker TEXT NOT NULL,
			exchange TEXT NOT NULL DEFAULT '',
			asset_class TEXT NOT NULL,
			asset_type TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			UNIQUE(user_id, ticker, exchange)
		)
	`)
	require.NoError(t, err)

	return db
}

func TestUpsert_InsertThenReplace(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	c := &Classification{UserID: 1, Ticker: "AAPL", Exchange: "NYSE", AssetClass: "Equity", AssetType: "Stock"}
	require.NoError(t, repo.Upsert(c))
	assert.NotZero(t, c.ID)
	firstID := c.ID

	c2 := &Classification{UserID: 1, Ticker: "AAPL", Exchange: "NYSE", AssetClass: "Equity", AssetType: "ETF"}
	require.NoError(t, repo.Upsert(c2))
	assert.Equal(t, firstID, c2.ID)

	got, err := repo.GetForTicker(1, "AAPL", "NYSE")
	require.NoError(t, err)
	assert.Equal(t, "ETF", got.AssetType)

	list, err := repo.ListForUser(1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetForTicker_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	_, err := repo.GetForTicker(1, "AAPL", "NYSE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListForUser_ScopedAndOrdered(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Upsert(&Classification{UserID: 1, Ticker: "TLT", AssetClass: "Fixed Income", AssetType: "ETF"}))
	require.NoError(t, repo.Upsert(&Classification{UserID: 1, Ticker: "AAPL", AssetClass: "Equity", AssetType: "Stock"}))
	require.NoError(t, repo.Upsert(&Classification{UserID: 2, Ticker: "MSFT", AssetClass: "Equity", AssetType: "Stock"}))

	list, err := repo.ListForUser(1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "AAPL", list[0].Ticker)
	assert.Equal(t, "TLT", list[1].Ticker)
}
