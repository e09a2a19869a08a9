package trades

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
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
		CREATE TABLE trade_lots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			ticker TEXT NOT NULL,
			exchange TEXT NOT NULL DEFAULT '',
			side TEXT NOT NULL,
			quantity REAL NOT NULL,
			price REAL NOT NULL,
			trade_value REAL NOT NULL,
			trade_date TEXT NOT NULL,
			closed INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);
		CREATE TABLE transactions (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			ticker TEXT NOT NULL,
			side TEXT NOT NULL,
			quantity REAL NOT NULL,
			price REAL NOT NULL,
			trade_value REAL NOT NULL,
			currency TEXT NOT NULL,
			executed_at TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE TABLE realized_pnl_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			ticker TEXT NOT NULL,
			quantity REAL NOT NULL,
			proceeds REAL NOT NULL,
			cost_basis REAL NOT NULL,
			realized_pnl REAL NOT NULL,
			closed_at TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	return db
}

func setupTestService(t *testing.T) (*Service, func()) {
	db := setupTestDB(t)
	return NewService(NewRepository(db, zerolog.Nop()), zerolog.Nop()), func() { db.Close() }
}

func TestCreateLot_DerivesTradeValue(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	lot, err := svc.CreateLot(1, TradeLotInput{
		Ticker:    "AAPL",
		Exchange:  "NYSE",
		Side:      SideBuy,
		Quantity:  7,
		Price:     182.52,
		TradeDate: "2024-05-02",
	})
	require.NoError(t, err)
	// 7 * 182.52 = 1277.64
	assert.Equal(t, 1277.64, lot.TradeValue)
	assert.False(t, lot.Closed)
}

func TestCreateLot_Validation(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	_, err := svc.CreateLot(1, TradeLotInput{Ticker: "AAPL", Side: "short", Quantity: 1, Price: 1, TradeDate: "2024-05-02"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = svc.CreateLot(1, TradeLotInput{Ticker: "AAPL", Side: SideBuy, Quantity: 0, Price: 1, TradeDate: "2024-05-02"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = svc.CreateLot(1, TradeLotInput{Ticker: "AAPL", Side: SideBuy, Quantity: 1, Price: 1, TradeDate: "bad"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestCloseLot(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	lot, err := svc.CreateLot(1, TradeLotInput{
		Ticker: "AAPL", Side: SideBuy, Quantity: 10, Price: 100, TradeDate: "2024-05-02",
	})
	require.NoError(t, err)

	require.NoError(t, svc.CloseLot(1, lot.ID))

	open, err := svc.Lots(1, true)
	require.NoError(t, err)
	assert.Empty(t, open)

	all, err := svc.Lots(1, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Closed)

	// Closing again or closing another user's lot is not found
	assert.ErrorIs(t, svc.CloseLot(1, lot.ID), domain.ErrNotFound)
	assert.ErrorIs(t, svc.CloseLot(2, lot.ID), domain.ErrNotFound)
}

func TestCreateTransaction_AssignsUUID(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	tx, err := svc.CreateTransaction(1, TransactionInput{
		Ticker:     "MSFT",
		Side:       SideSell,
		Quantity:   3,
		Price:      410.10,
		Currency:   "USD",
		ExecutedAt: "2024-06-14",
	})
	require.NoError(t, err)
	_, parseErr := uuid.Parse(tx.ID)
	assert.NoError(t, parseErr)
	assert.Equal(t, 1230.30, tx.TradeValue)

	txs, err := svc.Transactions(1)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, tx.ID, txs[0].ID)
}

func TestRecordRealizedPnL_Derived(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	record, err := svc.RecordRealizedPnL(1, RealizedPnLInput{
		Ticker:    "AAPL",
		Quantity:  10,
		Proceeds:  1900,
		CostBasis: 1500.50,
		ClosedAt:  "2024-07-01",
	})
	require.NoError(t, err)
	assert.Equal(t, 399.50, record.RealizedPnL)

	// Losses come out negative
	loss, err := svc.RecordRealizedPnL(1, RealizedPnLInput{
		Ticker:    "GE",
		Quantity:  5,
		Proceeds:  400,
		CostBasis: 600,
		ClosedAt:  "2024-07-02",
	})
	require.NoError(t, err)
	assert.Equal(t, -200.0, loss.RealizedPnL)

	history, err := svc.RealizedPnLHistory(1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-07-02", history[0].ClosedAt)
}
