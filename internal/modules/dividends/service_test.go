package dividends

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
		CREATE TABLE dividends (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			ticker TEXT NOT NULL,
			ex_date TEXT NOT NULL,
			pay_date TEXT,
			per_share REAL NOT NULL,
			shares_owned REAL NOT NULL,
			total_amount REAL NOT NULL,
			currency TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER
		)
	`)
	require.NoError(t, err)

	return db
}

func setupTestService(t *testing.T) (*Service, func()) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())
	return NewService(repo, zerolog.Nop()), func() { db.Close() }
}

func dividendInput(ticker, exDate string, perShare, shares float64) DividendInput {
	return DividendInput{
		Ticker:      ticker,
		ExDate:      exDate,
		PerShare:    perShare,
		SharesOwned: shares,
		Currency:    "USD",
	}
}

func TestQuarterRange(t *testing.T) {
	cases := []struct {
		year, quarter int
		start, end    string
	}{
		{2024, 1, "2024-01-01", "2024-04-01"},
		{2024, 2, "2024-04-01", "2024-07-01"},
		{2024, 3, "2024-07-01", "2024-10-01"},
		{2024, 4, "2024-10-01", "2025-01-01"},
	}
	for _, tc := range cases {
		start, end, err := quarterRange(tc.year, tc.quarter)
		require.NoError(t, err)
		assert.Equal(t, tc.start, start)
		assert.Equal(t, tc.end, end)
	}

	_, _, err := quarterRange(2024, 0)
	assert.True(t, domain.IsValidation(err))
	_, _, err = quarterRange(2024, 5)
	assert.True(t, domain.IsValidation(err))
}

func TestCreate_ComputesTotal(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	d, err := svc.Create(1, dividendInput("AAPL", "2024-02-09", 0.24, 150))
	require.NoError(t, err)
	assert.Equal(t, 36.0, d.TotalAmount)
	assert.NotZero(t, d.ID)
}

func TestCreate_RoundsTotalToCents(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	// 0.1025 * 33 = 3.3825
	d, err := svc.Create(1, dividendInput("VOO", "2024-03-27", 0.1025, 33))
	require.NoError(t, err)
	assert.Equal(t, 3.38, d.TotalAmount)
}

func TestUpdate_RecomputesTotalServerSide(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	d, err := svc.Create(1, dividendInput("AAPL", "2024-02-09", 0.24, 100))
	require.NoError(t, err)
	assert.Equal(t, 24.0, d.TotalAmount)

	updated, err := svc.Update(1, d.ID, dividendInput("AAPL", "2024-02-09", 0.25, 120))
	require.NoError(t, err)
	assert.Equal(t, 30.0, updated.TotalAmount)

	// Reload to confirm the stored value was recomputed, not trusted
	reloaded, err := svc.repo.GetByID(1, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, reloaded.TotalAmount)
}

func TestUpdate_OtherUsersRowNotFound(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	d, err := svc.Create(1, dividendInput("AAPL", "2024-02-09", 0.24, 100))
	require.NoError(t, err)

	_, err = svc.Update(2, d.ID, dividendInput("AAPL", "2024-02-09", 0.30, 100))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_Validation(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	cases := []struct {
		name   string
		mutate func(*DividendInput)
	}{
		{"missing ticker", func(in *DividendInput) { in.Ticker = "" }},
		{"missing ex date", func(in *DividendInput) { in.ExDate = "" }},
		{"malformed ex date", func(in *DividendInput) { in.ExDate = "02/09/2024" }},
		{"zero per share", func(in *DividendInput) { in.PerShare = 0 }},
		{"zero shares", func(in *DividendInput) { in.SharesOwned = 0 }},
		{"missing currency", func(in *DividendInput) { in.Currency = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := dividendInput("AAPL", "2024-02-09", 0.24, 100)
			tc.mutate(&in)
			_, err := svc.Create(1, in)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
		})
	}
}

func TestDetailByQuarter_Q4SpansIntoNextYear(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	_, err := svc.Create(1, dividendInput("AAPL", "2024-09-30", 0.24, 100)) // Q3
	require.NoError(t, err)
	_, err = svc.Create(1, dividendInput("AAPL", "2024-10-01", 0.24, 100)) // Q4 first day
	require.NoError(t, err)
	_, err = svc.Create(1, dividendInput("AAPL", "2024-12-31", 0.24, 100)) // Q4 last day
	require.NoError(t, err)
	_, err = svc.Create(1, dividendInput("AAPL", "2025-01-01", 0.24, 100)) // next year
	require.NoError(t, err)

	detail, err := svc.DetailByQuarter(1, 2024, 4, 1, 25)
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, "2024-12-31", detail.Items[0].ExDate)
	assert.Equal(t, "2024-10-01", detail.Items[1].ExDate)
	assert.Equal(t, 2, detail.Total)
}

func TestDetailByYear_BoundsAreCalendarYear(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	_, err := svc.Create(1, dividendInput("AAPL", "2023-12-31", 0.24, 100))
	require.NoError(t, err)
	_, err = svc.Create(1, dividendInput("AAPL", "2024-01-01", 0.24, 100))
	require.NoError(t, err)
	_, err = svc.Create(1, dividendInput("AAPL", "2024-12-31", 0.24, 100))
	require.NoError(t, err)
	_, err = svc.Create(1, dividendInput("AAPL", "2025-01-01", 0.24, 100))
	require.NoError(t, err)

	detail, err := svc.DetailByYear(1, 2024, 1, 25)
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, "2024-12-31", detail.Items[0].ExDate)
	assert.Equal(t, "2024-01-01", detail.Items[1].ExDate)

	_, err = svc.DetailByYear(1, 10, 1, 25)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestDetailByTicker_Pagination(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	dates := []string{"2024-01-15", "2024-04-15", "2024-07-15", "2024-10-15", "2025-01-15"}
	for _, d := range dates {
		_, err := svc.Create(1, dividendInput("MSFT", d, 0.75, 40))
		require.NoError(t, err)
	}

	page1, err := svc.DetailByTicker(1, "MSFT", 1, 2)
	require.NoError(t, err)
	assert.Len(t, page1.Items, 2)
	assert.Equal(t, 5, page1.Total)
	assert.Equal(t, "2025-01-15", page1.Items[0].ExDate)

	page3, err := svc.DetailByTicker(1, "MSFT", 3, 2)
	require.NoError(t, err)
	assert.Len(t, page3.Items, 1)
	assert.Equal(t, "2024-01-15", page3.Items[0].ExDate)
}

func TestSummaryByTicker_OrderedByTotalDesc(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	_, err := svc.Create(1, dividendInput("AAPL", "2024-02-09", 0.24, 100)) // 24
	require.NoError(t, err)
	_, err = svc.Create(1, dividendInput("MSFT", "2024-03-14", 0.75, 40)) // 30
	require.NoError(t, err)
	_, err = svc.Create(1, dividendInput("MSFT", "2024-06-13", 0.75, 40)) // 30 -> 60 total
	require.NoError(t, err)

	summary, err := svc.SummaryByTicker(1)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "MSFT", summary[0].Ticker)
	assert.Equal(t, 60.0, summary[0].TotalAmount)
	assert.Equal(t, 2, summary[0].Count)
	assert.Equal(t, "AAPL", summary[1].Ticker)
}

func TestSummaryByQuarter(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	_, err := svc.Create(1, dividendInput("AAPL", "2024-02-09", 0.24, 100))
	require.NoError(t, err)
	_, err = svc.Create(1, dividendInput("AAPL", "2024-03-15", 0.24, 100))
	require.NoError(t, err)
	_, err = svc.Create(1, dividendInput("AAPL", "2024-11-08", 0.25, 100))
	require.NoError(t, err)

	summary, err := svc.SummaryByQuarter(1)
	require.NoError(t, err)
	require.Len(t, summary, 2)

	// Newest quarter first
	assert.Equal(t, 2024, summary[0].Year)
	assert.Equal(t, 4, summary[0].Quarter)
	assert.Equal(t, 1, summary[0].Count)
	assert.Equal(t, 2024, summary[1].Year)
	assert.Equal(t, 1, summary[1].Quarter)
	assert.Equal(t, 2, summary[1].Count)
	assert.Equal(t, 48.0, summary[1].TotalAmount)
}

func TestSummaryByYear(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	_, err := svc.Create(1, dividendInput("AAPL", "2023-11-10", 0.24, 100))
	require.NoError(t, err)
	_, err = svc.Create(1, dividendInput("AAPL", "2024-02-09", 0.24, 100))
	require.NoError(t, err)

	summary, err := svc.SummaryByYear(1)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, 2024, summary[0].Year)
	assert.Equal(t, 2023, summary[1].Year)
}
