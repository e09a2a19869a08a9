package funding

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackfolio/stackfolio/internal/domain"
)

func setupTestService(t *testing.T) (*Service, func()) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())
	return NewService(repo, zerolog.Nop()), func() { db.Close() }
}

func validInput() CreateMovementInput {
	return CreateMovementInput{
		HomeCurrencyValue:   1000,
		SpotRate:            1.1,
		TransactionDate:     "2024-01-15",
		DirectionID:         DirectionDeposit,
		HomeCurrencyCode:    "EUR",
		TradingCurrencyCode: "USD",
		PeriodFrom:          "2024-01-01",
	}
}

func TestCreateMovement_DerivesTradingValue(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	in := validInput()
	in.HomeCurrencyValue = 1000
	in.SpotRate = 1.0945

	m, err := svc.CreateMovement(1, in)
	require.NoError(t, err)
	assert.Equal(t, 1094.5, m.TradingCurrencyValue)
}

func TestCreateMovement_RoundsToCents(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	in := validInput()
	in.HomeCurrencyValue = 333.33
	in.SpotRate = 1.0733

	m, err := svc.CreateMovement(1, in)
	require.NoError(t, err)
	// 333.33 * 1.0733 = 357.763089, rounded to 357.76
	assert.Equal(t, 357.76, m.TradingCurrencyValue)
}

func TestCreateMovement_ValidationWritesNoRow(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	cases := []struct {
		name   string
		mutate func(*CreateMovementInput)
	}{
		{"zero home value", func(in *CreateMovementInput) { in.HomeCurrencyValue = 0 }},
		{"zero spot rate", func(in *CreateMovementInput) { in.SpotRate = 0 }},
		{"negative spot rate", func(in *CreateMovementInput) { in.SpotRate = -1.1 }},
		{"missing transaction date", func(in *CreateMovementInput) { in.TransactionDate = "" }},
		{"malformed transaction date", func(in *CreateMovementInput) { in.TransactionDate = "15/01/2024" }},
		{"unknown direction", func(in *CreateMovementInput) { in.DirectionID = 3 }},
		{"missing home currency", func(in *CreateMovementInput) { in.HomeCurrencyCode = "" }},
		{"missing trading currency", func(in *CreateMovementInput) { in.TradingCurrencyCode = "" }},
		{"missing period from", func(in *CreateMovementInput) { in.PeriodFrom = "" }},
		{"malformed period to", func(in *CreateMovementInput) {
			bad := "June 30"
			in.PeriodTo = &bad
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			_, err := svc.CreateMovement(1, in)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
		})
	}

	// None of the rejected inputs may have written a row
	movements, err := svc.Movements(1)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestCreateMovement_NegativeHomeValueAllowed(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	in := validInput()
	in.HomeCurrencyValue = -500
	in.DirectionID = DirectionWithdrawal

	m, err := svc.CreateMovement(1, in)
	require.NoError(t, err)
	assert.Equal(t, -550.0, m.TradingCurrencyValue)
}

func TestPeriodStats_WeightedAverageRate(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	in := validInput()
	in.HomeCurrencyValue = 100
	in.SpotRate = 1.30
	_, err := svc.CreateMovement(1, in)
	require.NoError(t, err)

	in = validInput()
	in.HomeCurrencyValue = 200
	in.SpotRate = 1.40
	_, err = svc.CreateMovement(1, in)
	require.NoError(t, err)

	stats, err := svc.PeriodStats(1)
	require.NoError(t, err)
	require.Len(t, stats, 1)

	// (100*1.30 + 200*1.40) / 300 = 1.366667, not the simple mean 1.35
	assert.InDelta(t, 1.366667, stats[0].WeightedAvgRate, 1e-6)
}

func TestPeriodStats_GroupsByStoredWindow(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	closed := "2024-06-30"

	in := validInput()
	in.PeriodFrom = "2024-01-01"
	in.PeriodTo = &closed
	_, err := svc.CreateMovement(1, in)
	require.NoError(t, err)

	// Same period_from, open window: must be a distinct group
	in = validInput()
	in.PeriodFrom = "2024-01-01"
	_, err = svc.CreateMovement(1, in)
	require.NoError(t, err)

	stats, err := svc.PeriodStats(1)
	require.NoError(t, err)
	assert.Len(t, stats, 2)
}

func TestPeriodStats_TotalsAndNet(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	in := validInput()
	in.HomeCurrencyValue = 1000
	in.SpotRate = 1.1
	_, err := svc.CreateMovement(1, in)
	require.NoError(t, err)

	in = validInput()
	in.HomeCurrencyValue = 400
	in.SpotRate = 1.1
	in.DirectionID = DirectionWithdrawal
	_, err = svc.CreateMovement(1, in)
	require.NoError(t, err)

	stats, err := svc.PeriodStats(1)
	require.NoError(t, err)
	require.Len(t, stats, 1)

	st := stats[0]
	assert.Equal(t, 1, st.DepositCount)
	assert.Equal(t, 1, st.WithdrawalCount)
	assert.Equal(t, 1000.0, st.TotalDepositedHome)
	assert.Equal(t, 400.0, st.TotalWithdrawnHome)
	assert.Equal(t, 600.0, st.NetHome)
	assert.Equal(t, 1100.0, st.TotalDepositedTrading)
	assert.Equal(t, 440.0, st.TotalWithdrawnTrading)
	assert.Equal(t, 660.0, st.NetTrading)
}

func TestPeriodStats_WithdrawalsWeighedByAbsoluteAmount(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	in := validInput()
	in.HomeCurrencyValue = 100
	in.SpotRate = 1.20
	_, err := svc.CreateMovement(1, in)
	require.NoError(t, err)

	in = validInput()
	in.HomeCurrencyValue = -100
	in.SpotRate = 1.40
	in.DirectionID = DirectionWithdrawal
	_, err = svc.CreateMovement(1, in)
	require.NoError(t, err)

	stats, err := svc.PeriodStats(1)
	require.NoError(t, err)
	require.Len(t, stats, 1)

	// Weights are absolute amounts, so both movements count equally
	assert.InDelta(t, 1.30, stats[0].WeightedAvgRate, 1e-6)
	assert.Equal(t, 100.0, stats[0].TotalWithdrawnHome)
	assert.Equal(t, 0.0, stats[0].NetHome)
}

func TestMovementsForPeriod_Validation(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	_, err := svc.MovementsForPeriod(1, "", nil)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = svc.MovementsForPeriod(1, "not-a-date", nil)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	bad := "30-06-2024"
	_, err = svc.MovementsForPeriod(1, "2024-01-01", &bad)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}
