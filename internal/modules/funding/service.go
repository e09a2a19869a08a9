package funding

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/stackfolio/stackfolio/internal/domain"
)

// Service is the single source of truth for a user's deposit/withdrawal ledger
// and its period-based aggregation.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new funding service.
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "funding").Logger(),
	}
}

// CreateMovement validates the input, derives the trading-currency amount from
// the home amount and spot rate, persists the movement, and returns the created
// record. A missing required field yields a domain.ValidationError and no row
// is written.
func (s *Service) CreateMovement(userID int64, in CreateMovementInput) (*CashMovement, error) {
	if err := validateMovementInput(in); err != nil {
		return nil, err
	}

	// Derived server-side; a client-supplied trading amount is never trusted.
	home := decimal.NewFromFloat(in.HomeCurrencyValue)
	rate := decimal.NewFromFloat(in.SpotRate)
	trading := home.Mul(rate).Round(2)

	m := &CashMovement{
		UserID:               userID,
		DirectionID:          in.DirectionID,
		HomeCurrencyValue:    in.HomeCurrencyValue,
		TradingCurrencyValue: trading.InexactFloat64(),
		SpotRate:             in.SpotRate,
		HomeCurrencyCode:     in.HomeCurrencyCode,
		TradingCurrencyCode:  in.TradingCurrencyCode,
		TransactionDate:      in.TransactionDate,
		PeriodFrom:           in.PeriodFrom,
		PeriodTo:             in.PeriodTo,
		Notes:                in.Notes,
	}

	if err := s.repo.Create(m); err != nil {
		return nil, fmt.Errorf("failed to create cash movement: %w", err)
	}

	return m, nil
}

// Movements returns all movements for a user, newest first.
func (s *Service) Movements(userID int64) ([]CashMovement, error) {
	return s.repo.AllForUser(userID)
}

// Currencies returns the distinct trading currencies in the user's history.
func (s *Service) Currencies(userID int64) ([]string, error) {
	return s.repo.Currencies(userID)
}

// UniquePeriods returns the distinct period windows in the user's history.
func (s *Service) UniquePeriods(userID int64) ([]Period, error) {
	return s.repo.UniquePeriods(userID)
}

// MovementsForPeriod returns the movements whose stored window matches exactly.
// periodTo == nil selects the currently open period (period_to IS NULL).
func (s *Service) MovementsForPeriod(userID int64, periodFrom string, periodTo *string) ([]CashMovement, error) {
	if periodFrom == "" {
		return nil, domain.NewValidationError("period_from")
	}
	if _, err := time.Parse("2006-01-02", periodFrom); err != nil {
		return nil, &domain.ValidationError{Field: "period_from", Reason: "expected YYYY-MM-DD"}
	}
	if periodTo != nil {
		if _, err := time.Parse("2006-01-02", *periodTo); err != nil {
			return nil, &domain.ValidationError{Field: "period_to", Reason: "expected YYYY-MM-DD"}
		}
	}
	return s.repo.ForPeriod(userID, periodFrom, periodTo)
}

// PeriodStats aggregates the user's movements per period window: deposit and
// withdrawal totals in both currencies, per-direction counts, net balance, and
// the FX rate averaged with home-currency amounts as weights. Aggregation
// groups strictly by the stored window values; windows are investor-defined,
// not calendar quarters.
func (s *Service) PeriodStats(userID int64) ([]PeriodStats, error) {
	movements, err := s.repo.AllForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load movements for stats: %w", err)
	}

	type accumulator struct {
		stats            PeriodStats
		weightedRateSum  decimal.Decimal // sum(|home amount| * rate)
		weightSum        decimal.Decimal // sum(|home amount|)
		depositedHome    decimal.Decimal
		depositedTrading decimal.Decimal
		withdrawnHome    decimal.Decimal
		withdrawnTrading decimal.Decimal
	}

	byPeriod := make(map[string]*accumulator)
	var order []string

	for _, m := range movements {
		p := Period{From: m.PeriodFrom, To: m.PeriodTo}
		key := p.Key()

		acc, ok := byPeriod[key]
		if !ok {
			acc = &accumulator{stats: PeriodStats{Period: p}}
			byPeriod[key] = acc
			order = append(order, key)
		}

		home := decimal.NewFromFloat(m.HomeCurrencyValue).Abs()
		trading := decimal.NewFromFloat(m.TradingCurrencyValue).Abs()
		rate := decimal.NewFromFloat(m.SpotRate)

		switch m.DirectionID {
		case DirectionDeposit:
			acc.stats.DepositCount++
			acc.depositedHome = acc.depositedHome.Add(home)
			acc.depositedTrading = acc.depositedTrading.Add(trading)
		case DirectionWithdrawal:
			acc.stats.WithdrawalCount++
			acc.withdrawnHome = acc.withdrawnHome.Add(home)
			acc.withdrawnTrading = acc.withdrawnTrading.Add(trading)
		}

		acc.weightedRateSum = acc.weightedRateSum.Add(home.Mul(rate))
		acc.weightSum = acc.weightSum.Add(home)
	}

	stats := make([]PeriodStats, 0, len(order))
	for _, key := range order {
		acc := byPeriod[key]
		st := acc.stats
		st.TotalDepositedHome = acc.depositedHome.InexactFloat64()
		st.TotalDepositedTrading = acc.depositedTrading.InexactFloat64()
		st.TotalWithdrawnHome = acc.withdrawnHome.InexactFloat64()
		st.TotalWithdrawnTrading = acc.withdrawnTrading.InexactFloat64()
		st.NetHome = acc.depositedHome.Sub(acc.withdrawnHome).InexactFloat64()
		st.NetTrading = acc.depositedTrading.Sub(acc.withdrawnTrading).InexactFloat64()
		if !acc.weightSum.IsZero() {
			st.WeightedAvgRate = acc.weightedRateSum.Div(acc.weightSum).Round(6).InexactFloat64()
		}
		stats = append(stats, st)
	}

	return stats, nil
}

// validateMovementInput checks the required fields for a new movement.
func validateMovementInput(in CreateMovementInput) error {
	if in.HomeCurrencyValue == 0 {
		return domain.NewValidationError("home_currency_value")
	}
	if in.SpotRate <= 0 {
		return domain.NewValidationError("spot_rate")
	}
	if in.TransactionDate == "" {
		return domain.NewValidationError("transaction_date")
	}
	if _, err := time.Parse("2006-01-02", in.TransactionDate); err != nil {
		return &domain.ValidationError{Field: "transaction_date", Reason: "expected YYYY-MM-DD"}
	}
	if in.DirectionID != DirectionDeposit && in.DirectionID != DirectionWithdrawal {
		return domain.NewValidationError("direction_id")
	}
	if in.HomeCurrencyCode == "" {
		return domain.NewValidationError("home_currency_code")
	}
	if in.TradingCurrencyCode == "" {
		return domain.NewValidationError("trading_currency_code")
	}
	if in.PeriodFrom == "" {
		return domain.NewValidationError("period_from")
	}
	if _, err := time.Parse("2006-01-02", in.PeriodFrom); err != nil {
		return &domain.ValidationError{Field: "period_from", Reason: "expected YYYY-MM-DD"}
	}
	if in.PeriodTo != nil {
		if _, err := time.Parse("2006-01-02", *in.PeriodTo); err != nil {
			return &domain.ValidationError{Field: "period_to", Reason: "expected YYYY-MM-DD"}
		}
	}
	return nil
}
