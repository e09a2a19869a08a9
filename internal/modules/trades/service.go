package trades

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/stackfolio/stackfolio/internal/domain"
)

// Service validates trade writes and derives monetary totals. Trade values
// and realized P&L are always recomputed from their components, never taken
// from client input.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new trades service.
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "trades").Logger(),
	}
}

// CreateLot validates and persists a lot with trade_value = quantity * price.
func (s *Service) CreateLot(userID int64, in TradeLotInput) (*TradeLot, error) {
	if in.Ticker == "" {
		return nil, domain.NewValidationError("ticker")
	}
	if err := validateSide(in.Side); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity")
	}
	if in.Price <= 0 {
		return nil, domain.NewValidationError("price")
	}
	if err := validateDate("trade_date", in.TradeDate); err != nil {
		return nil, err
	}

	l := &TradeLot{
		UserID:     userID,
		Ticker:     in.Ticker,
		Exchange:   in.Exchange,
		Side:       in.Side,
		Quantity:   in.Quantity,
		Price:      in.Price,
		TradeValue: mulMoney(in.Quantity, in.Price),
		TradeDate:  in.TradeDate,
	}
	if err := s.repo.CreateLot(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Lots returns a user's lots; openOnly restricts to unclosed lots.
func (s *Service) Lots(userID int64, openOnly bool) ([]TradeLot, error) {
	return s.repo.LotsForUser(userID, openOnly)
}

// CloseLot marks a lot closed.
func (s *Service) CloseLot(userID, id int64) error {
	closed, err := s.repo.CloseLot(userID, id)
	if err != nil {
		return err
	}
	if !closed {
		return domain.ErrNotFound
	}
	return nil
}

// CreateTransaction validates and persists a transaction with a fresh uuid
// and a derived trade value.
func (s *Service) CreateTransaction(userID int64, in TransactionInput) (*Transaction, error) {
	if in.Ticker == "" {
		return nil, domain.NewValidationError("ticker")
	}
	if err := validateSide(in.Side); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity")
	}
	if in.Price <= 0 {
		return nil, domain.NewValidationError("price")
	}
	if in.Currency == "" {
		return nil, domain.NewValidationError("currency")
	}
	if err := validateDate("executed_at", in.ExecutedAt); err != nil {
		return nil, err
	}

	tx := &Transaction{
		ID:         uuid.NewString(),
		UserID:     userID,
		Ticker:     in.Ticker,
		Side:       in.Side,
		Quantity:   in.Quantity,
		Price:      in.Price,
		TradeValue: mulMoney(in.Quantity, in.Price),
		Currency:   in.Currency,
		ExecutedAt: in.ExecutedAt,
	}
	if err := s.repo.CreateTransaction(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Transactions returns a user's transactions.
func (s *Service) Transactions(userID int64) ([]Transaction, error) {
	return s.repo.TransactionsForUser(userID)
}

// RecordRealizedPnL validates and appends a realization with
// realized_pnl = proceeds - cost_basis.
func (s *Service) RecordRealizedPnL(userID int64, in RealizedPnLInput) (*RealizedPnL, error) {
	if in.Ticker == "" {
		return nil, domain.NewValidationError("ticker")
	}
	if in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity")
	}
	if in.Proceeds < 0 {
		return nil, domain.NewValidationError("proceeds")
	}
	if in.CostBasis < 0 {
		return nil, domain.NewValidationError("cost_basis")
	}
	if err := validateDate("closed_at", in.ClosedAt); err != nil {
		return nil, err
	}

	pnl := decimal.NewFromFloat(in.Proceeds).
		Sub(decimal.NewFromFloat(in.CostBasis)).
		Round(2).
		InexactFloat64()

	p := &RealizedPnL{
		UserID:      userID,
		Ticker:      in.Ticker,
		Quantity:    in.Quantity,
		Proceeds:    in.Proceeds,
		CostBasis:   in.CostBasis,
		RealizedPnL: pnl,
		ClosedAt:    in.ClosedAt,
	}
	if err := s.repo.CreateRealizedPnL(p); err != nil {
		return nil, err
	}
	return p, nil
}

// RealizedPnLHistory returns a user's realization records.
func (s *Service) RealizedPnLHistory(userID int64) ([]RealizedPnL, error) {
	return s.repo.RealizedPnLForUser(userID)
}

func mulMoney(quantity, price float64) float64 {
	return decimal.NewFromFloat(quantity).
		Mul(decimal.NewFromFloat(price)).
		Round(2).
		InexactFloat64()
}

func validateSide(side string) error {
	if side != SideBuy && side != SideSell {
		return &domain.ValidationError{Field: "side", Reason: "must be buy or sell"}
	}
	return nil
}

func validateDate(field, value string) error {
	if value == "" {
		return domain.NewValidationError(field)
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return &domain.ValidationError{Field: field, Reason: "expected YYYY-MM-DD"}
	}
	return nil
}
