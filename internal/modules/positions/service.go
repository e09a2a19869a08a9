package positions

import (
	"github.com/rs/zerolog"

	"github.com/stackfolio/stackfolio/internal/domain"
)

// Service validates position writes.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new positions service.
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "positions").Logger(),
	}
}

// List returns a user's positions, optionally filtered by the active flag.
func (s *Service) List(userID int64, isActive *bool) ([]Position, error) {
	return s.repo.GetByUser(userID, isActive)
}

// Get returns one position.
func (s *Service) Get(userID, id int64) (*Position, error) {
	return s.repo.GetByID(userID, id)
}

// Create validates and persists a new position. New positions default to
// active unless the flag is supplied.
func (s *Service) Create(userID int64, in PositionInput) (*Position, error) {
	if err := validatePositionInput(in); err != nil {
		return nil, err
	}

	p := positionFromInput(userID, in)
	if err := s.repo.Create(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update validates and rewrites a position.
func (s *Service) Update(userID, id int64, in PositionInput) (*Position, error) {
	if err := validatePositionInput(in); err != nil {
		return nil, err
	}

	p := positionFromInput(userID, in)
	p.ID = id
	if err := s.repo.Update(p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(userID, id)
}

func positionFromInput(userID int64, in PositionInput) *Position {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &Position{
		UserID:        userID,
		Ticker:        in.Ticker,
		Exchange:      in.Exchange,
		Quantity:      in.Quantity,
		AvgCost:       in.AvgCost,
		MarketValue:   in.MarketValue,
		UnrealizedPnL: in.UnrealizedPnL,
		Currency:      in.Currency,
		IsActive:      active,
	}
}

func validatePositionInput(in PositionInput) error {
	if in.Ticker == "" {
		return domain.NewValidationError("ticker")
	}
	if in.Quantity < 0 {
		return &domain.ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	if in.AvgCost < 0 {
		return &domain.ValidationError{Field: "avg_cost", Reason: "must not be negative"}
	}
	if in.Currency == "" {
		return domain.NewValidationError("currency")
	}
	return nil
}
