package dividends

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/stackfolio/stackfolio/internal/domain"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// Service validates dividend writes and computes quarter windows.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new dividends service.
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "dividends").Logger(),
	}
}

// Create validates the input and persists a dividend with the total
// recomputed from its components.
func (s *Service) Create(userID int64, in DividendInput) (*Dividend, error) {
	if err := validateDividendInput(in); err != nil {
		return nil, err
	}

	d := &Dividend{
		UserID:      userID,
		Ticker:      in.Ticker,
		ExDate:      in.ExDate,
		PayDate:     in.PayDate,
		PerShare:    in.PerShare,
		SharesOwned: in.SharesOwned,
		TotalAmount: computeTotal(in.PerShare, in.SharesOwned),
		Currency:    in.Currency,
	}
	if err := s.repo.Create(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Update rewrites a dividend. The stored total is recomputed from per-share
// and shares-owned even when the client supplies an inconsistent value.
func (s *Service) Update(userID, id int64, in DividendInput) (*Dividend, error) {
	if err := validateDividendInput(in); err != nil {
		return nil, err
	}

	d := &Dividend{
		ID:          id,
		UserID:      userID,
		Ticker:      in.Ticker,
		ExDate:      in.ExDate,
		PayDate:     in.PayDate,
		PerShare:    in.PerShare,
		SharesOwned: in.SharesOwned,
		TotalAmount: computeTotal(in.PerShare, in.SharesOwned),
		Currency:    in.Currency,
	}
	if err := s.repo.Update(d); err != nil {
		return nil, err
	}
	return s.repo.GetByID(userID, id)
}

// DetailByTicker returns one page of a ticker's dividends.
func (s *Service) DetailByTicker(userID int64, ticker string, page, pageSize int) (*DetailPage, error) {
	page, pageSize = clampPaging(page, pageSize)
	return s.repo.DetailByTicker(userID, ticker, page, pageSize)
}

// SummaryByTicker returns per-ticker totals, largest first.
func (s *Service) SummaryByTicker(userID int64) ([]TickerSummary, error) {
	return s.repo.SummaryByTicker(userID)
}

// SummaryByYear returns per-year totals, newest first.
func (s *Service) SummaryByYear(userID int64) ([]YearSummary, error) {
	return s.repo.SummaryByYear(userID)
}

// SummaryByQuarter returns per-quarter totals, newest first.
func (s *Service) SummaryByQuarter(userID int64) ([]QuarterSummary, error) {
	return s.repo.SummaryByQuarter(userID)
}

// DetailByQuarter returns one page of dividends whose ex-date falls inside
// the given calendar quarter.
func (s *Service) DetailByQuarter(userID int64, year, quarter, page, pageSize int) (*DetailPage, error) {
	start, end, err := quarterRange(year, quarter)
	if err != nil {
		return nil, err
	}
	page, pageSize = clampPaging(page, pageSize)
	return s.repo.DetailByExDateRange(userID, start, end, page, pageSize)
}

// DetailByYear returns one page of dividends whose ex-date falls inside the
// given calendar year.
func (s *Service) DetailByYear(userID int64, year, page, pageSize int) (*DetailPage, error) {
	if year < 1900 || year > 2200 {
		return nil, domain.NewValidationError("year")
	}
	start := fmt.Sprintf("%04d-01-01", year)
	end := fmt.Sprintf("%04d-01-01", year+1)
	page, pageSize = clampPaging(page, pageSize)
	return s.repo.DetailByExDateRange(userID, start, end, page, pageSize)
}

// quarterRange returns the [start, end) ex-date window for a 1-based calendar
// quarter. Quarter q covers months (q-1)*3+1 through q*3; quarter 4 ends on
// January 1 of the following year.
func quarterRange(year, quarter int) (string, string, error) {
	if year < 1900 || year > 2200 {
		return "", "", domain.NewValidationError("year")
	}
	if quarter < 1 || quarter > 4 {
		return "", "", &domain.ValidationError{Field: "quarter", Reason: "must be 1 through 4"}
	}

	startMonth := (quarter-1)*3 + 1
	start := fmt.Sprintf("%04d-%02d-01", year, startMonth)

	endYear, endMonth := year, quarter*3+1
	if quarter == 4 {
		endYear, endMonth = year+1, 1
	}
	end := fmt.Sprintf("%04d-%02d-01", endYear, endMonth)

	return start, end, nil
}

func computeTotal(perShare, sharesOwned float64) float64 {
	return decimal.NewFromFloat(perShare).
		Mul(decimal.NewFromFloat(sharesOwned)).
		Round(2).
		InexactFloat64()
}

func clampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func validateDividendInput(in DividendInput) error {
	if in.Ticker == "" {
		return domain.NewValidationError("ticker")
	}
	if in.ExDate == "" {
		return domain.NewValidationError("ex_date")
	}
	if _, err := time.Parse("2006-01-02", in.ExDate); err != nil {
		return &domain.ValidationError{Field: "ex_date", Reason: "expected YYYY-MM-DD"}
	}
	if in.PayDate != nil {
		if _, err := time.Parse("2006-01-02", *in.PayDate); err != nil {
			return &domain.ValidationError{Field: "pay_date", Reason: "expected YYYY-MM-DD"}
		}
	}
	if in.PerShare <= 0 {
		return domain.NewValidationError("per_share")
	}
	if in.SharesOwned <= 0 {
		return domain.NewValidationError("shares_owned")
	}
	if in.Currency == "" {
		return domain.NewValidationError("currency")
	}
	return nil
}
