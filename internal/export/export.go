package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/lpmon/internal/archive"
	"github.com/mtlprog/lpmon/internal/domain"
)

// Row is one wallet's line in the daily export.
type Row struct {
	Date          time.Time
	WalletID      string
	Positions     int
	TotalValue    decimal.Decimal
	Liquidity     decimal.Decimal
	UnclaimedFees decimal.Decimal
	DailyEarnings decimal.Decimal
	Synthetic     bool
	DayChange     *decimal.Decimal
	WeekChange    *decimal.Decimal
	MonthChange   *decimal.Decimal
}

// SheetWriter writes export rows to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, rows []Row) error
}

// HistorySource looks up earlier archives for period changes.
type HistorySource interface {
	GetByDate(ctx context.Context, walletID string, date time.Time) (*archive.Record, error)
}

// Service turns archived portfolios into export rows and delegates writing to a SheetWriter.
type Service struct {
	history   HistorySource // optional
	writer    SheetWriter
	synthetic bool
}

// NewService creates an export Service. synthetic marks every row as built
// from synthetic data.
func NewService(history HistorySource, writer SheetWriter, synthetic bool) *Service {
	return &Service{history: history, writer: writer, synthetic: synthetic}
}

// Export writes one row per portfolio. Implements worker.AfterArchiveHook.
func (s *Service) Export(ctx context.Context, date time.Time, portfolios []domain.WalletLPPortfolio) error {
	if len(portfolios) == 0 {
		slog.Info("export: nothing to export", "date", date.Format(time.DateOnly))
		return nil
	}
	rows := lo.Map(portfolios, func(p domain.WalletLPPortfolio, _ int) Row {
		return s.buildRow(ctx, date, p)
	})
	if err := s.writer.Write(ctx, rows); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

func (s *Service) buildRow(ctx context.Context, date time.Time, p domain.WalletLPPortfolio) Row {
	row := Row{
		Date:          date,
		WalletID:      p.WalletAddress,
		Positions:     p.TotalPositions,
		TotalValue:    p.TotalValue,
		Liquidity:     p.Summary.EarningsStats.TotalLiquidityValue,
		UnclaimedFees: p.TotalUnclaimedFees,
		DailyEarnings: p.Summary.EarningsStats.EstimatedDailyEarnings,
		Synthetic:     s.synthetic,
	}
	row.DayChange = s.change(ctx, p, date.AddDate(0, 0, -1))
	row.WeekChange = s.change(ctx, p, date.AddDate(0, 0, -7))
	row.MonthChange = s.change(ctx, p, date.AddDate(0, 0, -30))
	return row
}

// change returns (current - past) / past for the archive at date, or nil if unavailable.
func (s *Service) change(ctx context.Context, p domain.WalletLPPortfolio, date time.Time) *decimal.Decimal {
	if s.history == nil {
		return nil
	}
	rec, err := s.history.GetByDate(ctx, p.WalletAddress, date)
	if err != nil {
		if !errors.Is(err, archive.ErrNotFound) {
			slog.Warn("export: historical archive unavailable", "wallet", p.WalletAddress, "date", date.Format(time.DateOnly), "error", err)
		}
		return nil
	}
	past, err := rec.Portfolio()
	if err != nil {
		slog.Warn("export: failed to decode historical archive", "wallet", p.WalletAddress, "error", err)
		return nil
	}
	return computeChange(p.TotalValue, past.TotalValue)
}

func computeChange(current, past decimal.Decimal) *decimal.Decimal {
	if past.IsZero() {
		return nil
	}
	pct := current.Sub(past).Div(past)
	return &pct
}

var header = []any{
	"Date", "Wallet", "Positions", "Total Value", "Liquidity",
	"Unclaimed Fees", "Daily Earnings", "Day", "Week", "Month", "Synthetic",
}

// values renders a row in header column order.
func (r Row) values() []any {
	synthetic := 0
	if r.Synthetic {
		synthetic = 1
	}
	return []any{
		r.Date.UTC().Format(time.DateOnly),
		r.WalletID,
		r.Positions,
		toFloat(r.TotalValue),
		toFloat(r.Liquidity),
		toFloat(r.UnclaimedFees),
		toFloat(r.DailyEarnings),
		ptrFloat(r.DayChange),
		ptrFloat(r.WeekChange),
		ptrFloat(r.MonthChange),
		synthetic,
	}
}

func buildTable(rows []Row) [][]any {
	data := make([][]any, 0, len(rows)+1)
	data = append(data, header)
	for _, r := range rows {
		data = append(data, r.values())
	}
	return data
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func ptrFloat(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}
