package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/lpmon/internal/domain"
)

// ErrNotFound indicates that the requested archive was not found.
var ErrNotFound = errors.New("archive not found")

// Record is one stored daily wallet archive.
type Record struct {
	ID          int             `json:"id"`
	WalletID    string          `json:"walletId"`
	ArchiveDate time.Time       `json:"archiveDate"`
	Synthetic   bool            `json:"synthetic"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Portfolio decodes the archived snapshot.
func (r Record) Portfolio() (domain.WalletLPPortfolio, error) {
	var p domain.WalletLPPortfolio
	if err := json.Unmarshal(r.Data, &p); err != nil {
		return p, fmt.Errorf("decoding archive %d: %w", r.ID, err)
	}
	return p, nil
}

// Repository defines persistent storage for daily archives.
type Repository interface {
	Save(ctx context.Context, date time.Time, p domain.WalletLPPortfolio, synthetic bool) error
	GetLatest(ctx context.Context, walletID string) (*Record, error)
	GetByDate(ctx context.Context, walletID string, date time.Time) (*Record, error)
	List(ctx context.Context, walletID string, limit int) ([]Record, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL archive repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Save upserts the wallet's archive for date.
func (r *PgRepository) Save(ctx context.Context, date time.Time, p domain.WalletLPPortfolio, synthetic bool) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling archive for %s: %w", p.WalletAddress, err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO wallet_archives (wallet_id, archive_date, total_value, synthetic, data)
		 VALUES ($1, $2, $3, $4, $5::jsonb)
		 ON CONFLICT (wallet_id, archive_date)
		 DO UPDATE SET total_value = $3, synthetic = $4, data = $5::jsonb`,
		p.WalletAddress, date, p.TotalValue.String(), synthetic, data)
	if err != nil {
		return fmt.Errorf("saving archive for %s: %w", p.WalletAddress, err)
	}
	return nil
}

const selectRecord = `SELECT id, wallet_id, archive_date, synthetic, data, created_at FROM wallet_archives`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	if err := row.Scan(&rec.ID, &rec.WalletID, &rec.ArchiveDate, &rec.Synthetic, &rec.Data, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *PgRepository) GetLatest(ctx context.Context, walletID string) (*Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		selectRecord+` WHERE wallet_id = $1 ORDER BY archive_date DESC LIMIT 1`, walletID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting latest archive: %w", err)
	}
	return rec, nil
}

func (r *PgRepository) GetByDate(ctx context.Context, walletID string, date time.Time) (*Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		selectRecord+` WHERE wallet_id = $1 AND archive_date = $2`, walletID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting archive by date: %w", err)
	}
	return rec, nil
}

func (r *PgRepository) List(ctx context.Context, walletID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.pool.Query(ctx,
		selectRecord+` WHERE wallet_id = $1 ORDER BY archive_date DESC LIMIT $2`, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning archive: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating archives: %w", err)
	}
	return records, nil
}
