package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/carfinder/internal/domain"
)

// ErrNotFound indicates that the requested scan run was not found.
var ErrNotFound = errors.New("scan run not found")

const (
	defaultListLimit = 30
	maxListLimit     = 365
)

// Run is one stored scan: where listings came from, which rate was used
// and the resulting report.
type Run struct {
	ID             int64           `json:"id"`
	StartedAt      time.Time       `json:"startedAt"`
	FinishedAt     time.Time       `json:"finishedAt"`
	Sources        []string        `json:"sources"`
	ConversionRate decimal.Decimal `json:"conversionRate"`
	RateSource     string          `json:"rateSource"`
	Total          int             `json:"total"`
	Accepted       int             `json:"accepted"`
	Dropped        int             `json:"dropped"`
	Unknown        int             `json:"unknown"`
	Report         domain.Report   `json:"report"`
}

// Repository defines persistent storage for scan runs.
type Repository interface {
	Save(ctx context.Context, run Run) (int64, error)
	GetLatest(ctx context.Context) (*Run, error)
	GetByID(ctx context.Context, id int64) (*Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
}

// ClampLimit bounds a list limit to [1, 365], defaulting to 30.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL scan run repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const selectRun = `SELECT id, started_at, finished_at, sources, conversion_rate, rate_source,
	total, accepted, dropped, unknown, report FROM scan_runs`

func (r *PgRepository) Save(ctx context.Context, run Run) (int64, error) {
	report, err := json.Marshal(run.Report)
	if err != nil {
		return 0, fmt.Errorf("marshaling report: %w", err)
	}

	var id int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO scan_runs (started_at, finished_at, sources, conversion_rate, rate_source,
			total, accepted, dropped, unknown, report)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)
		 RETURNING id`,
		run.StartedAt, run.FinishedAt, run.Sources, run.ConversionRate, run.RateSource,
		run.Total, run.Accepted, run.Dropped, run.Unknown, report).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("saving scan run: %w", err)
	}
	return id, nil
}

func (r *PgRepository) GetLatest(ctx context.Context) (*Run, error) {
	run, err := scanRun(r.pool.QueryRow(ctx, selectRun+` ORDER BY started_at DESC, id DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting latest scan run: %w", err)
	}
	return run, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Run, error) {
	run, err := scanRun(r.pool.QueryRow(ctx, selectRun+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting scan run %d: %w", id, err)
	}
	return run, nil
}

func (r *PgRepository) List(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.pool.Query(ctx, selectRun+` ORDER BY started_at DESC, id DESC LIMIT $1`, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing scan runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scan runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var (
		run    Run
		report []byte
	)
	err := row.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Sources, &run.ConversionRate, &run.RateSource,
		&run.Total, &run.Accepted, &run.Dropped, &run.Unknown, &report)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(report, &run.Report); err != nil {
		return nil, fmt.Errorf("decoding report of scan run %d: %w", run.ID, err)
	}
	return &run, nil
}

// MemoryRepository keeps scan runs in process memory. It backs one-shot CLI
// scans that run without a database.
type MemoryRepository struct {
	mu     sync.RWMutex
	runs   []Run
	nextID int64
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

func (m *MemoryRepository) Save(_ context.Context, run Run) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run.ID = m.nextID
	m.nextID++
	m.runs = append(m.runs, run)
	return run.ID, nil
}

func (m *MemoryRepository) GetLatest(_ context.Context) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.runs) == 0 {
		return nil, ErrNotFound
	}
	run := m.runs[len(m.runs)-1]
	return &run, nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id int64) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := lo.Find(m.runs, func(r Run) bool { return r.ID == id })
	if !ok {
		return nil, ErrNotFound
	}
	return &run, nil
}

func (m *MemoryRepository) List(_ context.Context, limit int) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := lo.Reverse(append([]Run(nil), m.runs...))
	if n := ClampLimit(limit); len(runs) > n {
		runs = runs[:n]
	}
	return runs, nil
}
