package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/austral-hr/austral-hr/internal/payroll"
	"github.com/austral-hr/austral-hr/internal/shared"
)

// DedupSweepJob walks every company with payrolls in the target period and
// removes duplicate records, keeping the newest per employee.
type DedupSweepJob struct {
	service *payroll.Service
	pool    *pgxpool.Pool
	logger  *slog.Logger
	now     func() time.Time
}

func NewDedupSweepJob(service *payroll.Service, pool *pgxpool.Pool, logger *slog.Logger) *DedupSweepJob {
	return &DedupSweepJob{service: service, pool: pool, logger: logger, now: time.Now}
}

// Handle processes TaskPayrollDedupSweep tasks.
func (j *DedupSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload DedupSweepPayload
	if err := decodePayload(t, &payload); err != nil {
		return err
	}

	period, err := j.targetPeriod(payload)
	if err != nil {
		return asynq.SkipRetry
	}

	companies, err := j.companiesWithPayrolls(ctx, period)
	if err != nil {
		return err
	}

	var deleted int
	for _, companyID := range companies {
		report, err := j.service.Deduplicate(ctx, companyID, period)
		if err != nil {
			j.logger.Error("dedup sweep failed for company",
				slog.Int64("company", companyID), slog.Any("error", err))
			continue
		}
		deleted += report.DeletedCount
	}

	j.logger.Info("dedup sweep finished",
		slog.String("period", period.String()),
		slog.Int("companies", len(companies)),
		slog.Int("deleted", deleted))
	return nil
}

func (j *DedupSweepJob) targetPeriod(payload DedupSweepPayload) (shared.Period, error) {
	if payload.Year != 0 || payload.Month != 0 {
		return shared.NewPeriod(payload.Year, payload.Month)
	}
	prev := j.now().UTC().AddDate(0, -1, 0)
	return shared.NewPeriod(prev.Year(), int(prev.Month()))
}

func (j *DedupSweepJob) companiesWithPayrolls(ctx context.Context, period shared.Period) ([]int64, error) {
	rows, err := j.pool.Query(ctx,
		`SELECT DISTINCT company_id FROM payrolls WHERE year=$1 AND month=$2 ORDER BY company_id`,
		period.Year, int(period.Month))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
