package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VoucherIntegrityJob scans recent posted vouchers and reports any whose
// entries do not balance. Unbalanced posted vouchers indicate a write that
// bypassed the service layer.
type VoucherIntegrityJob struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewVoucherIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger) *VoucherIntegrityJob {
	return &VoucherIntegrityJob{pool: pool, logger: logger}
}

// Handle processes TaskVoucherIntegrityScan tasks.
func (j *VoucherIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload IntegrityScanPayload
	if err := decodePayload(t, &payload); err != nil {
		return err
	}
	months := payload.Months
	if months <= 0 {
		months = 12
	}

	rows, err := j.pool.Query(ctx, `
SELECT id, company_id,
       COALESCE(SUM((entry->>'debit')::bigint), 0) AS debits,
       COALESCE(SUM((entry->>'credit')::bigint), 0) AS credits
FROM vouchers, jsonb_array_elements(entries) AS entry
WHERE status = 'POSTED'
  AND make_date(year, month, 1) >= date_trunc('month', now()) - ($1 || ' months')::interval
GROUP BY id, company_id
HAVING COALESCE(SUM((entry->>'debit')::bigint), 0) <> COALESCE(SUM((entry->>'credit')::bigint), 0)`,
		months)
	if err != nil {
		return err
	}
	defer rows.Close()

	var found int
	for rows.Next() {
		var (
			id        string
			companyID int64
			debits    int64
			credits   int64
		)
		if err := rows.Scan(&id, &companyID, &debits, &credits); err != nil {
			return err
		}
		found++
		j.logger.Error("unbalanced posted voucher",
			slog.String("voucher", id),
			slog.Int64("company", companyID),
			slog.Int64("debits", debits),
			slog.Int64("credits", credits))
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if found == 0 {
		j.logger.Info("voucher integrity scan clean", slog.Int("months", months))
	}
	return nil
}
