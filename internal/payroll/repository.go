package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/austral-hr/austral-hr/internal/platform/db"
	"github.com/austral-hr/austral-hr/internal/shared"
)

// ErrPayrollNotFound indicates the payroll record does not exist in the
// company scope.
var ErrPayrollNotFound = fmt.Errorf("payroll: record not found: %w", shared.ErrNotFound)

// Repository encapsulates DB operations for payroll records.
type Repository interface {
	Get(ctx context.Context, companyID int64, id uuid.UUID) (Payroll, error)
	ListByPeriod(ctx context.Context, companyID int64, period shared.Period) ([]Payroll, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction. Voucher status
// reversion is included here so deleting a payroll and downgrading its
// voucher commit together.
type TxRepository interface {
	ListForUpdate(ctx context.Context, companyID int64, period shared.Period) ([]Payroll, error)
	GetForUpdate(ctx context.Context, companyID int64, id uuid.UUID) (Payroll, error)
	DeletePayrolls(ctx context.Context, companyID int64, ids []uuid.UUID) (int64, error)
	RevertVoucherToDraft(ctx context.Context, companyID int64, voucherID uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const payrollColumns = `id, company_id, employee_id, employee_name, year, month, earnings, discounts,
taxable_earnings, non_taxable_earnings, total_earnings, total_discounts, net_salary,
employer_unemployment, is_centralized, voucher_id, created_at, updated_at`

func (r *repository) Get(ctx context.Context, companyID int64, id uuid.UUID) (Payroll, error) {
	row := r.db.QueryRow(ctx, `SELECT `+payrollColumns+` FROM payrolls WHERE company_id=$1 AND id=$2`, companyID, id)
	return scanPayroll(row)
}

func (r *repository) ListByPeriod(ctx context.Context, companyID int64, period shared.Period) ([]Payroll, error) {
	rows, err := r.db.Query(ctx, `SELECT `+payrollColumns+` FROM payrolls
WHERE company_id=$1 AND year=$2 AND month=$3 ORDER BY employee_id, created_at`, companyID, period.Year, int(period.Month))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayrolls(rows)
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		err = db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
			return fn(ctx, &txRepository{tx: tx})
		})
		if err == nil || !db.IsSerializationFailure(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", shared.ErrConflict, err)
}

const txAttempts = 3

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) ListForUpdate(ctx context.Context, companyID int64, period shared.Period) ([]Payroll, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+payrollColumns+` FROM payrolls
WHERE company_id=$1 AND year=$2 AND month=$3 ORDER BY employee_id, created_at FOR UPDATE`, companyID, period.Year, int(period.Month))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayrolls(rows)
}

func (r *txRepository) GetForUpdate(ctx context.Context, companyID int64, id uuid.UUID) (Payroll, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+payrollColumns+` FROM payrolls WHERE company_id=$1 AND id=$2 FOR UPDATE`, companyID, id)
	return scanPayroll(row)
}

func (r *txRepository) DeletePayrolls(ctx context.Context, companyID int64, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM payrolls WHERE company_id=$1 AND id = ANY($2)`, companyID, ids)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *txRepository) RevertVoucherToDraft(ctx context.Context, companyID int64, voucherID uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE vouchers SET status='DRAFT', posted_at=NULL, updated_at=NOW()
WHERE company_id=$1 AND id=$2 AND status IN ('DRAFT','POSTED')`, companyID, voucherID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("payroll: voucher %s not revertible", voucherID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayroll(row rowScanner) (Payroll, error) {
	var (
		p                 Payroll
		month             int
		earnJSON, discJSON []byte
	)
	err := row.Scan(&p.ID, &p.CompanyID, &p.EmployeeID, &p.EmployeeName, &p.Period.Year, &month,
		&earnJSON, &discJSON, &p.TaxableEarnings, &p.NonTaxableEarnings, &p.TotalEarnings,
		&p.TotalDiscounts, &p.NetSalary, &p.EmployerUnemployment, &p.IsCentralized, &p.VoucherID,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payroll{}, ErrPayrollNotFound
		}
		return Payroll{}, err
	}
	p.Period.Month = time.Month(month)
	if err := json.Unmarshal(earnJSON, &p.Earnings); err != nil {
		return Payroll{}, fmt.Errorf("payroll: decode earnings: %w", err)
	}
	if err := json.Unmarshal(discJSON, &p.Discounts); err != nil {
		return Payroll{}, fmt.Errorf("payroll: decode discounts: %w", err)
	}
	return p, nil
}

func collectPayrolls(rows pgx.Rows) ([]Payroll, error) {
	var out []Payroll
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
