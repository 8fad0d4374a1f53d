package voucher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/austral-hr/austral-hr/internal/payroll"
	"github.com/austral-hr/austral-hr/internal/platform/db"
	"github.com/austral-hr/austral-hr/internal/shared"
)

var (
	// ErrVoucherNotFound indicates the voucher does not exist in the company scope.
	ErrVoucherNotFound = fmt.Errorf("voucher: not found: %w", shared.ErrNotFound)
	// ErrMappingNotFound indicates the company has no account mapping configured.
	ErrMappingNotFound = fmt.Errorf("voucher: account mapping not found: %w", shared.ErrConfiguration)
)

// Repository encapsulates DB operations for vouchers.
type Repository interface {
	Get(ctx context.Context, companyID int64, id uuid.UUID) (Voucher, error)
	ListByPeriod(ctx context.Context, companyID int64, period shared.Period) ([]Voucher, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction. Payroll writes
// are included so commit, undo and centralization apply payrolls and their
// voucher in one atomic unit.
type TxRepository interface {
	InsertVoucher(ctx context.Context, v Voucher) error
	GetVoucherForUpdate(ctx context.Context, companyID int64, id uuid.UUID) (Voucher, error)
	UpdateVoucherStatus(ctx context.Context, companyID int64, id uuid.UUID, status Status, postedAt *time.Time) error
	DeleteVoucher(ctx context.Context, companyID int64, id uuid.UUID) error
	FindDraftPayrollVoucher(ctx context.Context, companyID int64, period shared.Period) (Voucher, error)

	InsertPayrolls(ctx context.Context, records []payroll.Payroll) error
	ListPayrollsByIDs(ctx context.Context, companyID int64, ids []uuid.UUID) ([]payroll.Payroll, error)
	StampPayrolls(ctx context.Context, companyID int64, ids []uuid.UUID, voucherID uuid.UUID) error
	UnstampPayrollsByVoucher(ctx context.Context, companyID int64, voucherID uuid.UUID) error
	DeletePayrollsByVoucher(ctx context.Context, companyID int64, voucherID uuid.UUID) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const voucherColumns = `id, company_id, date, description, kind, status, year, month, entries, total,
posted_at, reversal_of, created_at, updated_at`

func (r *repository) Get(ctx context.Context, companyID int64, id uuid.UUID) (Voucher, error) {
	row := r.db.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE company_id=$1 AND id=$2`, companyID, id)
	return scanVoucher(row)
}

func (r *repository) ListByPeriod(ctx context.Context, companyID int64, period shared.Period) ([]Voucher, error) {
	rows, err := r.db.Query(ctx, `SELECT `+voucherColumns+` FROM vouchers
WHERE company_id=$1 AND year=$2 AND month=$3 ORDER BY created_at DESC`, companyID, period.Year, int(period.Month))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
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

func (r *txRepository) InsertVoucher(ctx context.Context, v Voucher) error {
	entriesJSON, err := json.Marshal(v.Entries)
	if err != nil {
		return fmt.Errorf("voucher: encode entries: %w", err)
	}
	_, err = r.tx.Exec(ctx, `INSERT INTO vouchers (id, company_id, date, description, kind, status, year, month, entries, total, posted_at, reversal_of)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		v.ID, v.CompanyID, v.Date, v.Description, v.Kind, v.Status, v.Period.Year, int(v.Period.Month), entriesJSON, v.Total, v.PostedAt, v.ReversalOf)
	return err
}

func (r *txRepository) GetVoucherForUpdate(ctx context.Context, companyID int64, id uuid.UUID) (Voucher, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE company_id=$1 AND id=$2 FOR UPDATE`, companyID, id)
	return scanVoucher(row)
}

func (r *txRepository) UpdateVoucherStatus(ctx context.Context, companyID int64, id uuid.UUID, status Status, postedAt *time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE vouchers SET status=$3, posted_at=$4, updated_at=NOW() WHERE company_id=$1 AND id=$2`, companyID, id, status, postedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVoucherNotFound
	}
	return nil
}

func (r *txRepository) DeleteVoucher(ctx context.Context, companyID int64, id uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM vouchers WHERE company_id=$1 AND id=$2`, companyID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVoucherNotFound
	}
	return nil
}

func (r *txRepository) FindDraftPayrollVoucher(ctx context.Context, companyID int64, period shared.Period) (Voucher, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers
WHERE company_id=$1 AND year=$2 AND month=$3 AND kind=$4 AND status=$5
ORDER BY created_at DESC LIMIT 1 FOR UPDATE`, companyID, period.Year, int(period.Month), KindPayroll, StatusDraft)
	return scanVoucher(row)
}

func (r *txRepository) InsertPayrolls(ctx context.Context, records []payroll.Payroll) error {
	for _, rec := range records {
		earnJSON, err := json.Marshal(rec.Earnings)
		if err != nil {
			return fmt.Errorf("voucher: encode earnings: %w", err)
		}
		discJSON, err := json.Marshal(rec.Discounts)
		if err != nil {
			return fmt.Errorf("voucher: encode discounts: %w", err)
		}
		_, err = r.tx.Exec(ctx, `INSERT INTO payrolls (id, company_id, employee_id, employee_name, year, month,
earnings, discounts, taxable_earnings, non_taxable_earnings, total_earnings, total_discounts, net_salary,
employer_unemployment, is_centralized, voucher_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$17)`,
			rec.ID, rec.CompanyID, rec.EmployeeID, rec.EmployeeName, rec.Period.Year, int(rec.Period.Month),
			earnJSON, discJSON, rec.TaxableEarnings, rec.NonTaxableEarnings, rec.TotalEarnings, rec.TotalDiscounts,
			rec.NetSalary, rec.EmployerUnemployment, rec.IsCentralized, rec.VoucherID, rec.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) ListPayrollsByIDs(ctx context.Context, companyID int64, ids []uuid.UUID) ([]payroll.Payroll, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, company_id, employee_id, employee_name, year, month, earnings, discounts,
taxable_earnings, non_taxable_earnings, total_earnings, total_discounts, net_salary,
employer_unemployment, is_centralized, voucher_id, created_at, updated_at
FROM payrolls WHERE company_id=$1 AND id = ANY($2) ORDER BY employee_id FOR UPDATE`, companyID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.Payroll
	for rows.Next() {
		var (
			p                  payroll.Payroll
			month              int
			earnJSON, discJSON []byte
		)
		err := rows.Scan(&p.ID, &p.CompanyID, &p.EmployeeID, &p.EmployeeName, &p.Period.Year, &month,
			&earnJSON, &discJSON, &p.TaxableEarnings, &p.NonTaxableEarnings, &p.TotalEarnings,
			&p.TotalDiscounts, &p.NetSalary, &p.EmployerUnemployment, &p.IsCentralized, &p.VoucherID,
			&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		p.Period.Month = time.Month(month)
		if err := json.Unmarshal(earnJSON, &p.Earnings); err != nil {
			return nil, fmt.Errorf("voucher: decode earnings: %w", err)
		}
		if err := json.Unmarshal(discJSON, &p.Discounts); err != nil {
			return nil, fmt.Errorf("voucher: decode discounts: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *txRepository) StampPayrolls(ctx context.Context, companyID int64, ids []uuid.UUID, voucherID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `UPDATE payrolls SET is_centralized=TRUE, voucher_id=$3, updated_at=NOW()
WHERE company_id=$1 AND id = ANY($2)`, companyID, ids, voucherID)
	return err
}

func (r *txRepository) UnstampPayrollsByVoucher(ctx context.Context, companyID int64, voucherID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `UPDATE payrolls SET is_centralized=FALSE, voucher_id=NULL, updated_at=NOW()
WHERE company_id=$1 AND voucher_id=$2`, companyID, voucherID)
	return err
}

func (r *txRepository) DeletePayrollsByVoucher(ctx context.Context, companyID int64, voucherID uuid.UUID) (int64, error) {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM payrolls WHERE company_id=$1 AND voucher_id=$2`, companyID, voucherID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVoucher(row rowScanner) (Voucher, error) {
	var (
		v           Voucher
		month       int
		entriesJSON []byte
	)
	err := row.Scan(&v.ID, &v.CompanyID, &v.Date, &v.Description, &v.Kind, &v.Status, &v.Period.Year, &month,
		&entriesJSON, &v.Total, &v.PostedAt, &v.ReversalOf, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Voucher{}, ErrVoucherNotFound
		}
		return Voucher{}, err
	}
	v.Period.Month = time.Month(month)
	if err := json.Unmarshal(entriesJSON, &v.Entries); err != nil {
		return Voucher{}, fmt.Errorf("voucher: decode entries: %w", err)
	}
	return v, nil
}
