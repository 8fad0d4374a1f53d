package voucher

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountMappingSource reads the company's account mapping configuration.
// The configuration is maintained elsewhere; this module only reads it.
type AccountMappingSource interface {
	Get(ctx context.Context, companyID int64) (AccountMapping, error)
}

type mappingRepository struct {
	db *pgxpool.Pool
}

func NewMappingRepository(db *pgxpool.Pool) AccountMappingSource {
	return &mappingRepository{db: db}
}

func (r *mappingRepository) Get(ctx context.Context, companyID int64) (AccountMapping, error) {
	row := r.db.QueryRow(ctx, `SELECT company_id, base_salary_account, overtime_account, gratification_account,
bonus_account, non_taxable_account, family_allowance_account, unemployment_expense_account,
pension_account, health_account, unemployment_account, tax_account, voluntary_savings_account,
advance_account, salaries_payable_account, rounding_account
FROM payroll_account_mappings WHERE company_id=$1`, companyID)

	var m AccountMapping
	err := row.Scan(&m.CompanyID, &m.BaseSalary, &m.Overtime, &m.Gratification,
		&m.Bonus, &m.NonTaxable, &m.FamilyAllowance, &m.UnemploymentExpense,
		&m.Pension, &m.Health, &m.Unemployment, &m.Tax, &m.VoluntarySavings,
		&m.Advance, &m.SalariesPayable, &m.Rounding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountMapping{}, fmt.Errorf("%w: company %d", ErrMappingNotFound, companyID)
		}
		return AccountMapping{}, err
	}
	return m, nil
}
