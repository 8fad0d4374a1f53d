package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/austral-hr/austral-hr/internal/shared"
)

// ErrEmployeeNotFound indicates the employee does not exist in the company.
var ErrEmployeeNotFound = fmt.Errorf("payroll: employee not found: %w", shared.ErrNotFound)

// EmployeeDirectory reads contract snapshots. Employee master data is owned
// elsewhere; this module never writes it.
type EmployeeDirectory interface {
	Get(ctx context.Context, companyID, employeeID int64) (Employee, error)
}

type employeeDirectory struct {
	db *pgxpool.Pool
}

func NewEmployeeDirectory(db *pgxpool.Pool) EmployeeDirectory {
	return &employeeDirectory{db: db}
}

func (d *employeeDirectory) Get(ctx context.Context, companyID, employeeID int64) (Employee, error) {
	row := d.db.QueryRow(ctx, `SELECT id, company_id, name, contract_type, base_salary, weekly_hours,
gratification_mode, gratification_fixed, pension_regime, pension_institution, pensioner,
health_scheme, health_institution, health_plan_uf, dependents, family_allowance,
transport_allowance, meal_allowance, fixed_bonus, voluntary_savings
FROM employees WHERE company_id=$1 AND id=$2`, companyID, employeeID)

	var (
		e         Employee
		planUFStr string
	)
	err := row.Scan(&e.ID, &e.CompanyID, &e.Name, &e.ContractType, &e.BaseSalary, &e.WeeklyHours,
		&e.GratificationMode, &e.GratificationFixed, &e.PensionRegime, &e.PensionInstitution, &e.Pensioner,
		&e.HealthScheme, &e.HealthInstitution, &planUFStr, &e.Dependents, &e.FamilyAllowance,
		&e.TransportAllowance, &e.MealAllowance, &e.FixedBonus, &e.VoluntarySavings)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrEmployeeNotFound
		}
		return Employee{}, err
	}
	if e.HealthPlanUF, err = decimal.NewFromString(planUFStr); err != nil {
		return Employee{}, err
	}
	return e, nil
}
