package params

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/austral-hr/austral-hr/internal/shared"
)

// Repository loads statutory parameter rows.
type Repository interface {
	// Get returns the company-scoped row for (companyID, period) or, when none
	// exists, the global default row. The company row fully replaces the
	// default; scopes are never merged.
	Get(ctx context.Context, companyID int64, period shared.Period) (StatutoryParameters, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, companyID int64, period shared.Period) (StatutoryParameters, error) {
	row := r.db.QueryRow(ctx, `SELECT company_id, uf_value, utm_value, minimum_wage, gratification_cap_annual,
pension_cap_uf, unemployment_cap_uf, tax_brackets, family_allowance_brackets, pension_rates, unemployment_rates
FROM statutory_parameters
WHERE year=$1 AND month=$2 AND (company_id=$3 OR company_id IS NULL)
ORDER BY company_id NULLS LAST
LIMIT 1`, period.Year, int(period.Month), companyID)

	var (
		p             StatutoryParameters
		ufStr, utmStr string
		pCapStr       string
		uCapStr       string
		taxJSON       []byte
		famJSON       []byte
		pensionJSON   []byte
		unempJSON     []byte
	)
	err := row.Scan(&p.CompanyID, &ufStr, &utmStr, &p.MinimumWage, &p.GratificationCapAnnual,
		&pCapStr, &uCapStr, &taxJSON, &famJSON, &pensionJSON, &unempJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StatutoryParameters{}, fmt.Errorf("%w: %s", ErrParametersNotFound, period)
		}
		return StatutoryParameters{}, err
	}
	p.Period = period

	if p.UF, err = decimal.NewFromString(ufStr); err != nil {
		return StatutoryParameters{}, fmt.Errorf("params: parse uf: %w", err)
	}
	if p.UTM, err = decimal.NewFromString(utmStr); err != nil {
		return StatutoryParameters{}, fmt.Errorf("params: parse utm: %w", err)
	}
	if p.PensionCapUF, err = decimal.NewFromString(pCapStr); err != nil {
		return StatutoryParameters{}, fmt.Errorf("params: parse pension cap: %w", err)
	}
	if p.UnemploymentCapUF, err = decimal.NewFromString(uCapStr); err != nil {
		return StatutoryParameters{}, fmt.Errorf("params: parse unemployment cap: %w", err)
	}
	if err := json.Unmarshal(taxJSON, &p.TaxBrackets); err != nil {
		return StatutoryParameters{}, fmt.Errorf("params: decode tax brackets: %w", err)
	}
	if err := json.Unmarshal(famJSON, &p.FamilyAllowanceBrackets); err != nil {
		return StatutoryParameters{}, fmt.Errorf("params: decode family allowance brackets: %w", err)
	}
	if err := json.Unmarshal(pensionJSON, &p.PensionRates); err != nil {
		return StatutoryParameters{}, fmt.Errorf("params: decode pension rates: %w", err)
	}
	if err := json.Unmarshal(unempJSON, &p.Unemployment); err != nil {
		return StatutoryParameters{}, fmt.Errorf("params: decode unemployment rates: %w", err)
	}
	return p, nil
}
