package voucher

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/austral-hr/austral-hr/internal/payroll"
	"github.com/austral-hr/austral-hr/internal/shared"
)

// SkippedLine reports one payroll line dropped because its kind is unmapped.
// Partial account configuration must not block payroll issuance, but callers
// have to be able to see what was left out.
type SkippedLine struct {
	EmployeeID int64  `json:"employeeId"`
	Kind       string `json:"kind"`
	Amount     int64  `json:"amount"`
}

// AggregationResult carries the draft voucher together with its warnings so
// the skip condition cannot be ignored accidentally.
type AggregationResult struct {
	Voucher Voucher
	Skipped []SkippedLine
}

// Aggregate folds a payroll batch into one balanced draft voucher: earnings
// debit their expense accounts, discounts credit their liability accounts and
// each net salary credits salaries payable. Employer-side unemployment
// insurance adds a matching debit/credit pair. Any residual from integer
// rounding gets one synthetic adjustment line on the short side.
func Aggregate(companyID int64, period shared.Period, records []payroll.Payroll, mapping AccountMapping, date time.Time, description string) AggregationResult {
	acc := newAccumulator()
	var skipped []SkippedLine
	var skipDebit, skipCredit int64

	for _, rec := range records {
		for _, line := range rec.Earnings {
			if line.Amount == 0 {
				continue
			}
			account, ok := mapping.EarningAccount(line.Kind)
			if !ok {
				skipped = append(skipped, SkippedLine{EmployeeID: rec.EmployeeID, Kind: string(line.Kind), Amount: line.Amount})
				skipDebit += line.Amount
				continue
			}
			acc.debit(account, line.Amount)
		}
		for _, line := range rec.Discounts {
			if line.Amount == 0 {
				continue
			}
			account, ok := mapping.DiscountAccount(line.Kind)
			if !ok {
				skipped = append(skipped, SkippedLine{EmployeeID: rec.EmployeeID, Kind: string(line.Kind), Amount: line.Amount})
				skipCredit += line.Amount
				continue
			}
			acc.credit(account, line.Amount)
		}
		if rec.NetSalary != 0 {
			if mapping.SalariesPayable == "" {
				skipped = append(skipped, SkippedLine{EmployeeID: rec.EmployeeID, Kind: "NET_SALARY", Amount: rec.NetSalary})
				skipCredit += rec.NetSalary
			} else {
				acc.credit(mapping.SalariesPayable, rec.NetSalary)
			}
		}
		if rec.EmployerUnemployment > 0 && mapping.UnemploymentExpense != "" && mapping.Unemployment != "" {
			acc.debit(mapping.UnemploymentExpense, rec.EmployerUnemployment)
			acc.credit(mapping.Unemployment, rec.EmployerUnemployment)
		}
	}

	entries := acc.entries()
	entries = appendAdjustments(entries, mapping, skipDebit, skipCredit)

	v := Voucher{
		ID:          uuid.New(),
		CompanyID:   companyID,
		Date:        date,
		Description: description,
		Kind:        KindPayroll,
		Status:      StatusDraft,
		Period:      period,
		Entries:     entries,
	}
	v.Total = v.DebitTotal()
	return AggregationResult{Voucher: v, Skipped: skipped}
}

// Adjustment line labels. Auditors must be able to tell a per-employee
// rounding residual from an imbalance caused by unmapped lines.
const (
	adjustmentRounding = "Ajuste por redondeo"
	adjustmentSkipped  = "Líneas sin cuenta asignada"
)

// appendAdjustments balances the entry set. The residual caused by skipped
// unmapped lines and the residual from per-employee integer rounding get
// separate adjustment lines, each on whichever side is short.
func appendAdjustments(entries []Entry, mapping AccountMapping, skipDebit, skipCredit int64) []Entry {
	var debit, credit int64
	for _, e := range entries {
		debit += e.Debit
		credit += e.Credit
	}
	diff := debit - credit
	if diff == 0 {
		return entries
	}
	account := mapping.Rounding
	if account == "" {
		account = mapping.SalariesPayable
	}
	skip := skipCredit - skipDebit
	entries = appendAdjustment(entries, account, skip, adjustmentSkipped)
	entries = appendAdjustment(entries, account, diff-skip, adjustmentRounding)
	return entries
}

func appendAdjustment(entries []Entry, account string, diff int64, description string) []Entry {
	switch {
	case diff > 0:
		return append(entries, Entry{Account: account, Description: description, Credit: diff})
	case diff < 0:
		return append(entries, Entry{Account: account, Description: description, Debit: -diff})
	}
	return entries
}

type accumulator struct {
	totals map[string]*Entry
}

func newAccumulator() *accumulator {
	return &accumulator{totals: make(map[string]*Entry)}
}

func (a *accumulator) debit(account string, amount int64) {
	a.entry(account).Debit += amount
}

func (a *accumulator) credit(account string, amount int64) {
	a.entry(account).Credit += amount
}

func (a *accumulator) entry(account string) *Entry {
	e, ok := a.totals[account]
	if !ok {
		e = &Entry{Account: account}
		a.totals[account] = e
	}
	return e
}

// entries returns the accumulated lines in stable account order, debit
// accounts first.
func (a *accumulator) entries() []Entry {
	out := make([]Entry, 0, len(a.totals))
	for _, e := range a.totals {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Debit > 0, out[j].Debit > 0
		if di != dj {
			return di
		}
		return out[i].Account < out[j].Account
	})
	return out
}
