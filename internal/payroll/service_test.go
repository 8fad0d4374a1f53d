package payroll

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/austral-hr/austral-hr/internal/params"
	"github.com/austral-hr/austral-hr/internal/shared"
)

type fakeParamSource struct {
	params params.StatutoryParameters
	err    error
}

func (f fakeParamSource) Resolve(ctx context.Context, companyID int64, period shared.Period) (params.StatutoryParameters, error) {
	if f.err != nil {
		return params.StatutoryParameters{}, f.err
	}
	return f.params, nil
}

type fakeDirectory struct {
	employees map[int64]Employee
}

func (f fakeDirectory) Get(ctx context.Context, companyID, employeeID int64) (Employee, error) {
	emp, ok := f.employees[employeeID]
	if !ok || emp.CompanyID != companyID {
		return Employee{}, ErrEmployeeNotFound
	}
	return emp, nil
}

// fakeRepo is an in-memory Repository with snapshot-rollback transactions.
type fakeRepo struct {
	mu       sync.Mutex
	records  map[uuid.UUID]Payroll
	reverted []uuid.UUID

	failDelete bool
	txErr      error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[uuid.UUID]Payroll)}
}

func (f *fakeRepo) put(p Payroll) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[p.ID] = p
}

func (f *fakeRepo) Get(ctx context.Context, companyID int64, id uuid.UUID) (Payroll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.records[id]
	if !ok || p.CompanyID != companyID {
		return Payroll{}, ErrPayrollNotFound
	}
	return p, nil
}

func (f *fakeRepo) ListByPeriod(ctx context.Context, companyID int64, period shared.Period) ([]Payroll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Payroll
	for _, p := range f.records {
		if p.CompanyID == companyID && p.Period == period {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if f.txErr != nil {
		return f.txErr
	}
	f.mu.Lock()
	snapshot := make(map[uuid.UUID]Payroll, len(f.records))
	for k, v := range f.records {
		snapshot[k] = v
	}
	f.mu.Unlock()

	if err := fn(ctx, (*fakeTx)(f)); err != nil {
		f.mu.Lock()
		f.records = snapshot
		f.mu.Unlock()
		return err
	}
	return nil
}

type fakeTx fakeRepo

func (f *fakeTx) ListForUpdate(ctx context.Context, companyID int64, period shared.Period) ([]Payroll, error) {
	return (*fakeRepo)(f).ListByPeriod(ctx, companyID, period)
}

func (f *fakeTx) GetForUpdate(ctx context.Context, companyID int64, id uuid.UUID) (Payroll, error) {
	return (*fakeRepo)(f).Get(ctx, companyID, id)
}

func (f *fakeTx) DeletePayrolls(ctx context.Context, companyID int64, ids []uuid.UUID) (int64, error) {
	if f.failDelete {
		return 0, errors.New("boom")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for _, id := range ids {
		if p, ok := f.records[id]; ok && p.CompanyID == companyID {
			delete(f.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeTx) RevertVoucherToDraft(ctx context.Context, companyID int64, voucherID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reverted = append(f.reverted, voucherID)
	return nil
}

func newTestService(t *testing.T, repo *fakeRepo, employees map[int64]Employee) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, fakeDirectory{employees: employees}, fakeParamSource{params: testParams(t)}, nil, nil, logger)
	svc.WithNow(func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) })
	return svc
}

func seedPayroll(t *testing.T, repo *fakeRepo, employeeID int64, createdAt time.Time) Payroll {
	t.Helper()
	draft, err := BuildDraft(testEmployee(), testPeriod(t), Overrides{}, testParams(t))
	require.NoError(t, err)
	draft.EmployeeID = employeeID
	rec := FromDraft(draft, uuid.New(), createdAt)
	repo.put(rec)
	return rec
}

func TestPreviewComputesWithoutPersisting(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, map[int64]Employee{10: testEmployee()})

	draft, err := svc.Preview(context.Background(), PreviewRequest{CompanyID: 1, EmployeeID: 10, Year: 2026, Month: 1})
	require.NoError(t, err)
	require.Equal(t, int64(1008660), draft.NetSalary)
	require.Empty(t, repo.records)
}

func TestPreviewUnknownEmployee(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), nil)

	_, err := svc.Preview(context.Background(), PreviewRequest{CompanyID: 1, EmployeeID: 99, Year: 2026, Month: 1})
	require.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestComputeBatchPreservesInputOrder(t *testing.T) {
	second := testEmployee()
	second.ID = 11
	second.Name = "Pedro Díaz"
	second.BaseSalary = 800000
	svc := newTestService(t, newFakeRepo(), map[int64]Employee{10: testEmployee(), 11: second})

	drafts, err := svc.ComputeBatch(context.Background(), 1, testPeriod(t), []DraftInput{
		{EmployeeID: 11},
		{EmployeeID: 10},
	})
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	require.Equal(t, int64(11), drafts[0].EmployeeID)
	require.Equal(t, int64(10), drafts[1].EmployeeID)
}

func TestComputeBatchRejectsEmptyInput(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), nil)

	_, err := svc.ComputeBatch(context.Background(), 1, testPeriod(t), nil)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestComputeBatchFailsWholeBatchOnBadEmployee(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), map[int64]Employee{10: testEmployee()})

	_, err := svc.ComputeBatch(context.Background(), 1, testPeriod(t), []DraftInput{
		{EmployeeID: 10},
		{EmployeeID: 99},
	})
	require.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestDeduplicateKeepsNewestPerEmployee(t *testing.T) {
	repo := newFakeRepo()
	base := time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)
	older := seedPayroll(t, repo, 10, base)
	newer := seedPayroll(t, repo, 10, base.Add(time.Hour))
	single := seedPayroll(t, repo, 11, base)
	svc := newTestService(t, repo, nil)

	report, err := svc.Deduplicate(context.Background(), 1, testPeriod(t))
	require.NoError(t, err)
	require.Equal(t, 1, report.DeletedCount)
	require.Len(t, report.Entries, 1)
	require.Equal(t, int64(10), report.Entries[0].EmployeeID)
	require.Equal(t, newer.ID, report.Entries[0].KeptID)
	require.Equal(t, []uuid.UUID{older.ID}, report.Entries[0].DeletedIDs)

	_, err = repo.Get(context.Background(), 1, newer.ID)
	require.NoError(t, err)
	_, err = repo.Get(context.Background(), 1, single.ID)
	require.NoError(t, err)
	_, err = repo.Get(context.Background(), 1, older.ID)
	require.ErrorIs(t, err, ErrPayrollNotFound)
}

func TestDeduplicateNoDuplicatesIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	seedPayroll(t, repo, 10, time.Now())
	seedPayroll(t, repo, 11, time.Now())
	svc := newTestService(t, repo, nil)

	report, err := svc.Deduplicate(context.Background(), 1, testPeriod(t))
	require.NoError(t, err)
	require.Zero(t, report.DeletedCount)
	require.Empty(t, report.Entries)
	require.Len(t, repo.records, 2)
}

func TestDeduplicateRollsBackOnFailure(t *testing.T) {
	repo := newFakeRepo()
	base := time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)
	seedPayroll(t, repo, 10, base)
	seedPayroll(t, repo, 10, base.Add(time.Hour))
	repo.failDelete = true
	svc := newTestService(t, repo, nil)

	_, err := svc.Deduplicate(context.Background(), 1, testPeriod(t))
	require.Error(t, err)
	require.Len(t, repo.records, 2, "failed transaction must leave records untouched")
}

func TestDeleteRevertsCentralizedVoucher(t *testing.T) {
	repo := newFakeRepo()
	rec := seedPayroll(t, repo, 10, time.Now())
	voucherID := uuid.New()
	rec.IsCentralized = true
	rec.VoucherID = &voucherID
	repo.put(rec)
	svc := newTestService(t, repo, nil)

	require.NoError(t, svc.Delete(context.Background(), 1, rec.ID))
	require.Equal(t, []uuid.UUID{voucherID}, repo.reverted)
	_, err := repo.Get(context.Background(), 1, rec.ID)
	require.ErrorIs(t, err, ErrPayrollNotFound)
}

func TestDeleteUncentralizedLeavesVouchersAlone(t *testing.T) {
	repo := newFakeRepo()
	rec := seedPayroll(t, repo, 10, time.Now())
	svc := newTestService(t, repo, nil)

	require.NoError(t, svc.Delete(context.Background(), 1, rec.ID))
	require.Empty(t, repo.reverted)
}

func TestDeleteUnknownPayroll(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), nil)

	err := svc.Delete(context.Background(), 1, uuid.New())
	require.ErrorIs(t, err, ErrPayrollNotFound)
}
