package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/austral-hr/austral-hr/internal/params"
	"github.com/austral-hr/austral-hr/internal/shared"
)

// ParamSource resolves the effective statutory parameters for a period.
type ParamSource interface {
	Resolve(ctx context.Context, companyID int64, period shared.Period) (params.StatutoryParameters, error)
}

// AuditPort records state transitions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Metrics counts domain events; satisfied by observability.Metrics.
type Metrics interface {
	PayrollComputed(company int64, n int)
	PayrollsDeduplicated(company int64, n int)
}

// Service owns payroll computation, deduplication and record deletion.
// Commit and centralization live in the voucher package, which persists
// payroll batches and their voucher atomically.
type Service struct {
	repo      Repository
	employees EmployeeDirectory
	params    ParamSource
	audit     AuditPort
	metrics   Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, employees EmployeeDirectory, paramSource ParamSource, audit AuditPort, metrics Metrics, logger *slog.Logger) *Service {
	return &Service{repo: repo, employees: employees, params: paramSource, audit: audit, metrics: metrics, logger: logger, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Preview computes one draft. Nothing is persisted.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (Draft, error) {
	period, err := shared.NewPeriod(req.Year, req.Month)
	if err != nil {
		return Draft{}, err
	}
	p, err := s.params.Resolve(ctx, req.CompanyID, period)
	if err != nil {
		return Draft{}, err
	}
	emp, err := s.employees.Get(ctx, req.CompanyID, req.EmployeeID)
	if err != nil {
		return Draft{}, err
	}
	var ov Overrides
	if req.Overrides != nil {
		ov = *req.Overrides
	}
	return BuildDraft(emp, period, ov, p)
}

// ComputeBatch builds one draft per input, resolving parameters once and
// fanning the pure computations out across goroutines. Result order follows
// input order.
func (s *Service) ComputeBatch(ctx context.Context, companyID int64, period shared.Period, inputs []DraftInput) ([]Draft, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: empty batch", shared.ErrValidation)
	}
	p, err := s.params.Resolve(ctx, companyID, period)
	if err != nil {
		return nil, err
	}

	drafts := make([]Draft, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, in := range inputs {
		g.Go(func() error {
			emp, err := s.employees.Get(gctx, companyID, in.EmployeeID)
			if err != nil {
				return fmt.Errorf("employee %d: %w", in.EmployeeID, err)
			}
			var ov Overrides
			if in.Overrides != nil {
				ov = *in.Overrides
			}
			draft, err := BuildDraft(emp, period, ov, p)
			if err != nil {
				return fmt.Errorf("employee %d: %w", in.EmployeeID, err)
			}
			drafts[i] = draft
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PayrollComputed(companyID, len(drafts))
	}
	return drafts, nil
}

// List returns the persisted payrolls for one period.
func (s *Service) List(ctx context.Context, companyID int64, period shared.Period) ([]Payroll, error) {
	return s.repo.ListByPeriod(ctx, companyID, period)
}

// Get returns one persisted payroll.
func (s *Service) Get(ctx context.Context, companyID int64, id uuid.UUID) (Payroll, error) {
	return s.repo.Get(ctx, companyID, id)
}

// Deduplicate keeps the newest record per employee for the period and deletes
// the rest, all in one transaction. It is the designated repair for racing
// commits of the same (employee, period).
func (s *Service) Deduplicate(ctx context.Context, companyID int64, period shared.Period) (DedupReport, error) {
	var report DedupReport
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		records, err := tx.ListForUpdate(ctx, companyID, period)
		if err != nil {
			return err
		}
		byEmployee := make(map[int64][]Payroll)
		for _, rec := range records {
			byEmployee[rec.EmployeeID] = append(byEmployee[rec.EmployeeID], rec)
		}

		var doomed []uuid.UUID
		for employeeID, recs := range byEmployee {
			if len(recs) < 2 {
				continue
			}
			sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
			entry := DedupEntry{EmployeeID: employeeID, KeptID: recs[0].ID}
			for _, old := range recs[1:] {
				entry.DeletedIDs = append(entry.DeletedIDs, old.ID)
				doomed = append(doomed, old.ID)
			}
			report.Entries = append(report.Entries, entry)
		}
		sort.Slice(report.Entries, func(i, j int) bool { return report.Entries[i].EmployeeID < report.Entries[j].EmployeeID })

		deleted, err := tx.DeletePayrolls(ctx, companyID, doomed)
		if err != nil {
			return err
		}
		report.DeletedCount = int(deleted)
		return nil
	})
	if err != nil {
		return DedupReport{}, err
	}
	if report.DeletedCount > 0 {
		if s.metrics != nil {
			s.metrics.PayrollsDeduplicated(companyID, report.DeletedCount)
		}
		s.recordAudit(ctx, companyID, "payroll.deduplicate", period.String(), map[string]any{
			"deleted": report.DeletedCount,
		})
	}
	return report, nil
}

// Delete removes one payroll. A record still referencing a Draft or Posted
// voucher downgrades that voucher to Draft in the same transaction; the
// voucher itself stays.
func (s *Service) Delete(ctx context.Context, companyID int64, id uuid.UUID) error {
	var voucherID *uuid.UUID
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		rec, err := tx.GetForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if rec.VoucherID != nil {
			if err := tx.RevertVoucherToDraft(ctx, companyID, *rec.VoucherID); err != nil {
				return err
			}
			voucherID = rec.VoucherID
		}
		_, err = tx.DeletePayrolls(ctx, companyID, []uuid.UUID{id})
		return err
	})
	if err != nil {
		return err
	}
	meta := map[string]any{}
	if voucherID != nil {
		meta["voucher_reverted"] = voucherID.String()
	}
	s.recordAudit(ctx, companyID, "payroll.delete", id.String(), meta)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, companyID int64, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	actor := shared.ActorFromContext(ctx)
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:   actor.ID,
		CompanyID: companyID,
		Action:    action,
		Entity:    "payroll",
		EntityID:  entityID,
		Meta:      meta,
		At:        s.now(),
	}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
