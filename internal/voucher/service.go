package voucher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/austral-hr/austral-hr/internal/payroll"
	"github.com/austral-hr/austral-hr/internal/shared"
)

var (
	// ErrInvalidStatus indicates the transition is not allowed from the
	// voucher's current status.
	ErrInvalidStatus = errors.New("voucher: invalid status transition")
	// ErrUnbalanced indicates debits and credits differ, or the voucher is empty.
	ErrUnbalanced = errors.New("voucher: debits and credits do not balance")
	// ErrPayrollReversal rejects reversal of payroll-centralization vouchers,
	// which would orphan the payroll back-references.
	ErrPayrollReversal = errors.New("voucher: payroll centralization vouchers cannot be reversed")
	// ErrAlreadyCentralized indicates a payroll already carries a voucher.
	ErrAlreadyCentralized = errors.New("voucher: payroll already centralized")
)

// Computer builds payroll drafts for a batch; satisfied by payroll.Service.
type Computer interface {
	ComputeBatch(ctx context.Context, companyID int64, period shared.Period, inputs []payroll.DraftInput) ([]payroll.Draft, error)
}

// AuditPort records state transitions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Metrics counts voucher lifecycle events; satisfied by observability.Metrics.
type Metrics interface {
	VoucherCommitted(company int64)
	VoucherPosted(company int64)
	VoucherReversed(company int64)
}

// Service is the centralization state machine. Every multi-document write
// runs inside one repository transaction; partial application is never
// observable.
type Service struct {
	repo     Repository
	mappings AccountMappingSource
	computer Computer
	audit    AuditPort
	metrics  Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, mappings AccountMappingSource, computer Computer, audit AuditPort, metrics Metrics, logger *slog.Logger) *Service {
	return &Service{repo: repo, mappings: mappings, computer: computer, audit: audit, metrics: metrics, logger: logger, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get returns one voucher in the company scope.
func (s *Service) Get(ctx context.Context, companyID int64, id uuid.UUID) (Voucher, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List returns the period's vouchers, newest first.
func (s *Service) List(ctx context.Context, companyID int64, period shared.Period) ([]Voucher, error) {
	return s.repo.ListByPeriod(ctx, companyID, period)
}

// Commit computes the batch, aggregates it into one draft voucher and
// persists payrolls plus voucher atomically, each payroll stamped with the
// voucher id.
func (s *Service) Commit(ctx context.Context, req CommitRequest) (CommitResult, error) {
	period, err := shared.NewPeriod(req.Year, req.Month)
	if err != nil {
		return CommitResult{}, err
	}
	drafts, err := s.computer.ComputeBatch(ctx, req.CompanyID, period, req.Drafts)
	if err != nil {
		return CommitResult{}, err
	}
	mapping, err := s.mappings.Get(ctx, req.CompanyID)
	if err != nil {
		return CommitResult{}, err
	}

	now := s.now()
	records := make([]payroll.Payroll, 0, len(drafts))
	for _, d := range drafts {
		records = append(records, payroll.FromDraft(d, uuid.New(), now))
	}

	agg := Aggregate(req.CompanyID, period, records, mapping, now, commitDescription(req.Description, period))
	s.warnSkipped(req.CompanyID, agg.Skipped)

	for i := range records {
		records[i].IsCentralized = true
		id := agg.Voucher.ID
		records[i].VoucherID = &id
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertPayrolls(ctx, records); err != nil {
			return err
		}
		return tx.InsertVoucher(ctx, agg.Voucher)
	})
	if err != nil {
		return CommitResult{}, err
	}

	if s.metrics != nil {
		s.metrics.VoucherCommitted(req.CompanyID)
	}
	s.recordAudit(ctx, req.CompanyID, "voucher.commit", agg.Voucher.ID.String(), map[string]any{
		"period":   period.String(),
		"payrolls": len(records),
		"skipped":  len(agg.Skipped),
	})
	return CommitResult{ProcessedCount: len(records), VoucherID: agg.Voucher.ID, Warnings: agg.Skipped}, nil
}

// CentralizeExisting aggregates already-persisted payrolls into one voucher
// at the requested status and stamps them, all in one transaction.
func (s *Service) CentralizeExisting(ctx context.Context, req CentralizeRequest) (CentralizeResult, error) {
	if req.Status != StatusDraft && req.Status != StatusPosted {
		return CentralizeResult{}, fmt.Errorf("%w: target %s", ErrInvalidStatus, req.Status)
	}
	mapping, err := s.mappings.Get(ctx, req.CompanyID)
	if err != nil {
		return CentralizeResult{}, err
	}

	var result CentralizeResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		records, err := tx.ListPayrollsByIDs(ctx, req.CompanyID, req.PayrollIDs)
		if err != nil {
			return err
		}
		if len(records) != len(req.PayrollIDs) {
			return fmt.Errorf("%w: %d of %d payrolls", payroll.ErrPayrollNotFound, len(records), len(req.PayrollIDs))
		}
		period := records[0].Period
		for _, rec := range records {
			if rec.IsCentralized {
				return fmt.Errorf("%w: %s", ErrAlreadyCentralized, rec.ID)
			}
			if rec.Period != period {
				return fmt.Errorf("%w: payrolls span periods %s and %s", shared.ErrValidation, period, rec.Period)
			}
		}

		now := s.now()
		agg := Aggregate(req.CompanyID, period, records, mapping, now, commitDescription(req.Description, period))
		s.warnSkipped(req.CompanyID, agg.Skipped)

		v := agg.Voucher
		if req.Status == StatusPosted {
			if !v.Balanced() || v.Total == 0 {
				return ErrUnbalanced
			}
			v.Status = StatusPosted
			v.PostedAt = &now
		}
		if err := tx.InsertVoucher(ctx, v); err != nil {
			return err
		}
		if err := tx.StampPayrolls(ctx, req.CompanyID, req.PayrollIDs, v.ID); err != nil {
			return err
		}
		result = CentralizeResult{VoucherID: v.ID, Warnings: agg.Skipped}
		return nil
	})
	if err != nil {
		return CentralizeResult{}, err
	}

	if s.metrics != nil {
		s.metrics.VoucherCommitted(req.CompanyID)
	}
	s.recordAudit(ctx, req.CompanyID, "voucher.centralize", result.VoucherID.String(), map[string]any{
		"payrolls": len(req.PayrollIDs),
		"status":   string(req.Status),
	})
	return result, nil
}

// Post transitions Draft to Posted. Only exactly balanced, non-zero vouchers
// may post.
func (s *Service) Post(ctx context.Context, companyID int64, id uuid.UUID) (Voucher, error) {
	var posted Voucher
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		v, err := tx.GetVoucherForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if v.Status != StatusDraft {
			return fmt.Errorf("%w: %s is %s", ErrInvalidStatus, id, v.Status)
		}
		if !v.Balanced() || v.Total == 0 {
			return fmt.Errorf("%w: debit=%d credit=%d", ErrUnbalanced, v.DebitTotal(), v.CreditTotal())
		}
		now := s.now()
		if err := tx.UpdateVoucherStatus(ctx, companyID, id, StatusPosted, &now); err != nil {
			return err
		}
		v.Status = StatusPosted
		v.PostedAt = &now
		posted = v
		return nil
	})
	if err != nil {
		return Voucher{}, err
	}
	if s.metrics != nil {
		s.metrics.VoucherPosted(companyID)
	}
	s.recordAudit(ctx, companyID, "voucher.post", id.String(), nil)
	return posted, nil
}

// Delete removes a Draft voucher and releases any payrolls stamped with it.
func (s *Service) Delete(ctx context.Context, companyID int64, id uuid.UUID) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		v, err := tx.GetVoucherForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}
		if v.Status != StatusDraft {
			return fmt.Errorf("%w: %s is %s", ErrInvalidStatus, id, v.Status)
		}
		if err := tx.UnstampPayrollsByVoucher(ctx, companyID, id); err != nil {
			return err
		}
		return tx.DeleteVoucher(ctx, companyID, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, companyID, "voucher.delete", id.String(), nil)
	return nil
}

// Reverse marks a posted voucher Reversed and creates its mirror image as a
// new posted voucher. Payroll-centralization vouchers refuse this transition.
func (s *Service) Reverse(ctx context.Context, req ReverseRequest) (Voucher, error) {
	var reversal Voucher
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		orig, err := tx.GetVoucherForUpdate(ctx, req.CompanyID, req.VoucherID)
		if err != nil {
			return err
		}
		if orig.Status != StatusPosted {
			return fmt.Errorf("%w: %s is %s", ErrInvalidStatus, orig.ID, orig.Status)
		}
		if orig.Kind == KindPayroll {
			return ErrPayrollReversal
		}

		now := s.now()
		origID := orig.ID
		reversal = Voucher{
			ID:          uuid.New(),
			CompanyID:   orig.CompanyID,
			Date:        now,
			Description: reversalDescription(req.Description, orig),
			Kind:        orig.Kind,
			Status:      StatusPosted,
			Period:      orig.Period,
			Entries:     swapEntries(orig.Entries),
			PostedAt:    &now,
			ReversalOf:  &origID,
		}
		reversal.Total = reversal.DebitTotal()

		if err := tx.InsertVoucher(ctx, reversal); err != nil {
			return err
		}
		return tx.UpdateVoucherStatus(ctx, req.CompanyID, orig.ID, StatusReversed, orig.PostedAt)
	})
	if err != nil {
		return Voucher{}, err
	}
	if s.metrics != nil {
		s.metrics.VoucherReversed(req.CompanyID)
	}
	s.recordAudit(ctx, req.CompanyID, "voucher.reverse", req.VoucherID.String(), map[string]any{
		"reversal_id": reversal.ID.String(),
	})
	return reversal, nil
}

// UndoCentralization deletes the period's draft payroll voucher and every
// payroll stamped with it, atomically. The inverse of Commit, for batches
// found wrong before posting.
func (s *Service) UndoCentralization(ctx context.Context, companyID int64, period shared.Period) (UndoResult, error) {
	var result UndoResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		v, err := tx.FindDraftPayrollVoucher(ctx, companyID, period)
		if err != nil {
			return err
		}
		deleted, err := tx.DeletePayrollsByVoucher(ctx, companyID, v.ID)
		if err != nil {
			return err
		}
		if err := tx.DeleteVoucher(ctx, companyID, v.ID); err != nil {
			return err
		}
		result = UndoResult{VoucherID: v.ID, DeletedPayrolls: deleted}
		return nil
	})
	if err != nil {
		return UndoResult{}, err
	}
	s.recordAudit(ctx, companyID, "voucher.undo_centralization", result.VoucherID.String(), map[string]any{
		"period":           period.String(),
		"deleted_payrolls": result.DeletedPayrolls,
	})
	return result, nil
}

func swapEntries(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, Entry{Account: e.Account, Description: e.Description, Debit: e.Credit, Credit: e.Debit})
	}
	return out
}

func commitDescription(desc string, period shared.Period) string {
	if desc != "" {
		return desc
	}
	return "Centralización remuneraciones " + period.String()
}

func reversalDescription(desc string, orig Voucher) string {
	if desc != "" {
		return desc
	}
	return "Reverso de " + orig.Description
}

func (s *Service) warnSkipped(companyID int64, skipped []SkippedLine) {
	for _, line := range skipped {
		s.logger.Warn("payroll line skipped, no account mapped",
			slog.Int64("company_id", companyID),
			slog.Int64("employee_id", line.EmployeeID),
			slog.String("kind", line.Kind),
			slog.Int64("amount", line.Amount))
	}
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
		Entity:    "voucher",
		EntityID:  entityID,
		Meta:      meta,
		At:        s.now(),
	}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
