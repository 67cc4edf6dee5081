package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"superca/internal/artifact"
	"superca/internal/domain"
	"superca/internal/port"
	"superca/internal/recon"
	"superca/internal/tax"
)

// ComputeInput selects the regime for a compute call. An empty Regime means
// the engine's recommendation stands.
type ComputeInput struct {
	TaxpayerID uuid.UUID
	ReturnID   uuid.UUID
	Actor      uuid.UUID
	Regime     string
}

// OverrideInput is the DTO for setting a manual field override.
type OverrideInput struct {
	TaxpayerID   uuid.UUID
	FilingPeriod string
	Field        string
	Value        string
	Reason       string
	Actor        uuid.UUID
}

// ReturnService owns the return lifecycle: reconcile, compute, confirm,
// file, reject, reopen. Every transition is compare-and-swapped on the prior
// status so concurrent writers cannot double-apply.
type ReturnService interface {
	GetOrCreateDraft(ctx context.Context, taxpayerID uuid.UUID, period string) (*domain.ReturnRecord, error)
	GetByID(ctx context.Context, taxpayerID, returnID uuid.UUID) (*domain.ReturnRecord, error)
	History(ctx context.Context, taxpayerID uuid.UUID, offset, limit int) ([]domain.ReturnRecord, int, error)
	AuditTrail(ctx context.Context, taxpayerID, returnID uuid.UUID) ([]domain.ReturnAuditEntry, error)

	Reconcile(ctx context.Context, taxpayerID, returnID, actor uuid.UUID) (*domain.ReturnRecord, error)
	Compute(ctx context.Context, input *ComputeInput) (*domain.ReturnRecord, error)
	Confirm(ctx context.Context, taxpayerID, returnID, actor uuid.UUID) (*domain.ReturnRecord, error)
	File(ctx context.Context, taxpayerID, returnID, actor uuid.UUID, notifyEmail string) (*domain.ReturnRecord, error)
	Reject(ctx context.Context, taxpayerID, returnID, actor uuid.UUID, reason, notifyEmail string) (*domain.ReturnRecord, error)
	Reopen(ctx context.Context, taxpayerID, returnID, actor uuid.UUID, reason string) (*domain.ReturnRecord, error)

	SetOverride(ctx context.Context, input *OverrideInput) error
	ClearOverride(ctx context.Context, taxpayerID uuid.UUID, period, field string) error

	BuildArtifact(ctx context.Context, taxpayerID, returnID uuid.UUID) (json.RawMessage, error)
}

type returnService struct {
	returnRepo   port.ReturnRepository
	auditRepo    port.ReturnAuditRepository
	resultRepo   port.ExtractionResultRepository
	overrideRepo port.OverrideRepository
	reconciler   *recon.Reconciler
	gate         *recon.Gate
	rules        *tax.Registry
	gateway      port.FilingGateway
	email        port.EmailSender
}

// NewReturnService creates a new ReturnService implementation.
func NewReturnService(
	returnRepo port.ReturnRepository,
	auditRepo port.ReturnAuditRepository,
	resultRepo port.ExtractionResultRepository,
	overrideRepo port.OverrideRepository,
	reconciler *recon.Reconciler,
	gate *recon.Gate,
	rules *tax.Registry,
	gateway port.FilingGateway,
	email port.EmailSender,
) ReturnService {
	return &returnService{
		returnRepo:   returnRepo,
		auditRepo:    auditRepo,
		resultRepo:   resultRepo,
		overrideRepo: overrideRepo,
		reconciler:   reconciler,
		gate:         gate,
		rules:        rules,
		gateway:      gateway,
		email:        email,
	}
}

func (s *returnService) GetOrCreateDraft(ctx context.Context, taxpayerID uuid.UUID, period string) (*domain.ReturnRecord, error) {
	rec, err := s.returnRepo.GetByPeriod(ctx, taxpayerID, period)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, domain.ErrReturnNotFound) {
		return nil, err
	}

	rec = &domain.ReturnRecord{
		ID:           uuid.New(),
		TaxpayerID:   taxpayerID,
		FilingPeriod: period,
		Status:       domain.ReturnStatusDraft,
	}
	if err := s.returnRepo.Create(ctx, rec); err != nil {
		// Two concurrent first calls race on the unique period index; the
		// loser reads the winner's row.
		if errors.Is(err, domain.ErrStateConflict) {
			return s.returnRepo.GetByPeriod(ctx, taxpayerID, period)
		}
		return nil, err
	}
	return rec, nil
}

func (s *returnService) GetByID(ctx context.Context, taxpayerID, returnID uuid.UUID) (*domain.ReturnRecord, error) {
	return s.returnRepo.GetByID(ctx, taxpayerID, returnID)
}

func (s *returnService) History(ctx context.Context, taxpayerID uuid.UUID, offset, limit int) ([]domain.ReturnRecord, int, error) {
	return s.returnRepo.ListByTaxpayer(ctx, taxpayerID, offset, limit)
}

func (s *returnService) AuditTrail(ctx context.Context, taxpayerID, returnID uuid.UUID) ([]domain.ReturnAuditEntry, error) {
	if _, err := s.returnRepo.GetByID(ctx, taxpayerID, returnID); err != nil {
		return nil, err
	}
	return s.auditRepo.ListByReturn(ctx, returnID)
}

// Reconcile re-derives the canonical profile from all extraction results and
// active overrides. Allowed from draft and reconciled; anything later must be
// reopened first. Only one run per (taxpayer, period) is in flight at a time.
func (s *returnService) Reconcile(ctx context.Context, taxpayerID, returnID, actor uuid.UUID) (*domain.ReturnRecord, error) {
	rec, err := s.returnRepo.GetByID(ctx, taxpayerID, returnID)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.ReturnStatusDraft && rec.Status != domain.ReturnStatusReconciled {
		return nil, fmt.Errorf("reconcile from %s: %w", rec.Status, domain.ErrInvalidTransition)
	}

	if err := s.gate.TryAcquire(taxpayerID.String(), rec.FilingPeriod); err != nil {
		return nil, err
	}
	defer s.gate.Release(taxpayerID.String(), rec.FilingPeriod)

	results, err := s.resultRepo.ListByPeriod(ctx, taxpayerID, rec.FilingPeriod)
	if err != nil {
		return nil, err
	}
	overrides, err := s.overrideRepo.ListActive(ctx, taxpayerID, rec.FilingPeriod)
	if err != nil {
		return nil, err
	}
	// Manual entries alone can seed a profile: a period whose documents all
	// came back unextracted still reconciles from overrides.
	if len(results) == 0 && len(overrides) == 0 {
		return nil, domain.ErrNoExtractionInputs
	}

	profile, report, err := s.reconciler.Reconcile(rec.FilingPeriod, results, overrides)
	if err != nil {
		return nil, fmt.Errorf("returnService.Reconcile: %w", err)
	}

	prior := rec.Status
	if rec.Profile, err = json.Marshal(profile); err != nil {
		return nil, fmt.Errorf("returnService.Reconcile profile: %w", err)
	}
	if rec.ReconReport, err = json.Marshal(report); err != nil {
		return nil, fmt.Errorf("returnService.Reconcile report: %w", err)
	}
	// A fresh reconciliation voids any earlier computation.
	rec.Computation = nil
	rec.ChosenRegime = ""
	rec.RegimeSelectedBy = ""
	rec.RuleVersion = ""
	rec.Status = domain.ReturnStatusReconciled

	if err := s.returnRepo.TransitionStatus(ctx, rec, prior); err != nil {
		return nil, err
	}
	s.audit(ctx, rec, prior, actor, "reconcile", reconDetail(report))
	return rec, nil
}

// Compute runs every regime against the profile and records the recommended
// (or explicitly chosen) regime. Blocked while conflicts remain unresolved.
func (s *returnService) Compute(ctx context.Context, input *ComputeInput) (*domain.ReturnRecord, error) {
	rec, err := s.returnRepo.GetByID(ctx, input.TaxpayerID, input.ReturnID)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.ReturnStatusReconciled && rec.Status != domain.ReturnStatusComputed {
		return nil, fmt.Errorf("compute from %s: %w", rec.Status, domain.ErrInvalidTransition)
	}

	report, err := rec.DecodeReport()
	if err != nil {
		return nil, fmt.Errorf("returnService.Compute report: %w", err)
	}
	if report != nil && report.Unresolved > 0 {
		return nil, &domain.ConflictError{Fields: report.UnresolvedFields()}
	}

	profile, err := rec.DecodeProfile()
	if err != nil || profile == nil {
		return nil, fmt.Errorf("returnService.Compute profile: %w", domain.ErrInvalidTransition)
	}

	table, err := s.rules.ForPeriod(rec.FilingPeriod)
	if err != nil {
		return nil, err
	}

	comp, err := tax.Compute(table, profile)
	if err != nil {
		return nil, err
	}

	chosen := comp.RecommendedRegime
	selectedBy := domain.RegimeSelectedByEngine
	if input.Regime != "" && input.Regime != comp.RecommendedRegime {
		regime, ok := comp.Regime(input.Regime)
		if !ok {
			return nil, fmt.Errorf("regime %q: %w", input.Regime, domain.ErrIneligibleRegime)
		}
		if !regime.Eligible {
			return nil, &domain.IneligibleRegimeError{
				Regime:        regime.Regime,
				Reasons:       regime.IneligibleReasons,
				MissingFields: regime.MissingFields,
			}
		}
		chosen = input.Regime
		selectedBy = domain.RegimeSelectedByUser
	}
	if chosen == "" {
		// No regime was eligible at all.
		return nil, ineligibleError(comp)
	}

	prior := rec.Status
	if rec.Computation, err = json.Marshal(comp); err != nil {
		return nil, fmt.Errorf("returnService.Compute marshal: %w", err)
	}
	rec.ChosenRegime = chosen
	rec.RegimeSelectedBy = selectedBy
	rec.RuleVersion = comp.RuleVersion
	rec.Status = domain.ReturnStatusComputed

	if err := s.returnRepo.TransitionStatus(ctx, rec, prior); err != nil {
		return nil, err
	}
	s.audit(ctx, rec, prior, input.Actor, "compute",
		map[string]interface{}{"regime": chosen, "selected_by": selectedBy, "rule_version": comp.RuleVersion})
	return rec, nil
}

func (s *returnService) Confirm(ctx context.Context, taxpayerID, returnID, actor uuid.UUID) (*domain.ReturnRecord, error) {
	rec, err := s.returnRepo.GetByID(ctx, taxpayerID, returnID)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.ReturnStatusComputed {
		return nil, fmt.Errorf("confirm from %s: %w", rec.Status, domain.ErrInvalidTransition)
	}

	now := time.Now().UTC()
	prior := rec.Status
	rec.Status = domain.ReturnStatusReadyToFile
	rec.ConfirmedBy = &actor
	rec.ConfirmedAt = &now

	if err := s.returnRepo.TransitionStatus(ctx, rec, prior); err != nil {
		return nil, err
	}
	s.audit(ctx, rec, prior, actor, "confirm", nil)
	return rec, nil
}

// File submits the built artifact to the filing authority. On success the
// return moves to filed; on failure it stays ready_to_file with the error
// recorded so the caller can retry deliberately.
func (s *returnService) File(ctx context.Context, taxpayerID, returnID, actor uuid.UUID, notifyEmail string) (*domain.ReturnRecord, error) {
	rec, err := s.returnRepo.GetByID(ctx, taxpayerID, returnID)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.ReturnStatusReadyToFile {
		if rec.Status == domain.ReturnStatusComputed {
			return nil, domain.ErrNotConfirmed
		}
		return nil, fmt.Errorf("file from %s: %w", rec.Status, domain.ErrInvalidTransition)
	}

	doc, err := artifact.Build(rec)
	if err != nil {
		return nil, err
	}
	payload, err := artifact.Marshal(doc)
	if err != nil {
		return nil, err
	}

	ack, submitErr := s.gateway.File(ctx, taxpayerID, payload)
	if submitErr != nil {
		rec.FilingError = submitErr.Error()
		if err := s.returnRepo.TransitionStatus(ctx, rec, domain.ReturnStatusReadyToFile); err != nil {
			log.Printf("returnService.File: record filing error: %v", err)
		}
		if errors.Is(submitErr, domain.ErrFilingRejected) {
			return nil, submitErr
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrFilingFailed, submitErr)
	}

	prior := rec.Status
	rec.Status = domain.ReturnStatusFiled
	rec.FilingRef = ack.Reference
	rec.FilingError = ""
	filedAt := ack.FiledAt.UTC()
	rec.FiledAt = &filedAt

	if err := s.returnRepo.TransitionStatus(ctx, rec, prior); err != nil {
		return nil, err
	}
	s.audit(ctx, rec, prior, actor, "file", map[string]interface{}{"reference": ack.Reference})

	if notifyEmail != "" && s.email != nil {
		if err := s.email.SendFilingAccepted(ctx, notifyEmail, rec.FilingPeriod, ack.Reference); err != nil {
			log.Printf("returnService.File: notify %s: %v", notifyEmail, err)
		}
	}
	return rec, nil
}

// Reject records an authority-side rejection. Valid from computed,
// ready_to_file and filed (the authority can bounce a return after accepting
// the submission).
func (s *returnService) Reject(ctx context.Context, taxpayerID, returnID, actor uuid.UUID, reason, notifyEmail string) (*domain.ReturnRecord, error) {
	rec, err := s.returnRepo.GetByID(ctx, taxpayerID, returnID)
	if err != nil {
		return nil, err
	}
	switch rec.Status {
	case domain.ReturnStatusComputed, domain.ReturnStatusReadyToFile, domain.ReturnStatusFiled:
	default:
		return nil, fmt.Errorf("reject from %s: %w", rec.Status, domain.ErrInvalidTransition)
	}

	prior := rec.Status
	rec.Status = domain.ReturnStatusRejected
	rec.RejectionReason = reason

	if err := s.returnRepo.TransitionStatus(ctx, rec, prior); err != nil {
		return nil, err
	}
	s.audit(ctx, rec, prior, actor, "reject", map[string]interface{}{"reason": reason})

	if notifyEmail != "" && s.email != nil {
		if err := s.email.SendFilingRejected(ctx, notifyEmail, rec.FilingPeriod, reason); err != nil {
			log.Printf("returnService.Reject: notify %s: %v", notifyEmail, err)
		}
	}
	return rec, nil
}

// Reopen sends the return back to draft from any state, voiding the
// computation and confirmation so the pipeline reruns from reconciliation.
// The voided state is preserved in the audit detail.
func (s *returnService) Reopen(ctx context.Context, taxpayerID, returnID, actor uuid.UUID, reason string) (*domain.ReturnRecord, error) {
	rec, err := s.returnRepo.GetByID(ctx, taxpayerID, returnID)
	if err != nil {
		return nil, err
	}
	if rec.Status == domain.ReturnStatusDraft {
		return rec, nil
	}

	detail := map[string]interface{}{"reason": reason}
	if len(rec.Computation) > 0 {
		detail["voided_computation"] = json.RawMessage(rec.Computation)
	}
	if rec.FilingRef != "" {
		detail["filing_ref"] = rec.FilingRef
	}

	prior := rec.Status
	rec.Status = domain.ReturnStatusDraft
	rec.Computation = nil
	rec.ChosenRegime = ""
	rec.RegimeSelectedBy = ""
	rec.RuleVersion = ""
	rec.FilingError = ""
	rec.RejectionReason = ""
	rec.ConfirmedBy = nil
	rec.ConfirmedAt = nil

	if err := s.returnRepo.TransitionStatus(ctx, rec, prior); err != nil {
		return nil, err
	}
	s.audit(ctx, rec, prior, actor, "reopen", detail)
	return rec, nil
}

// SetOverride stores a manual value. The profile only reflects it after the
// next reconcile; overrides never mutate a derived profile in place.
func (s *returnService) SetOverride(ctx context.Context, input *OverrideInput) error {
	return s.overrideRepo.Upsert(ctx, &domain.FieldOverride{
		ID:           uuid.New(),
		TaxpayerID:   input.TaxpayerID,
		FilingPeriod: input.FilingPeriod,
		Field:        input.Field,
		Value:        input.Value,
		Reason:       input.Reason,
		CreatedBy:    input.Actor,
	})
}

func (s *returnService) ClearOverride(ctx context.Context, taxpayerID uuid.UUID, period, field string) error {
	return s.overrideRepo.Clear(ctx, taxpayerID, period, field, time.Now().UTC())
}

func (s *returnService) BuildArtifact(ctx context.Context, taxpayerID, returnID uuid.UUID) (json.RawMessage, error) {
	rec, err := s.returnRepo.GetByID(ctx, taxpayerID, returnID)
	if err != nil {
		return nil, err
	}
	switch rec.Status {
	case domain.ReturnStatusComputed, domain.ReturnStatusReadyToFile, domain.ReturnStatusFiled:
	default:
		return nil, fmt.Errorf("artifact from %s: %w", rec.Status, domain.ErrInvalidTransition)
	}
	doc, err := artifact.Build(rec)
	if err != nil {
		return nil, err
	}
	return artifact.Marshal(doc)
}

// audit appends a transition entry. Audit failures are logged, never allowed
// to fail the transition they describe.
func (s *returnService) audit(ctx context.Context, rec *domain.ReturnRecord, from domain.ReturnStatus, actor uuid.UUID, reason string, detail map[string]interface{}) {
	entry := &domain.ReturnAuditEntry{
		ID:         uuid.New(),
		ReturnID:   rec.ID,
		TaxpayerID: rec.TaxpayerID,
		FromStatus: from,
		ToStatus:   rec.Status,
		Actor:      actor,
		Reason:     reason,
	}
	if detail != nil {
		if raw, err := json.Marshal(detail); err == nil {
			entry.Detail = raw
		}
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("returnService.audit: %s -> %s for %s: %v", from, rec.Status, rec.ID, err)
	}
}

func reconDetail(report *domain.ReconciliationReport) map[string]interface{} {
	return map[string]interface{}{
		"conflicts":  len(report.Conflicts),
		"unresolved": report.Unresolved,
	}
}

func ineligibleError(comp *domain.TaxComputation) error {
	for i := range comp.Regimes {
		rc := &comp.Regimes[i]
		if !rc.Eligible {
			return &domain.IneligibleRegimeError{
				Regime:        rc.Regime,
				Reasons:       rc.IneligibleReasons,
				MissingFields: rc.MissingFields,
			}
		}
	}
	return domain.ErrIneligibleRegime
}
