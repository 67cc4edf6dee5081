package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"superca/internal/domain"
	"superca/internal/port"
	"superca/internal/recon"
	"superca/internal/service"
	"superca/internal/tax"
	"superca/mocks"
)

type returnFixture struct {
	svc          service.ReturnService
	returnRepo   *mocks.MockReturnRepo
	auditRepo    *mocks.MockReturnAuditRepo
	resultRepo   *mocks.MockExtractionResultRepo
	overrideRepo *mocks.MockOverrideRepo
	gateway      *mocks.MockFilingGateway
	email        *mocks.MockEmailSender
	gate         *recon.Gate
}

func setupReturnService(t *testing.T) *returnFixture {
	t.Helper()
	f := &returnFixture{
		returnRepo:   new(mocks.MockReturnRepo),
		auditRepo:    new(mocks.MockReturnAuditRepo),
		resultRepo:   new(mocks.MockExtractionResultRepo),
		overrideRepo: new(mocks.MockOverrideRepo),
		gateway:      new(mocks.MockFilingGateway),
		email:        new(mocks.MockEmailSender),
		gate:         recon.NewGate(),
	}
	rules := tax.NewRegistry()
	require.NoError(t, rules.LoadEmbedded())
	f.svc = service.NewReturnService(
		f.returnRepo, f.auditRepo, f.resultRepo, f.overrideRepo,
		recon.New(recon.DefaultPolicy()), f.gate, rules, f.gateway, f.email)
	return f
}

func extractionResult(t *testing.T, taxpayerID uuid.UUID, docType domain.DocumentType, fields map[string]domain.ExtractionField) domain.ExtractionResult {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	return domain.ExtractionResult{
		ID:           uuid.New(),
		DocumentID:   uuid.New(),
		TaxpayerID:   taxpayerID,
		FilingPeriod: "2024-25",
		DocumentType: docType,
		Provider:     "claude",
		Fields:       raw,
		CreatedAt:    time.Now(),
	}
}

func draftReturn(taxpayerID uuid.UUID) *domain.ReturnRecord {
	return &domain.ReturnRecord{
		ID:           uuid.New(),
		TaxpayerID:   taxpayerID,
		FilingPeriod: "2024-25",
		Status:       domain.ReturnStatusDraft,
	}
}

// reconciledReturn carries a clean profile so Compute can run.
func reconciledReturn(t *testing.T, taxpayerID uuid.UUID, unresolvedField string) *domain.ReturnRecord {
	t.Helper()
	salary := int64(120000000)
	tds := int64(9000000)
	profile := &domain.CanonicalProfile{
		FilingPeriod: "2024-25",
		Values: map[string]domain.ProfileValue{
			"pan":          {Field: "pan", Value: "ABCDE1234F", Resolution: domain.ResolutionAgreement},
			"gross_salary": {Field: "gross_salary", Value: "12,00,000", Paise: &salary, Resolution: domain.ResolutionAgreement},
			"tds_deducted": {Field: "tds_deducted", Value: "90,000", Paise: &tds, Resolution: domain.ResolutionAgreement},
		},
	}
	report := &domain.ReconciliationReport{FilingPeriod: "2024-25"}
	if unresolvedField != "" {
		report.Conflicts = []domain.Conflict{{Field: unresolvedField, Resolution: domain.ResolutionUnresolved}}
		report.Unresolved = 1
	}

	rec := draftReturn(taxpayerID)
	rec.Status = domain.ReturnStatusReconciled
	var err error
	rec.Profile, err = json.Marshal(profile)
	require.NoError(t, err)
	rec.ReconReport, err = json.Marshal(report)
	require.NoError(t, err)
	return rec
}

func computedReturn(t *testing.T, taxpayerID uuid.UUID) *domain.ReturnRecord {
	t.Helper()
	rec := reconciledReturn(t, taxpayerID, "")
	table := tax.NewRegistry()
	require.NoError(t, table.LoadEmbedded())
	rt, err := table.ForPeriod("2024-25")
	require.NoError(t, err)
	profile, err := rec.DecodeProfile()
	require.NoError(t, err)
	comp, err := tax.Compute(rt, profile)
	require.NoError(t, err)
	rec.Computation, err = json.Marshal(comp)
	require.NoError(t, err)
	rec.Status = domain.ReturnStatusComputed
	rec.ChosenRegime = comp.RecommendedRegime
	rec.RegimeSelectedBy = domain.RegimeSelectedByEngine
	rec.RuleVersion = comp.RuleVersion
	return rec
}

// --- GetOrCreateDraft ---

func TestReturnService_GetOrCreateDraft_Creates(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()

	f.returnRepo.On("GetByPeriod", mock.Anything, taxpayerID, "2024-25").
		Return(nil, domain.ErrReturnNotFound).Once()
	f.returnRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ReturnRecord")).Return(nil)

	rec, err := f.svc.GetOrCreateDraft(context.Background(), taxpayerID, "2024-25")

	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusDraft, rec.Status)
	assert.Equal(t, "2024-25", rec.FilingPeriod)
}

func TestReturnService_GetOrCreateDraft_LosesCreateRace(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	winner := draftReturn(taxpayerID)

	f.returnRepo.On("GetByPeriod", mock.Anything, taxpayerID, "2024-25").
		Return(nil, domain.ErrReturnNotFound).Once()
	f.returnRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ReturnRecord")).
		Return(domain.ErrStateConflict)
	f.returnRepo.On("GetByPeriod", mock.Anything, taxpayerID, "2024-25").
		Return(winner, nil).Once()

	rec, err := f.svc.GetOrCreateDraft(context.Background(), taxpayerID, "2024-25")

	require.NoError(t, err)
	assert.Equal(t, winner.ID, rec.ID)
}

// --- Reconcile ---

func TestReturnService_Reconcile_Success(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := draftReturn(taxpayerID)

	results := []domain.ExtractionResult{
		extractionResult(t, taxpayerID, domain.DocTypeForm16, map[string]domain.ExtractionField{
			"pan":          {Value: "ABCDE1234F", Confidence: 0.99},
			"gross_salary": {Value: "12,00,000", Confidence: 0.95},
		}),
	}

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)
	f.resultRepo.On("ListByPeriod", mock.Anything, taxpayerID, "2024-25").Return(results, nil)
	f.overrideRepo.On("ListActive", mock.Anything, taxpayerID, "2024-25").Return([]domain.FieldOverride{}, nil)
	f.returnRepo.On("TransitionStatus", mock.Anything, mock.AnythingOfType("*domain.ReturnRecord"), domain.ReturnStatusDraft).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ReturnAuditEntry")).Return(nil)

	out, err := f.svc.Reconcile(context.Background(), taxpayerID, rec.ID, taxpayerID)

	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusReconciled, out.Status)
	assert.NotEmpty(t, out.Profile)
	assert.Empty(t, out.Computation)
	assert.Empty(t, out.ChosenRegime)

	profile, err := out.DecodeProfile()
	require.NoError(t, err)
	assert.Equal(t, "ABCDE1234F", profile.Values["pan"].Value)
	f.returnRepo.AssertExpectations(t)
}

func TestReturnService_Reconcile_VoidsEarlierComputation(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := computedReturn(t, taxpayerID)
	rec.Status = domain.ReturnStatusReconciled

	results := []domain.ExtractionResult{
		extractionResult(t, taxpayerID, domain.DocTypeForm16, map[string]domain.ExtractionField{
			"gross_salary": {Value: "13,00,000", Confidence: 0.95},
		}),
	}

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)
	f.resultRepo.On("ListByPeriod", mock.Anything, taxpayerID, "2024-25").Return(results, nil)
	f.overrideRepo.On("ListActive", mock.Anything, taxpayerID, "2024-25").Return([]domain.FieldOverride{}, nil)
	f.returnRepo.On("TransitionStatus", mock.Anything, mock.Anything, domain.ReturnStatusReconciled).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := f.svc.Reconcile(context.Background(), taxpayerID, rec.ID, taxpayerID)

	require.NoError(t, err)
	assert.Empty(t, out.Computation)
	assert.Empty(t, out.ChosenRegime)
	assert.Empty(t, out.RuleVersion)
}

func TestReturnService_Reconcile_NoInputs(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := draftReturn(taxpayerID)

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)
	f.resultRepo.On("ListByPeriod", mock.Anything, taxpayerID, "2024-25").Return([]domain.ExtractionResult{}, nil)
	f.overrideRepo.On("ListActive", mock.Anything, taxpayerID, "2024-25").Return([]domain.FieldOverride{}, nil)

	_, err := f.svc.Reconcile(context.Background(), taxpayerID, rec.ID, taxpayerID)
	assert.ErrorIs(t, err, domain.ErrNoExtractionInputs)
}

func TestReturnService_Reconcile_OverridesOnly(t *testing.T) {
	// A period whose documents all came back unextracted still reconciles
	// from manual entries alone.
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := draftReturn(taxpayerID)

	overrides := []domain.FieldOverride{
		{ID: uuid.New(), TaxpayerID: taxpayerID, FilingPeriod: "2024-25",
			Field: "pan", Value: "ABCDE1234F", Reason: "documents unreadable"},
		{ID: uuid.New(), TaxpayerID: taxpayerID, FilingPeriod: "2024-25",
			Field: "gross_salary", Value: "12,00,000", Reason: "documents unreadable"},
	}

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)
	f.resultRepo.On("ListByPeriod", mock.Anything, taxpayerID, "2024-25").Return([]domain.ExtractionResult{}, nil)
	f.overrideRepo.On("ListActive", mock.Anything, taxpayerID, "2024-25").Return(overrides, nil)
	f.returnRepo.On("TransitionStatus", mock.Anything, mock.AnythingOfType("*domain.ReturnRecord"), domain.ReturnStatusDraft).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := f.svc.Reconcile(context.Background(), taxpayerID, rec.ID, taxpayerID)

	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusReconciled, out.Status)

	profile, err := out.DecodeProfile()
	require.NoError(t, err)
	assert.Equal(t, "ABCDE1234F", profile.Values["pan"].Value)
	assert.Equal(t, domain.ResolutionOverride, profile.Values["gross_salary"].Resolution)
	require.NotNil(t, profile.Values["gross_salary"].Paise)
	assert.Equal(t, int64(120000000), *profile.Values["gross_salary"].Paise)
}

func TestReturnService_Reconcile_InvalidFromFiled(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := draftReturn(taxpayerID)
	rec.Status = domain.ReturnStatusFiled

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)

	_, err := f.svc.Reconcile(context.Background(), taxpayerID, rec.ID, taxpayerID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestReturnService_Reconcile_GateHeld(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := draftReturn(taxpayerID)

	require.NoError(t, f.gate.TryAcquire(taxpayerID.String(), "2024-25"))
	defer f.gate.Release(taxpayerID.String(), "2024-25")

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)

	_, err := f.svc.Reconcile(context.Background(), taxpayerID, rec.ID, taxpayerID)
	assert.ErrorIs(t, err, domain.ErrReconInProgress)
}

// --- Compute ---

func TestReturnService_Compute_Recommended(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := reconciledReturn(t, taxpayerID, "")

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)
	f.returnRepo.On("TransitionStatus", mock.Anything, mock.Anything, domain.ReturnStatusReconciled).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := f.svc.Compute(context.Background(), &service.ComputeInput{
		TaxpayerID: taxpayerID, ReturnID: rec.ID, Actor: taxpayerID,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusComputed, out.Status)
	assert.Equal(t, "new", out.ChosenRegime)
	assert.Equal(t, domain.RegimeSelectedByEngine, out.RegimeSelectedBy)
	assert.Equal(t, "fy2024-25.v1", out.RuleVersion)

	comp, err := out.DecodeComputation()
	require.NoError(t, err)
	assert.Equal(t, "new", comp.RecommendedRegime)
}

func TestReturnService_Compute_UserRegimeChoice(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := reconciledReturn(t, taxpayerID, "")

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)
	f.returnRepo.On("TransitionStatus", mock.Anything, mock.Anything, domain.ReturnStatusReconciled).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := f.svc.Compute(context.Background(), &service.ComputeInput{
		TaxpayerID: taxpayerID, ReturnID: rec.ID, Actor: taxpayerID, Regime: "old",
	})

	require.NoError(t, err)
	assert.Equal(t, "old", out.ChosenRegime)
	assert.Equal(t, domain.RegimeSelectedByUser, out.RegimeSelectedBy)
}

func TestReturnService_Compute_BlockedByUnresolvedConflicts(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := reconciledReturn(t, taxpayerID, "interest_income")

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)

	_, err := f.svc.Compute(context.Background(), &service.ComputeInput{
		TaxpayerID: taxpayerID, ReturnID: rec.ID, Actor: taxpayerID,
	})

	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"interest_income"}, ce.Fields)
	assert.ErrorIs(t, err, domain.ErrUnresolvedConflict)
	f.returnRepo.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestReturnService_Compute_IneligibleExplicitRegime(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := reconciledReturn(t, taxpayerID, "")

	// Force a profile the new regime rejects.
	profile, err := rec.DecodeProfile()
	require.NoError(t, err)
	turnover := int64(250000000)
	profile.Values["business_turnover"] = domain.ProfileValue{
		Field: "business_turnover", Value: "25,00,000", Paise: &turnover,
		Resolution: domain.ResolutionAgreement,
	}
	rec.Profile, err = json.Marshal(profile)
	require.NoError(t, err)

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)

	_, err = f.svc.Compute(context.Background(), &service.ComputeInput{
		TaxpayerID: taxpayerID, ReturnID: rec.ID, Actor: taxpayerID, Regime: "new",
	})

	var ire *domain.IneligibleRegimeError
	require.ErrorAs(t, err, &ire)
	assert.Equal(t, "new", ire.Regime)
	assert.ErrorIs(t, err, domain.ErrIneligibleRegime)
}

func TestReturnService_Compute_InvalidFromDraft(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := draftReturn(taxpayerID)

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)

	_, err := f.svc.Compute(context.Background(), &service.ComputeInput{
		TaxpayerID: taxpayerID, ReturnID: rec.ID, Actor: taxpayerID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// --- Confirm / File ---

func TestReturnService_Confirm(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	actor := uuid.New()
	rec := computedReturn(t, taxpayerID)

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)
	f.returnRepo.On("TransitionStatus", mock.Anything, mock.Anything, domain.ReturnStatusComputed).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := f.svc.Confirm(context.Background(), taxpayerID, rec.ID, actor)

	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusReadyToFile, out.Status)
	assert.Equal(t, &actor, out.ConfirmedBy)
	assert.NotNil(t, out.ConfirmedAt)
}

func TestReturnService_File_Success(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := computedReturn(t, taxpayerID)
	rec.Status = domain.ReturnStatusReadyToFile

	filedAt := time.Now()
	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)
	f.gateway.On("File", mock.Anything, taxpayerID, mock.Anything).
		Return(&port.FilingAck{Reference: "ACK-123", FiledAt: filedAt}, nil)
	f.returnRepo.On("TransitionStatus", mock.Anything, mock.Anything, domain.ReturnStatusReadyToFile).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.email.On("SendFilingAccepted", mock.Anything, "ca@example.com", "2024-25", "ACK-123").Return(nil)

	out, err := f.svc.File(context.Background(), taxpayerID, rec.ID, taxpayerID, "ca@example.com")

	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusFiled, out.Status)
	assert.Equal(t, "ACK-123", out.FilingRef)
	assert.NotNil(t, out.FiledAt)
	f.email.AssertExpectations(t)
}

func TestReturnService_File_TransportFailureStaysReady(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := computedReturn(t, taxpayerID)
	rec.Status = domain.ReturnStatusReadyToFile

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)
	f.gateway.On("File", mock.Anything, taxpayerID, mock.Anything).
		Return(nil, errors.New("gateway timeout"))
	f.returnRepo.On("TransitionStatus", mock.Anything,
		mock.MatchedBy(func(r *domain.ReturnRecord) bool {
			return r.Status == domain.ReturnStatusReadyToFile && r.FilingError == "gateway timeout"
		}), domain.ReturnStatusReadyToFile).Return(nil)

	_, err := f.svc.File(context.Background(), taxpayerID, rec.ID, taxpayerID, "")

	assert.ErrorIs(t, err, domain.ErrFilingFailed)
	f.returnRepo.AssertExpectations(t)
	f.email.AssertNotCalled(t, "SendFilingAccepted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReturnService_File_RejectionPassesThrough(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := computedReturn(t, taxpayerID)
	rec.Status = domain.ReturnStatusReadyToFile

	submitErr := fmt.Errorf("filing rejected: %s: %w", "PAN mismatch", domain.ErrFilingRejected)
	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)
	f.gateway.On("File", mock.Anything, taxpayerID, mock.Anything).Return(nil, submitErr)
	f.returnRepo.On("TransitionStatus", mock.Anything, mock.Anything, domain.ReturnStatusReadyToFile).Return(nil)

	_, err := f.svc.File(context.Background(), taxpayerID, rec.ID, taxpayerID, "")

	assert.ErrorIs(t, err, domain.ErrFilingRejected)
	assert.NotErrorIs(t, err, domain.ErrFilingFailed)
}

func TestReturnService_File_UnconfirmedComputed(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := computedReturn(t, taxpayerID)

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)

	_, err := f.svc.File(context.Background(), taxpayerID, rec.ID, taxpayerID, "")
	assert.ErrorIs(t, err, domain.ErrNotConfirmed)
}

func TestReturnService_File_CASLoser(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := computedReturn(t, taxpayerID)
	rec.Status = domain.ReturnStatusReadyToFile

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)
	f.gateway.On("File", mock.Anything, taxpayerID, mock.Anything).
		Return(&port.FilingAck{Reference: "ACK-9", FiledAt: time.Now()}, nil)
	f.returnRepo.On("TransitionStatus", mock.Anything, mock.Anything, domain.ReturnStatusReadyToFile).
		Return(domain.ErrStateConflict)

	_, err := f.svc.File(context.Background(), taxpayerID, rec.ID, taxpayerID, "")
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

// --- Reject / Reopen ---

func TestReturnService_Reject_FromFiled(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := computedReturn(t, taxpayerID)
	rec.Status = domain.ReturnStatusFiled

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)
	f.returnRepo.On("TransitionStatus", mock.Anything, mock.Anything, domain.ReturnStatusFiled).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.email.On("SendFilingRejected", mock.Anything, "ca@example.com", "2024-25", "PAN mismatch").Return(nil)

	out, err := f.svc.Reject(context.Background(), taxpayerID, rec.ID, taxpayerID, "PAN mismatch", "ca@example.com")

	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusRejected, out.Status)
	assert.Equal(t, "PAN mismatch", out.RejectionReason)
}

func TestReturnService_Reject_InvalidFromDraft(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := draftReturn(taxpayerID)

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)

	_, err := f.svc.Reject(context.Background(), taxpayerID, rec.ID, taxpayerID, "nope", "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestReturnService_Reopen_VoidsComputation(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := computedReturn(t, taxpayerID)

	var audited *domain.ReturnAuditEntry
	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)
	f.returnRepo.On("TransitionStatus", mock.Anything, mock.Anything, domain.ReturnStatusComputed).Return(nil)
	f.auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ReturnAuditEntry")).
		Run(func(args mock.Arguments) {
			audited = args.Get(1).(*domain.ReturnAuditEntry)
		}).Return(nil)

	out, err := f.svc.Reopen(context.Background(), taxpayerID, rec.ID, taxpayerID, "figures disputed")

	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusDraft, out.Status)
	assert.Empty(t, out.Computation)
	assert.Empty(t, out.ChosenRegime)
	assert.Nil(t, out.ConfirmedBy)

	require.NotNil(t, audited)
	var detail map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(audited.Detail, &detail))
	assert.Contains(t, detail, "voided_computation")
	assert.Contains(t, detail, "reason")
}

func TestReturnService_Reopen_DraftNoop(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := draftReturn(taxpayerID)

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)

	out, err := f.svc.Reopen(context.Background(), taxpayerID, rec.ID, taxpayerID, "")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, out.ID)
	f.returnRepo.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything)
}

// --- Overrides / Artifact ---

func TestReturnService_SetOverride(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()

	f.overrideRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(o *domain.FieldOverride) bool {
		return o.Field == "interest_income" && o.Value == "10,050" && o.TaxpayerID == taxpayerID
	})).Return(nil)

	err := f.svc.SetOverride(context.Background(), &service.OverrideInput{
		TaxpayerID:   taxpayerID,
		FilingPeriod: "2024-25",
		Field:        "interest_income",
		Value:        "10,050",
		Reason:       "bank statement verified",
		Actor:        taxpayerID,
	})
	assert.NoError(t, err)
	f.overrideRepo.AssertExpectations(t)
}

func TestReturnService_BuildArtifact_DraftBlocked(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := draftReturn(taxpayerID)

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)

	_, err := f.svc.BuildArtifact(context.Background(), taxpayerID, rec.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestReturnService_BuildArtifact_Computed(t *testing.T) {
	f := setupReturnService(t)
	taxpayerID := uuid.New()
	rec := computedReturn(t, taxpayerID)

	f.returnRepo.On("GetByID", mock.Anything, taxpayerID, rec.ID).Return(rec, nil)

	raw, err := f.svc.BuildArtifact(context.Background(), taxpayerID, rec.ID)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "ITR-1", doc["form_type"])
	assert.Equal(t, "ABCDE1234F", doc["pan"])
}
