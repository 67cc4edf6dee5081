package recon_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superca/internal/domain"
	"superca/internal/recon"
)

func result(t *testing.T, docType domain.DocumentType, createdAt time.Time, fields map[string]domain.ExtractionField) domain.ExtractionResult {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	return domain.ExtractionResult{
		ID:           uuid.New(),
		DocumentID:   uuid.New(),
		FilingPeriod: "2024-25",
		DocumentType: docType,
		Provider:     "claude",
		Fields:       raw,
		CreatedAt:    createdAt,
	}
}

func TestReconcile_SingleSource(t *testing.T) {
	r := recon.New(recon.DefaultPolicy())
	now := time.Now()

	profile, report, err := r.Reconcile("2024-25", []domain.ExtractionResult{
		result(t, domain.DocTypeForm16, now, map[string]domain.ExtractionField{
			"gross_salary": {Value: "12,00,000", Confidence: 0.95},
			"pan":          {Value: "abcde1234f", Confidence: 0.99},
		}),
	}, nil)

	require.NoError(t, err)
	assert.Empty(t, report.Conflicts)
	assert.Equal(t, 0, report.Unresolved)

	salary := profile.Values["gross_salary"]
	assert.Equal(t, domain.ResolutionAgreement, salary.Resolution)
	require.NotNil(t, salary.Paise)
	assert.Equal(t, int64(120000000), *salary.Paise)

	// Identifier fields normalize to upper case.
	assert.Equal(t, "ABCDE1234F", profile.Values["pan"].Value)
}

func TestReconcile_AgreementKeepsAllSources(t *testing.T) {
	r := recon.New(recon.DefaultPolicy())
	now := time.Now()

	profile, report, err := r.Reconcile("2024-25", []domain.ExtractionResult{
		result(t, domain.DocTypeForm16, now, map[string]domain.ExtractionField{
			"gross_salary": {Value: "1200000", Confidence: 0.90},
		}),
		result(t, domain.DocTypeAIS, now.Add(time.Second), map[string]domain.ExtractionField{
			"gross_salary": {Value: "₹12,00,000.00", Confidence: 0.95},
		}),
	}, nil)

	require.NoError(t, err)
	assert.Empty(t, report.Conflicts)

	salary := profile.Values["gross_salary"]
	assert.Equal(t, domain.ResolutionAgreement, salary.Resolution)
	assert.Len(t, salary.Sources, 2)
	// Headline confidence is the strongest agreeing extraction.
	assert.InDelta(t, 0.95, salary.Confidence, 0.001)
}

func TestReconcile_TrustRankingWins(t *testing.T) {
	r := recon.New(recon.DefaultPolicy())
	now := time.Now()

	// Bank statement outranks AIS for interest income; the gap is irrelevant.
	profile, report, err := r.Reconcile("2024-25", []domain.ExtractionResult{
		result(t, domain.DocTypeAIS, now, map[string]domain.ExtractionField{
			"interest_income": {Value: "10,000", Confidence: 0.99},
		}),
		result(t, domain.DocTypeBankStatement, now.Add(time.Second), map[string]domain.ExtractionField{
			"interest_income": {Value: "10,050", Confidence: 0.80},
		}),
	}, nil)

	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, 0, report.Unresolved)

	c := report.Conflicts[0]
	assert.Equal(t, "interest_income", c.Field)
	assert.Equal(t, domain.ResolutionTrustRank, c.Resolution)
	assert.Equal(t, "10,050", c.Resolved)
	assert.Len(t, c.Candidates, 2)

	v := profile.Values["interest_income"]
	require.NotNil(t, v.Paise)
	assert.Equal(t, int64(1005000), *v.Paise)
	assert.Equal(t, domain.ResolutionTrustRank, v.Resolution)
}

func TestReconcile_ConfidenceTiebreak(t *testing.T) {
	r := recon.New(recon.DefaultPolicy())
	now := time.Now()

	// employer_name has no trust ranking; the strictly higher confidence wins.
	profile, report, err := r.Reconcile("2024-25", []domain.ExtractionResult{
		result(t, domain.DocTypeForm16, now, map[string]domain.ExtractionField{
			"employer_name": {Value: "ACME LTD", Confidence: 0.95},
		}),
		result(t, domain.DocTypeAIS, now.Add(time.Second), map[string]domain.ExtractionField{
			"employer_name": {Value: "ACME LIMITED", Confidence: 0.60},
		}),
	}, nil)

	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, domain.ResolutionConfidence, report.Conflicts[0].Resolution)
	assert.Equal(t, "ACME LTD", profile.Values["employer_name"].Value)
}

func TestReconcile_AutoFixSmallGap(t *testing.T) {
	r := recon.New(recon.DefaultPolicy())
	now := time.Now()

	// dividend_income ranks ais over bank, so force the auto-fix path with a
	// field outside the ranking and equal confidences.
	profile, report, err := r.Reconcile("2024-25", []domain.ExtractionResult{
		result(t, domain.DocTypeForm16, now, map[string]domain.ExtractionField{
			"rental_income": {Value: "2,40,000", Confidence: 0.9},
		}),
		result(t, domain.DocTypeAIS, now.Add(time.Second), map[string]domain.ExtractionField{
			"rental_income": {Value: "2,40,050", Confidence: 0.9},
		}),
	}, nil)

	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, domain.ResolutionAutoFixed, report.Conflicts[0].Resolution)
	assert.Equal(t, 0, report.Unresolved)

	// The higher value is kept.
	v := profile.Values["rental_income"]
	require.NotNil(t, v.Paise)
	assert.Equal(t, int64(24005000), *v.Paise)
}

func TestReconcile_UnresolvedAboveThreshold(t *testing.T) {
	r := recon.New(recon.DefaultPolicy())
	now := time.Now()

	profile, report, err := r.Reconcile("2024-25", []domain.ExtractionResult{
		result(t, domain.DocTypeForm16, now, map[string]domain.ExtractionField{
			"rental_income": {Value: "2,40,000", Confidence: 0.9},
		}),
		result(t, domain.DocTypeAIS, now.Add(time.Second), map[string]domain.ExtractionField{
			"rental_income": {Value: "3,60,000", Confidence: 0.9},
		}),
	}, nil)

	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, domain.ResolutionUnresolved, report.Conflicts[0].Resolution)
	assert.Equal(t, 1, report.Unresolved)
	assert.Equal(t, []string{"rental_income"}, report.UnresolvedFields())

	// Unresolved fields stay out of the profile.
	_, ok := profile.Values["rental_income"]
	assert.False(t, ok)
}

func TestReconcile_UnparseableAmountDropped(t *testing.T) {
	r := recon.New(recon.DefaultPolicy())
	now := time.Now()

	profile, report, err := r.Reconcile("2024-25", []domain.ExtractionResult{
		result(t, domain.DocTypeForm16, now, map[string]domain.ExtractionField{
			"gross_salary":    {Value: "not an amount", Confidence: 0.9},
			"interest_income": {Value: "10,000", Confidence: 0.9},
		}),
	}, nil)

	require.NoError(t, err)
	assert.Empty(t, report.Conflicts)
	_, ok := profile.Values["gross_salary"]
	assert.False(t, ok)
	_, ok = profile.Values["interest_income"]
	assert.True(t, ok)

	// The drop leaves a trace in the report instead of vanishing.
	require.Len(t, report.Dropped, 1)
	assert.Equal(t, "gross_salary", report.Dropped[0].Field)
	assert.Equal(t, "not an amount", report.Dropped[0].Raw)
	assert.Equal(t, domain.DocTypeForm16, report.Dropped[0].DocumentType)
	assert.NotEmpty(t, report.Dropped[0].Reason)
}

func TestReconcile_Deterministic(t *testing.T) {
	r := recon.New(recon.DefaultPolicy())
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	results := []domain.ExtractionResult{
		result(t, domain.DocTypeForm16, now, map[string]domain.ExtractionField{
			"gross_salary": {Value: "12,00,000", Confidence: 0.95},
			"tds_deducted": {Value: "95,000", Confidence: 0.92},
		}),
		result(t, domain.DocTypeAIS, now.Add(time.Minute), map[string]domain.ExtractionField{
			"gross_salary":    {Value: "11,80,000", Confidence: 0.88},
			"interest_income": {Value: "10,000", Confidence: 0.90},
		}),
	}

	p1, rep1, err := r.Reconcile("2024-25", results, nil)
	require.NoError(t, err)

	// Reversed input order must not change the outcome.
	reversed := []domain.ExtractionResult{results[1], results[0]}
	p2, rep2, err := r.Reconcile("2024-25", reversed, nil)
	require.NoError(t, err)

	b1, _ := json.Marshal(p1)
	b2, _ := json.Marshal(p2)
	assert.Equal(t, string(b1), string(b2))

	r1, _ := json.Marshal(rep1)
	r2, _ := json.Marshal(rep2)
	assert.Equal(t, string(r1), string(r2))
}

func TestReconcile_OverrideWinsAndClosesConflict(t *testing.T) {
	r := recon.New(recon.DefaultPolicy())
	now := time.Now()

	results := []domain.ExtractionResult{
		result(t, domain.DocTypeForm16, now, map[string]domain.ExtractionField{
			"rental_income": {Value: "2,40,000", Confidence: 0.9},
		}),
		result(t, domain.DocTypeAIS, now.Add(time.Second), map[string]domain.ExtractionField{
			"rental_income": {Value: "3,60,000", Confidence: 0.9},
		}),
	}
	overrides := []domain.FieldOverride{{
		ID:           uuid.New(),
		FilingPeriod: "2024-25",
		Field:        "rental_income",
		Value:        "3,00,000",
		Reason:       "verified against rent agreement",
		CreatedAt:    now,
	}}

	profile, report, err := r.Reconcile("2024-25", results, overrides)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Unresolved)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, domain.ResolutionOverride, report.Conflicts[0].Resolution)
	assert.Equal(t, "3,00,000", report.Conflicts[0].Resolved)

	v := profile.Values["rental_income"]
	assert.Equal(t, domain.ResolutionOverride, v.Resolution)
	assert.Equal(t, "verified against rent agreement", v.Note)
	require.NotNil(t, v.Paise)
	assert.Equal(t, int64(30000000), *v.Paise)
	assert.InDelta(t, 1.0, v.Confidence, 0.001)
}

func TestReconcile_ClearedOverrideIgnored(t *testing.T) {
	r := recon.New(recon.DefaultPolicy())
	now := time.Now()
	cleared := now.Add(time.Hour)

	profile, _, err := r.Reconcile("2024-25", []domain.ExtractionResult{
		result(t, domain.DocTypeForm16, now, map[string]domain.ExtractionField{
			"gross_salary": {Value: "12,00,000", Confidence: 0.95},
		}),
	}, []domain.FieldOverride{{
		Field:     "gross_salary",
		Value:     "99,00,000",
		ClearedAt: &cleared,
	}})

	require.NoError(t, err)
	v := profile.Values["gross_salary"]
	assert.Equal(t, domain.ResolutionAgreement, v.Resolution)
	assert.Equal(t, int64(120000000), *v.Paise)
}

func TestGate_SerializesRuns(t *testing.T) {
	g := recon.NewGate()
	taxpayer := uuid.New().String()

	require.NoError(t, g.TryAcquire(taxpayer, "2024-25"))
	assert.ErrorIs(t, g.TryAcquire(taxpayer, "2024-25"), domain.ErrReconInProgress)

	// A different period is independent.
	require.NoError(t, g.TryAcquire(taxpayer, "2023-24"))
	g.Release(taxpayer, "2023-24")

	g.Release(taxpayer, "2024-25")
	require.NoError(t, g.TryAcquire(taxpayer, "2024-25"))
}
