package artifact_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superca/internal/artifact"
	"superca/internal/domain"
)

func paise(v int64) *int64 { return &v }

func computedRecord(t *testing.T, values map[string]domain.ProfileValue) *domain.ReturnRecord {
	t.Helper()
	profile := &domain.CanonicalProfile{
		FilingPeriod: "2024-25",
		Values:       values,
	}
	comp := &domain.TaxComputation{
		RuleVersion:  "fy2024-25.v1",
		FilingPeriod: "2024-25",
		Regimes: []domain.RegimeComputation{{
			Regime:              "new",
			Eligible:            true,
			GrossIncomePaise:    120000000,
			TaxableIncomePaise:  112500000,
			SlabTaxPaise:        6875000,
			CessPaise:           275000,
			TotalLiabilityPaise: 7150000,
			TaxesPaidPaise:      9000000,
			RefundPaise:         1850000,
		}},
		RecommendedRegime: "new",
	}

	profileRaw, err := json.Marshal(profile)
	require.NoError(t, err)
	compRaw, err := json.Marshal(comp)
	require.NoError(t, err)

	return &domain.ReturnRecord{
		ID:           uuid.New(),
		TaxpayerID:   uuid.New(),
		FilingPeriod: "2024-25",
		Status:       domain.ReturnStatusComputed,
		Profile:      profileRaw,
		Computation:  compRaw,
		ChosenRegime: "new",
		RuleVersion:  "fy2024-25.v1",
	}
}

func baseValues() map[string]domain.ProfileValue {
	return map[string]domain.ProfileValue{
		"pan": {
			Field: "pan", Value: "ABCDE1234F",
			Resolution: domain.ResolutionAgreement,
		},
		"gross_salary": {
			Field: "gross_salary", Value: "12,00,000", Paise: paise(120000000),
			Resolution: domain.ResolutionTrustRank,
		},
		"interest_income": {
			Field: "interest_income", Value: "10,050", Paise: paise(1005000),
			Resolution: domain.ResolutionAgreement,
		},
	}
}

func TestBuild_Success(t *testing.T) {
	rec := computedRecord(t, baseValues())

	doc, err := artifact.Build(rec)
	require.NoError(t, err)

	assert.Equal(t, artifact.SchemaVersion, doc.SchemaVersion)
	assert.Equal(t, "ITR-1", doc.FormType)
	assert.Equal(t, "ABCDE1234F", doc.PAN)
	assert.Equal(t, "new", doc.Regime)
	assert.Equal(t, "fy2024-25.v1", doc.RuleVersion)
	assert.Equal(t, int64(120000000), doc.Income.GrossSalaryPaise)
	assert.Equal(t, int64(1005000), doc.Income.InterestPaise)
	assert.Equal(t, int64(7150000), doc.Tax.TotalLiabilityPaise)
	assert.Equal(t, int64(1850000), doc.Tax.RefundPaise)

	// Field lines sorted with provenance preserved.
	require.Len(t, doc.Fields, 3)
	assert.Equal(t, "gross_salary", doc.Fields[0].Field)
	assert.Equal(t, domain.ResolutionTrustRank, doc.Fields[0].Resolution)
	assert.Equal(t, "interest_income", doc.Fields[1].Field)
	assert.Equal(t, "pan", doc.Fields[2].Field)
}

func TestBuild_MissingMandatoryFields(t *testing.T) {
	values := baseValues()
	delete(values, "pan")
	delete(values, "gross_salary")
	rec := computedRecord(t, values)

	_, err := artifact.Build(rec)

	var sme *domain.SchemaMappingError
	require.ErrorAs(t, err, &sme)
	assert.Equal(t, []string{"gross_salary", "pan"}, sme.Fields)
	assert.ErrorIs(t, err, domain.ErrSchemaMapping)
}

func TestBuild_NoComputation(t *testing.T) {
	rec := computedRecord(t, baseValues())
	rec.Computation = nil

	_, err := artifact.Build(rec)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestBuild_IneligibleChosenRegime(t *testing.T) {
	rec := computedRecord(t, baseValues())
	rec.ChosenRegime = "old"

	_, err := artifact.Build(rec)
	assert.ErrorIs(t, err, domain.ErrIneligibleRegime)
}

func TestBuild_FormSelection(t *testing.T) {
	values := baseValues()
	values["short_term_capital_gains"] = domain.ProfileValue{
		Field: "short_term_capital_gains", Value: "50,000", Paise: paise(5000000),
		Resolution: domain.ResolutionAgreement,
	}
	rec := computedRecord(t, values)

	doc, err := artifact.Build(rec)
	require.NoError(t, err)
	assert.Equal(t, "ITR-2", doc.FormType)

	values = baseValues()
	values["business_turnover"] = domain.ProfileValue{
		Field: "business_turnover", Value: "25,00,000", Paise: paise(250000000),
		Resolution: domain.ResolutionAgreement,
	}
	doc, err = artifact.Build(computedRecord(t, values))
	require.NoError(t, err)
	assert.Equal(t, "ITR-3", doc.FormType)
}

func TestMarshal_StableBytes(t *testing.T) {
	rec := computedRecord(t, baseValues())

	doc1, err := artifact.Build(rec)
	require.NoError(t, err)
	doc2, err := artifact.Build(rec)
	require.NoError(t, err)

	b1, err := artifact.Marshal(doc1)
	require.NoError(t, err)
	b2, err := artifact.Marshal(doc2)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}
