package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superca/internal/domain"
	"superca/internal/service"
	"superca/internal/tax"
)

func setupTaxService(t *testing.T) service.TaxService {
	t.Helper()
	rules := tax.NewRegistry()
	require.NoError(t, rules.LoadEmbedded())
	return service.NewTaxService(rules, nil)
}

func TestTaxService_Calculate(t *testing.T) {
	svc := setupTaxService(t)

	comp, err := svc.Calculate(context.Background(), &service.CalculateTaxInput{
		FilingPeriod: "2024-25",
		Fields: map[string]string{
			"gross_salary": "12,00,000",
			"section_80c":  "1,50,000",
			"tds_deducted": "90,000",
			"pan":          "ABCDE1234F",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "fy2024-25.v1", comp.RuleVersion)
	assert.Equal(t, "new", comp.RecommendedRegime)

	newR, ok := comp.Regime("new")
	require.True(t, ok)
	assert.Equal(t, int64(7150000), newR.TotalLiabilityPaise)
	assert.Equal(t, int64(1850000), newR.RefundPaise)
}

func TestTaxService_Calculate_EmptyFields(t *testing.T) {
	svc := setupTaxService(t)

	_, err := svc.Calculate(context.Background(), &service.CalculateTaxInput{
		FilingPeriod: "2024-25",
	})
	assert.ErrorIs(t, err, domain.ErrNoExtractionInputs)
}

func TestTaxService_Calculate_BadAmount(t *testing.T) {
	svc := setupTaxService(t)

	_, err := svc.Calculate(context.Background(), &service.CalculateTaxInput{
		FilingPeriod: "2024-25",
		Fields:       map[string]string{"gross_salary": "twelve lakh"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gross_salary")
}

func TestTaxService_Calculate_UnknownPeriod(t *testing.T) {
	svc := setupTaxService(t)

	_, err := svc.Calculate(context.Background(), &service.CalculateTaxInput{
		FilingPeriod: "1999-00",
		Fields:       map[string]string{"gross_salary": "12,00,000"},
	})
	assert.ErrorIs(t, err, domain.ErrRuleTableNotFound)
}

func TestTaxService_RuleVersions(t *testing.T) {
	svc := setupTaxService(t)
	assert.Contains(t, svc.RuleVersions(), "fy2024-25.v1")
}
