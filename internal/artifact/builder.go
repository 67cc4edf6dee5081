// Package artifact builds the structured return document submitted to the
// filing authority and handed to renderers.
package artifact

import (
	"encoding/json"
	"fmt"
	"sort"

	"superca/internal/domain"
)

// Schema version of the built return document. Bumped when the document
// shape changes.
const SchemaVersion = "1"

// ReturnDocument is the complete filing artifact: form selection, taxpayer
// identity, the resolved profile values, and the chosen regime's breakdown.
type ReturnDocument struct {
	SchemaVersion string                 `json:"schema_version"`
	FormType      string                 `json:"form_type"`
	FilingPeriod  string                 `json:"filing_period"`
	RuleVersion   string                 `json:"rule_version"`
	PAN           string                 `json:"pan"`
	Regime        string                 `json:"regime"`
	Income        IncomeSection          `json:"income"`
	Deductions    []domain.DeductionLine `json:"deductions,omitempty"`
	Tax           TaxSection             `json:"tax"`
	Fields        []FieldLine            `json:"fields"`
}

// IncomeSection summarises the heads of income in paise.
type IncomeSection struct {
	GrossSalaryPaise   int64 `json:"gross_salary_paise"`
	InterestPaise      int64 `json:"interest_paise"`
	DividendPaise      int64 `json:"dividend_paise"`
	RentalPaise        int64 `json:"rental_paise"`
	CapitalGainsPaise  int64 `json:"capital_gains_paise"`
	GrossIncomePaise   int64 `json:"gross_income_paise"`
	TaxableIncomePaise int64 `json:"taxable_income_paise"`
}

// TaxSection carries the liability figures of the chosen regime.
type TaxSection struct {
	SlabTaxPaise        int64 `json:"slab_tax_paise"`
	RebatePaise         int64 `json:"rebate_paise"`
	SurchargePaise      int64 `json:"surcharge_paise"`
	CessPaise           int64 `json:"cess_paise"`
	TotalLiabilityPaise int64 `json:"total_liability_paise"`
	TaxesPaidPaise      int64 `json:"taxes_paid_paise"`
	NetPayablePaise     int64 `json:"net_payable_paise"`
	RefundPaise         int64 `json:"refund_paise"`
}

// FieldLine is one profile value with its provenance summary, included so a
// reviewer can trace every figure back to its source document.
type FieldLine struct {
	Field      string                `json:"field"`
	Value      string                `json:"value"`
	Paise      *int64                `json:"paise,omitempty"`
	Resolution domain.ResolutionKind `json:"resolution"`
}

// Build assembles the return document from a return's profile and chosen
// regime. Fields the form cannot be filed without missing yields a
// SchemaMappingError naming every gap at once.
func Build(rec *domain.ReturnRecord) (*ReturnDocument, error) {
	profile, err := rec.DecodeProfile()
	if err != nil {
		return nil, fmt.Errorf("artifact.Build profile: %w", err)
	}
	comp, err := rec.DecodeComputation()
	if err != nil {
		return nil, fmt.Errorf("artifact.Build computation: %w", err)
	}
	if profile == nil || comp == nil {
		return nil, domain.ErrInvalidTransition
	}

	regime, ok := comp.Regime(rec.ChosenRegime)
	if !ok || !regime.Eligible {
		return nil, fmt.Errorf("artifact.Build: regime %q: %w", rec.ChosenRegime, domain.ErrIneligibleRegime)
	}

	var missing []string
	pan, ok := profile.Text(domain.FieldPAN)
	if !ok || pan == "" {
		missing = append(missing, domain.FieldPAN)
	}
	if _, ok := profile.Amount(domain.FieldGrossSalary); !ok {
		missing = append(missing, domain.FieldGrossSalary)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &domain.SchemaMappingError{Fields: missing}
	}

	doc := &ReturnDocument{
		SchemaVersion: SchemaVersion,
		FormType:      selectForm(profile),
		FilingPeriod:  rec.FilingPeriod,
		RuleVersion:   rec.RuleVersion,
		PAN:           pan,
		Regime:        regime.Regime,
		Income: IncomeSection{
			GrossSalaryPaise:   profile.AmountOrZero(domain.FieldGrossSalary),
			InterestPaise:      profile.AmountOrZero(domain.FieldInterestIncome),
			DividendPaise:      profile.AmountOrZero(domain.FieldDividendIncome),
			RentalPaise:        profile.AmountOrZero(domain.FieldRentalIncome),
			CapitalGainsPaise:  profile.AmountOrZero(domain.FieldSTCG) + profile.AmountOrZero(domain.FieldLTCG),
			GrossIncomePaise:   regime.GrossIncomePaise,
			TaxableIncomePaise: regime.TaxableIncomePaise,
		},
		Deductions: regime.Deductions,
		Tax: TaxSection{
			SlabTaxPaise:        regime.SlabTaxPaise,
			RebatePaise:         regime.RebatePaise,
			SurchargePaise:      regime.SurchargePaise,
			CessPaise:           regime.CessPaise,
			TotalLiabilityPaise: regime.TotalLiabilityPaise,
			TaxesPaidPaise:      regime.TaxesPaidPaise,
			NetPayablePaise:     regime.NetPayablePaise,
			RefundPaise:         regime.RefundPaise,
		},
	}

	names := make([]string, 0, len(profile.Values))
	for name := range profile.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := profile.Values[name]
		doc.Fields = append(doc.Fields, FieldLine{
			Field:      v.Field,
			Value:      v.Value,
			Paise:      v.Paise,
			Resolution: v.Resolution,
		})
	}
	return doc, nil
}

// Marshal renders the document as canonical JSON for submission.
func Marshal(doc *ReturnDocument) (json.RawMessage, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("artifact.Marshal: %w", err)
	}
	return data, nil
}

// selectForm picks the ITR form: capital gains or non-resident status push
// the taxpayer from ITR-1 to ITR-2, business income to ITR-3.
func selectForm(profile *domain.CanonicalProfile) string {
	if profile.AmountOrZero(domain.FieldSTCG) > 0 || profile.AmountOrZero(domain.FieldLTCG) > 0 {
		return "ITR-2"
	}
	if status, ok := profile.Text(domain.FieldResidentialStatus); ok && status != "RESIDENT" {
		return "ITR-2"
	}
	if profile.AmountOrZero(domain.FieldBusinessTurnover) > 0 {
		return "ITR-3"
	}
	return "ITR-1"
}
