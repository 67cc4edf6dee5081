package domain

import (
	"github.com/google/uuid"
)

// ExtractionField is a single extracted value with the provider's confidence.
type ExtractionField struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ValueSource records where a candidate value came from.
type ValueSource struct {
	ResultID     uuid.UUID    `json:"result_id"`
	DocumentID   uuid.UUID    `json:"document_id"`
	DocumentType DocumentType `json:"document_type"`
	Provider     string       `json:"provider"`
	Raw          string       `json:"raw"`
	Confidence   float64      `json:"confidence"`
}

// ProfileValue is one resolved field of the canonical profile with full
// provenance.
type ProfileValue struct {
	Field      string         `json:"field"`
	Value      string         `json:"value"`
	Paise      *int64         `json:"paise,omitempty"`
	Confidence float64        `json:"confidence"`
	Resolution ResolutionKind `json:"resolution"`
	Sources    []ValueSource  `json:"sources,omitempty"`
	Note       string         `json:"note,omitempty"`
}

// CanonicalProfile is the single reconciled financial dataset for one filing
// period. It is a pure function of the extraction results and overrides it
// was derived from; it is re-derived whole, never patched in place.
type CanonicalProfile struct {
	FilingPeriod string                  `json:"filing_period"`
	Values       map[string]ProfileValue `json:"values"`
	InputResults []uuid.UUID             `json:"input_results"`
}

// Amount returns the paise value of a monetary field, if present.
func (p *CanonicalProfile) Amount(field string) (int64, bool) {
	v, ok := p.Values[field]
	if !ok || v.Paise == nil {
		return 0, false
	}
	return *v.Paise, true
}

// AmountOrZero returns the paise value of a monetary field, or zero.
func (p *CanonicalProfile) AmountOrZero(field string) int64 {
	v, _ := p.Amount(field)
	return v
}

// Text returns the string value of a field, if present.
func (p *CanonicalProfile) Text(field string) (string, bool) {
	v, ok := p.Values[field]
	if !ok {
		return "", false
	}
	return v.Value, true
}

// Conflict is one detected disagreement between sources for a field, with
// the resolution taken (or unresolved).
type Conflict struct {
	Field      string         `json:"field"`
	Candidates []ValueSource  `json:"candidates"`
	Resolution ResolutionKind `json:"resolution"`
	Resolved   string         `json:"resolved,omitempty"`
	Detail     string         `json:"detail,omitempty"`
}

// DroppedValue is a candidate excluded from reconciliation, typically a
// monetary field whose extracted value did not parse as an amount. Dropping
// is non-fatal but always leaves a trace in the report.
type DroppedValue struct {
	Field        string       `json:"field"`
	Raw          string       `json:"raw"`
	Provider     string       `json:"provider"`
	DocumentType DocumentType `json:"document_type"`
	Reason       string       `json:"reason"`
}

// ReconciliationReport is the set of conflicts detected while deriving a
// canonical profile. Regenerated whole alongside the profile.
type ReconciliationReport struct {
	FilingPeriod string         `json:"filing_period"`
	Conflicts    []Conflict     `json:"conflicts"`
	Dropped      []DroppedValue `json:"dropped,omitempty"`
	Unresolved   int            `json:"unresolved"`
}

// UnresolvedFields lists the fields still needing human resolution.
func (r *ReconciliationReport) UnresolvedFields() []string {
	var fields []string
	for _, c := range r.Conflicts {
		if c.Resolution == ResolutionUnresolved {
			fields = append(fields, c.Field)
		}
	}
	return fields
}

// DeductionLine is one deduction applied during computation, showing the
// claimed amount, the cap, and what was actually allowed.
type DeductionLine struct {
	Code         string `json:"code"`
	ClaimedPaise int64  `json:"claimed_paise"`
	CapPaise     int64  `json:"cap_paise"`
	AllowedPaise int64  `json:"allowed_paise"`
}

// RegimeComputation is the full breakdown for one regime. Ineligible regimes
// carry the reasons and missing fields instead of figures.
type RegimeComputation struct {
	Regime                 string          `json:"regime"`
	Eligible               bool            `json:"eligible"`
	IneligibleReasons      []string        `json:"ineligible_reasons,omitempty"`
	MissingFields          []string        `json:"missing_fields,omitempty"`
	GrossIncomePaise       int64           `json:"gross_income_paise"`
	StandardDeductionPaise int64           `json:"standard_deduction_paise"`
	Deductions             []DeductionLine `json:"deductions,omitempty"`
	TotalDeductionsPaise   int64           `json:"total_deductions_paise"`
	TaxableIncomePaise     int64           `json:"taxable_income_paise"`
	SlabTaxPaise           int64           `json:"slab_tax_paise"`
	RebatePaise            int64           `json:"rebate_paise"`
	SurchargePaise         int64           `json:"surcharge_paise"`
	CessPaise              int64           `json:"cess_paise"`
	TotalLiabilityPaise    int64           `json:"total_liability_paise"`
	TaxesPaidPaise         int64           `json:"taxes_paid_paise"`
	NetPayablePaise        int64           `json:"net_payable_paise"`
	RefundPaise            int64           `json:"refund_paise"`
}

// TaxComputation is the per-regime result set for one (profile, rule table)
// pair. It is deterministic: identical inputs marshal byte-identically, so it
// deliberately carries no timestamps.
type TaxComputation struct {
	RuleVersion       string              `json:"rule_version"`
	FilingPeriod      string              `json:"filing_period"`
	Regimes           []RegimeComputation `json:"regimes"`
	RecommendedRegime string              `json:"recommended_regime"`
	SavingsPaise      int64               `json:"savings_paise"`
	Explanation       string              `json:"explanation"`
}

// Regime returns the breakdown for the named regime, if present.
func (c *TaxComputation) Regime(id string) (*RegimeComputation, bool) {
	for i := range c.Regimes {
		if c.Regimes[i].Regime == id {
			return &c.Regimes[i], true
		}
	}
	return nil, false
}
