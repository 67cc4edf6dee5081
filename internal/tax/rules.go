// Package tax computes income-tax liability per regime from a canonical
// profile and a versioned rule table.
package tax

import (
	"fmt"
	"sort"

	"superca/internal/domain"
)

// Slab taxes the income between the previous slab's ceiling and UpToPaise at
// RateBps basis points. UpToPaise <= 0 means no upper bound.
type Slab struct {
	UpToPaise int64 `json:"up_to_paise"`
	RateBps   int64 `json:"rate_bps"`
}

// DeductionRule maps a profile field to a chapter VI-A style deduction with a
// cap. Rules apply in declared order.
type DeductionRule struct {
	Code     string `json:"code"`
	Field    string `json:"field"`
	CapPaise int64  `json:"cap_paise"`
}

// SurchargeBand applies RateBps surcharge on tax when taxable income exceeds
// AbovePaise. Bands are checked highest threshold first.
type SurchargeBand struct {
	AbovePaise int64 `json:"above_paise"`
	RateBps    int64 `json:"rate_bps"`
}

// Rebate is the section 87A style full rebate: tax is wiped when taxable
// income does not exceed IncomeUpToPaise, capped at MaxPaise.
type Rebate struct {
	IncomeUpToPaise int64 `json:"income_up_to_paise"`
	MaxPaise        int64 `json:"max_paise"`
}

// RegimeRules holds everything needed to compute one regime.
type RegimeRules struct {
	ID                     string          `json:"id"`
	Label                  string          `json:"label"`
	StandardDeductionPaise int64           `json:"standard_deduction_paise"`
	Slabs                  []Slab          `json:"slabs"`
	Deductions             []DeductionRule `json:"deductions"`
	Rebate                 *Rebate         `json:"rebate,omitempty"`
	SurchargeBands         []SurchargeBand `json:"surcharge_bands,omitempty"`
	CessBps                int64           `json:"cess_bps"`

	// Eligibility predicates, evaluated against the profile.
	DisallowBusinessIncome bool     `json:"disallow_business_income,omitempty"`
	DisallowNonResident    bool     `json:"disallow_non_resident,omitempty"`
	RequiredFields         []string `json:"required_fields,omitempty"`
}

// RuleTable is one immutable, versioned set of regime rules for a filing
// period. Computations record the version they ran against.
type RuleTable struct {
	Version       string        `json:"version"`
	FilingPeriods []string      `json:"filing_periods"`
	DefaultRegime string        `json:"default_regime"`
	Regimes       []RegimeRules `json:"regimes"`
}

// Validate checks the table is internally coherent before registration.
func (t *RuleTable) Validate() error {
	if t.Version == "" {
		return fmt.Errorf("rule table missing version")
	}
	if len(t.Regimes) == 0 {
		return fmt.Errorf("rule table %s has no regimes", t.Version)
	}
	seen := make(map[string]bool)
	defaultOK := false
	for _, r := range t.Regimes {
		if r.ID == "" {
			return fmt.Errorf("rule table %s: regime with empty id", t.Version)
		}
		if seen[r.ID] {
			return fmt.Errorf("rule table %s: duplicate regime %s", t.Version, r.ID)
		}
		seen[r.ID] = true
		if r.ID == t.DefaultRegime {
			defaultOK = true
		}
		if len(r.Slabs) == 0 {
			return fmt.Errorf("rule table %s: regime %s has no slabs", t.Version, r.ID)
		}
		var prev int64
		for i, s := range r.Slabs {
			last := i == len(r.Slabs)-1
			if !last && s.UpToPaise <= prev {
				return fmt.Errorf("rule table %s: regime %s slab %d not ascending", t.Version, r.ID, i)
			}
			prev = s.UpToPaise
		}
	}
	if !defaultOK {
		return fmt.Errorf("rule table %s: default regime %q not defined", t.Version, t.DefaultRegime)
	}
	return nil
}

// eligibility checks a regime against the profile. Missing required fields
// and failed predicates both make the regime ineligible; the caller decides
// whether that is fatal.
func (r *RegimeRules) eligibility(profile *domain.CanonicalProfile) (reasons, missing []string) {
	for _, f := range r.RequiredFields {
		if _, ok := profile.Values[f]; !ok {
			missing = append(missing, f)
		}
	}
	sort.Strings(missing)
	if len(missing) > 0 {
		reasons = append(reasons, "required fields missing from profile")
	}
	if r.DisallowBusinessIncome {
		if turnover := profile.AmountOrZero(domain.FieldBusinessTurnover); turnover > 0 {
			presumptive, _ := profile.Text(domain.FieldPresumptiveBusiness)
			if presumptive != "YES" {
				reasons = append(reasons, "non-presumptive business income present")
			}
		}
	}
	if r.DisallowNonResident {
		if status, ok := profile.Text(domain.FieldResidentialStatus); ok && status != "RESIDENT" {
			reasons = append(reasons, "taxpayer is not resident")
		}
	}
	return reasons, missing
}
