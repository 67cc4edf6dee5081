package tax

import (
	"fmt"
	"sort"

	"superca/internal/domain"
)

// Loss from house property that may be set off against other income in a
// year is capped at two lakh rupees.
const housePropertyLossCapPaise = 20000000

// Compute produces the per-regime breakdown for a profile against one rule
// table. All arithmetic is integer paise; division happens once per slab with
// truncation, so identical inputs always produce identical output.
func Compute(table *RuleTable, profile *domain.CanonicalProfile) (*domain.TaxComputation, error) {
	if len(profile.Values) == 0 {
		return nil, domain.ErrNoExtractionInputs
	}

	comp := &domain.TaxComputation{
		RuleVersion:  table.Version,
		FilingPeriod: profile.FilingPeriod,
	}

	regimes := make([]RegimeRules, len(table.Regimes))
	copy(regimes, table.Regimes)
	sort.Slice(regimes, func(i, j int) bool { return regimes[i].ID < regimes[j].ID })

	for i := range regimes {
		comp.Regimes = append(comp.Regimes, computeRegime(&regimes[i], profile))
	}

	recommend(comp, table.DefaultRegime)
	return comp, nil
}

func computeRegime(rules *RegimeRules, profile *domain.CanonicalProfile) domain.RegimeComputation {
	rc := domain.RegimeComputation{Regime: rules.ID}

	reasons, missing := rules.eligibility(profile)
	rc.IneligibleReasons = reasons
	rc.MissingFields = missing
	rc.Eligible = len(reasons) == 0
	if !rc.Eligible {
		return rc
	}

	rc.GrossIncomePaise = grossIncome(profile)
	rc.StandardDeductionPaise = rules.StandardDeductionPaise
	if salary := profile.AmountOrZero(domain.FieldGrossSalary); salary < rc.StandardDeductionPaise {
		// Standard deduction never exceeds the salary it applies to.
		rc.StandardDeductionPaise = salary
	}

	taxable := rc.GrossIncomePaise - rc.StandardDeductionPaise
	for _, d := range rules.Deductions {
		claimed := profile.AmountOrZero(d.Field)
		if claimed <= 0 {
			continue
		}
		allowed := claimed
		if d.CapPaise > 0 && allowed > d.CapPaise {
			allowed = d.CapPaise
		}
		if allowed > taxable {
			allowed = max64(taxable, 0)
		}
		rc.Deductions = append(rc.Deductions, domain.DeductionLine{
			Code:         d.Code,
			ClaimedPaise: claimed,
			CapPaise:     d.CapPaise,
			AllowedPaise: allowed,
		})
		rc.TotalDeductionsPaise += allowed
		taxable -= allowed
	}
	rc.TaxableIncomePaise = max64(taxable, 0)

	rc.SlabTaxPaise = slabTax(rules.Slabs, rc.TaxableIncomePaise)

	if rb := rules.Rebate; rb != nil && rc.TaxableIncomePaise <= rb.IncomeUpToPaise {
		rc.RebatePaise = min64(rc.SlabTaxPaise, rb.MaxPaise)
	}
	afterRebate := rc.SlabTaxPaise - rc.RebatePaise

	for _, band := range rules.SurchargeBands {
		if rc.TaxableIncomePaise > band.AbovePaise {
			rc.SurchargePaise = afterRebate * band.RateBps / 10000
			break
		}
	}

	rc.CessPaise = (afterRebate + rc.SurchargePaise) * rules.CessBps / 10000
	rc.TotalLiabilityPaise = domain.RoundTaxTo10(afterRebate + rc.SurchargePaise + rc.CessPaise)

	rc.TaxesPaidPaise = profile.AmountOrZero(domain.FieldTDSDeducted) +
		profile.AmountOrZero(domain.FieldTDSOnInterest) +
		profile.AmountOrZero(domain.FieldAdvanceTax) +
		profile.AmountOrZero(domain.FieldSelfAssessmentTax)

	if net := rc.TotalLiabilityPaise - rc.TaxesPaidPaise; net >= 0 {
		rc.NetPayablePaise = net
	} else {
		rc.RefundPaise = -net
	}
	return rc
}

// grossIncome totals the heads of income present in the profile. House
// property nets rental income against home-loan interest, with the loss set
// off capped.
func grossIncome(profile *domain.CanonicalProfile) int64 {
	total := profile.AmountOrZero(domain.FieldGrossSalary)

	houseProperty := profile.AmountOrZero(domain.FieldRentalIncome) -
		profile.AmountOrZero(domain.FieldHomeLoanInterest)
	if houseProperty < -housePropertyLossCapPaise {
		houseProperty = -housePropertyLossCapPaise
	}
	total += houseProperty

	total += profile.AmountOrZero(domain.FieldInterestIncome)
	total += profile.AmountOrZero(domain.FieldDividendIncome)
	total += profile.AmountOrZero(domain.FieldSTCG)
	total += profile.AmountOrZero(domain.FieldLTCG)
	return max64(total, 0)
}

func slabTax(slabs []Slab, taxable int64) int64 {
	var tax int64
	var prev int64
	for i, s := range slabs {
		upper := s.UpToPaise
		if i == len(slabs)-1 || upper <= 0 {
			upper = taxable
		}
		if taxable <= prev {
			break
		}
		portion := min64(taxable, upper) - prev
		if portion > 0 {
			tax += portion * s.RateBps / 10000
		}
		prev = upper
	}
	return tax
}

// recommend picks the eligible regime with the lowest liability. Ties go to
// the table's default regime when it is among the cheapest, otherwise to the
// first cheapest in sorted order.
func recommend(comp *domain.TaxComputation, defaultRegime string) {
	bestIdx := -1
	for i := range comp.Regimes {
		rc := &comp.Regimes[i]
		if !rc.Eligible {
			continue
		}
		switch {
		case bestIdx < 0:
			bestIdx = i
		case rc.TotalLiabilityPaise < comp.Regimes[bestIdx].TotalLiabilityPaise:
			bestIdx = i
		case rc.TotalLiabilityPaise == comp.Regimes[bestIdx].TotalLiabilityPaise && rc.Regime == defaultRegime:
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return
	}
	best := &comp.Regimes[bestIdx]
	comp.RecommendedRegime = best.Regime

	eligible := 0
	var worst int64 = -1
	for i := range comp.Regimes {
		rc := &comp.Regimes[i]
		if !rc.Eligible {
			continue
		}
		eligible++
		if rc.TotalLiabilityPaise > worst {
			worst = rc.TotalLiabilityPaise
		}
	}
	comp.SavingsPaise = worst - best.TotalLiabilityPaise
	switch {
	case eligible == 1:
		comp.Explanation = fmt.Sprintf("only the %s regime is eligible", best.Regime)
	case comp.SavingsPaise > 0:
		comp.Explanation = fmt.Sprintf("the %s regime saves %s over the alternative", best.Regime, domain.FormatPaise(comp.SavingsPaise))
	default:
		comp.Explanation = fmt.Sprintf("eligible regimes produce the same liability; %s recommended", best.Regime)
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
