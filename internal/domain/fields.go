package domain

// Canonical profile field names. Extraction providers are prompted to emit
// these names; reconciliation and computation key off them.
const (
	FieldPAN                 = "pan"
	FieldEmployerName        = "employer_name"
	FieldEmployerTAN         = "employer_tan"
	FieldResidentialStatus   = "residential_status"
	FieldGrossSalary         = "gross_salary"
	FieldTDSDeducted         = "tds_deducted"
	FieldInterestIncome      = "interest_income"
	FieldTDSOnInterest       = "tds_on_interest"
	FieldDividendIncome      = "dividend_income"
	FieldRentalIncome        = "rental_income"
	FieldHomeLoanInterest    = "home_loan_interest"
	FieldSTCG                = "short_term_capital_gains"
	FieldLTCG                = "long_term_capital_gains"
	FieldBusinessTurnover    = "business_turnover"
	FieldPresumptiveBusiness = "presumptive_business"
	FieldSection80C          = "section_80c"
	FieldSection80D          = "section_80d"
	FieldSection80G          = "section_80g"
	FieldNPS80CCD1B          = "nps_80ccd1b"
	FieldAdvanceTax          = "advance_tax"
	FieldSelfAssessmentTax   = "self_assessment_tax"
)

// IdentifierFields are compared after whitespace/case normalization rather
// than as currency amounts.
var IdentifierFields = map[string]bool{
	FieldPAN:                 true,
	FieldEmployerName:        true,
	FieldEmployerTAN:         true,
	FieldResidentialStatus:   true,
	FieldPresumptiveBusiness: true,
}

// IsMonetaryField reports whether a field is reconciled as an amount.
func IsMonetaryField(name string) bool { return !IdentifierFields[name] }
