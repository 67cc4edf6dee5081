package extractor

import "superca/internal/domain"

// BuildExtractionPrompt returns the field-extraction prompt for a document
// type. Providers share one prompt so their outputs reconcile field-by-field.
func BuildExtractionPrompt(docType domain.DocumentType) string {
	intro := `You are a financial document data extraction assistant. Analyze the provided ` + docLabel(docType) + ` and extract the fields listed below.

IMPORTANT INSTRUCTIONS:
- Amounts must be plain numbers in rupees (digits, optional two decimals). No currency symbols, no commas, no words.
- Only include a field if the document actually contains it. Never guess or compute values the document does not state.
- PAN is 10 characters (AAAAA9999A). TAN is 10 characters (AAAA99999A).

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation: just the raw JSON object.

Return one top-level key "fields": an object mapping each field name to {"value": "<string>", "confidence": <0.0-1.0>}. Confidence is how certain you are the value was read correctly from the document.

Field names to use:
`
	return intro + fieldList(docType)
}

func docLabel(t domain.DocumentType) string {
	switch t {
	case domain.DocTypeForm16:
		return "Form-16 (TDS certificate issued by an employer)"
	case domain.DocTypeBankStatement:
		return "bank account statement"
	case domain.DocTypeAIS:
		return "Annual Information Statement / Form 26AS"
	default:
		return "financial document"
	}
}

func fieldList(t domain.DocumentType) string {
	switch t {
	case domain.DocTypeForm16:
		return `- pan: employee PAN
- employer_name: employer's name
- employer_tan: employer's TAN
- gross_salary: gross salary paid (section 17(1) total)
- tds_deducted: total tax deducted at source
- section_80c: 80C deductions reported by the employer
- section_80d: 80D deductions reported by the employer
- residential_status: resident / non_resident / not_ordinarily_resident if stated`
	case domain.DocTypeBankStatement:
		return `- interest_income: total interest credited during the year
- tds_on_interest: TDS deducted on interest, if shown
- dividend_income: total dividends credited, if identifiable`
	case domain.DocTypeAIS:
		return `- pan: taxpayer PAN
- gross_salary: salary income reported
- tds_deducted: total TDS credits
- interest_income: interest income reported
- dividend_income: dividend income reported
- advance_tax: advance tax payments
- self_assessment_tax: self-assessment tax payments`
	default:
		return `- any of: pan, gross_salary, tds_deducted, interest_income, dividend_income, rental_income, home_loan_interest, short_term_capital_gains, long_term_capital_gains, section_80c, section_80d, section_80g, advance_tax, self_assessment_tax`
	}
}
