package recon

import "superca/internal/domain"

// Policy configures conflict resolution.
type Policy struct {
	// TrustRanking lists, per field, the document types whose values beat
	// all others regardless of confidence. Earlier entries win.
	TrustRanking map[string][]domain.DocumentType

	// AutoFixThresholdPaise: when trust and confidence both tie on a
	// monetary field, disagreements at or under this gap resolve to the
	// higher value (rounding noise between statements).
	AutoFixThresholdPaise int64
}

// DefaultPolicy returns the stock trust ranking: a bank statement is
// authoritative for interest actually credited, Form-16 for salary and TDS
// figures the employer certified, AIS for tax payments the department holds.
func DefaultPolicy() Policy {
	return Policy{
		TrustRanking: map[string][]domain.DocumentType{
			domain.FieldInterestIncome:    {domain.DocTypeBankStatement, domain.DocTypeAIS, domain.DocTypeForm16},
			domain.FieldTDSOnInterest:     {domain.DocTypeBankStatement, domain.DocTypeAIS},
			domain.FieldGrossSalary:       {domain.DocTypeForm16, domain.DocTypeAIS},
			domain.FieldTDSDeducted:       {domain.DocTypeForm16, domain.DocTypeAIS},
			domain.FieldDividendIncome:    {domain.DocTypeAIS, domain.DocTypeBankStatement},
			domain.FieldAdvanceTax:        {domain.DocTypeAIS, domain.DocTypeBankStatement},
			domain.FieldSelfAssessmentTax: {domain.DocTypeAIS, domain.DocTypeBankStatement},
			domain.FieldPAN:               {domain.DocTypeForm16, domain.DocTypeAIS, domain.DocTypeBankStatement},
		},
		AutoFixThresholdPaise: domain.RupeesToPaise(100),
	}
}

// rank returns the position of a document type in the field's trust ranking,
// or -1 when the field has no ranking or the type is unranked.
func (p Policy) rank(field string, t domain.DocumentType) int {
	ranking, ok := p.TrustRanking[field]
	if !ok {
		return -1
	}
	for i, r := range ranking {
		if r == t {
			return i
		}
	}
	return -1
}
