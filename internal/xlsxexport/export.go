// Package xlsxexport renders a return's reconciliation and computation as an
// Excel workbook for CA review.
package xlsxexport

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"superca/internal/domain"
)

// Export builds a workbook with one sheet per concern: the resolved profile,
// the conflict report, and the per-regime tax breakdown.
func Export(rec *domain.ReturnRecord) ([]byte, error) {
	profile, err := rec.DecodeProfile()
	if err != nil {
		return nil, fmt.Errorf("xlsxexport: %w", err)
	}
	report, err := rec.DecodeReport()
	if err != nil {
		return nil, fmt.Errorf("xlsxexport: %w", err)
	}
	comp, err := rec.DecodeComputation()
	if err != nil {
		return nil, fmt.Errorf("xlsxexport: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeProfileSheet(f, profile); err != nil {
		return nil, err
	}
	if err := writeConflictsSheet(f, report); err != nil {
		return nil, err
	}
	if err := writeComputationSheet(f, comp); err != nil {
		return nil, err
	}

	// Drop the default sheet left over from NewFile.
	if idx, err := f.GetSheetIndex("Profile"); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("xlsxexport delete sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsxexport write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeProfileSheet(f *excelize.File, profile *domain.CanonicalProfile) error {
	const sheet = "Profile"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("xlsxexport profile sheet: %w", err)
	}
	headers := []string{"Field", "Value", "Amount", "Confidence", "Resolution", "Sources"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("xlsxexport profile header: %w", err)
		}
	}
	if profile == nil {
		return nil
	}

	row := 2
	for _, name := range sortedFields(profile) {
		v := profile.Values[name]
		amount := ""
		if v.Paise != nil {
			amount = domain.FormatPaise(*v.Paise)
		}
		sources := ""
		for i, s := range v.Sources {
			if i > 0 {
				sources += ", "
			}
			sources += string(s.DocumentType)
		}
		values := []interface{}{v.Field, v.Value, amount, v.Confidence, string(v.Resolution), sources}
		for i, val := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("xlsxexport profile row: %w", err)
			}
		}
		row++
	}
	return nil
}

func writeConflictsSheet(f *excelize.File, report *domain.ReconciliationReport) error {
	const sheet = "Conflicts"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("xlsxexport conflicts sheet: %w", err)
	}
	headers := []string{"Field", "Resolution", "Resolved Value", "Detail", "Candidates"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("xlsxexport conflicts header: %w", err)
		}
	}
	if report == nil {
		return nil
	}

	for i, c := range report.Conflicts {
		candidates := ""
		for j, s := range c.Candidates {
			if j > 0 {
				candidates += ", "
			}
			candidates += fmt.Sprintf("%s=%s", s.DocumentType, s.Raw)
		}
		values := []interface{}{c.Field, string(c.Resolution), c.Resolved, c.Detail, candidates}
		for j, val := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("xlsxexport conflicts row: %w", err)
			}
		}
	}
	return nil
}

func writeComputationSheet(f *excelize.File, comp *domain.TaxComputation) error {
	const sheet = "Computation"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("xlsxexport computation sheet: %w", err)
	}
	if comp == nil {
		return nil
	}

	lines := []struct {
		label string
		pick  func(rc *domain.RegimeComputation) interface{}
	}{
		{"Eligible", func(rc *domain.RegimeComputation) interface{} { return rc.Eligible }},
		{"Gross income", func(rc *domain.RegimeComputation) interface{} { return domain.FormatPaise(rc.GrossIncomePaise) }},
		{"Standard deduction", func(rc *domain.RegimeComputation) interface{} { return domain.FormatPaise(rc.StandardDeductionPaise) }},
		{"Total deductions", func(rc *domain.RegimeComputation) interface{} { return domain.FormatPaise(rc.TotalDeductionsPaise) }},
		{"Taxable income", func(rc *domain.RegimeComputation) interface{} { return domain.FormatPaise(rc.TaxableIncomePaise) }},
		{"Slab tax", func(rc *domain.RegimeComputation) interface{} { return domain.FormatPaise(rc.SlabTaxPaise) }},
		{"Rebate", func(rc *domain.RegimeComputation) interface{} { return domain.FormatPaise(rc.RebatePaise) }},
		{"Surcharge", func(rc *domain.RegimeComputation) interface{} { return domain.FormatPaise(rc.SurchargePaise) }},
		{"Cess", func(rc *domain.RegimeComputation) interface{} { return domain.FormatPaise(rc.CessPaise) }},
		{"Total liability", func(rc *domain.RegimeComputation) interface{} { return domain.FormatPaise(rc.TotalLiabilityPaise) }},
		{"Taxes paid", func(rc *domain.RegimeComputation) interface{} { return domain.FormatPaise(rc.TaxesPaidPaise) }},
		{"Net payable", func(rc *domain.RegimeComputation) interface{} { return domain.FormatPaise(rc.NetPayablePaise) }},
		{"Refund", func(rc *domain.RegimeComputation) interface{} { return domain.FormatPaise(rc.RefundPaise) }},
	}

	if err := f.SetCellValue(sheet, "A1", "Rule version"); err != nil {
		return fmt.Errorf("xlsxexport computation: %w", err)
	}
	_ = f.SetCellValue(sheet, "B1", comp.RuleVersion)
	_ = f.SetCellValue(sheet, "A2", "Recommended regime")
	_ = f.SetCellValue(sheet, "B2", comp.RecommendedRegime)
	_ = f.SetCellValue(sheet, "A3", "Savings")
	_ = f.SetCellValue(sheet, "B3", domain.FormatPaise(comp.SavingsPaise))

	const headerRow = 5
	for col, rc := range comp.Regimes {
		cell, _ := excelize.CoordinatesToCellName(col+2, headerRow)
		if err := f.SetCellValue(sheet, cell, rc.Regime); err != nil {
			return fmt.Errorf("xlsxexport computation header: %w", err)
		}
	}
	for i, line := range lines {
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err := f.SetCellValue(sheet, cell, line.label); err != nil {
			return fmt.Errorf("xlsxexport computation label: %w", err)
		}
		for col := range comp.Regimes {
			cell, _ := excelize.CoordinatesToCellName(col+2, headerRow+1+i)
			if err := f.SetCellValue(sheet, cell, line.pick(&comp.Regimes[col])); err != nil {
				return fmt.Errorf("xlsxexport computation cell: %w", err)
			}
		}
	}
	return nil
}

func sortedFields(profile *domain.CanonicalProfile) []string {
	names := make([]string, 0, len(profile.Values))
	for name := range profile.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
