// Command seedrules converts a rule-table Excel workbook into the JSON format
// the tax registry loads. Sheets: Regimes, Slabs, Deductions, Surcharge,
// Rebate. Amounts are in rupees and rates in percent; output is paise and
// basis points.
// Usage: go run ./cmd/seedrules <workbook.xlsx> <version> <filing-period>[,period...]
// Output: internal/tax/rules/<version>.json
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"superca/internal/tax"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) != 4 {
		return fmt.Errorf("usage: seedrules <workbook.xlsx> <version> <filing-period>[,period...]")
	}
	xlsxPath, version, periods := os.Args[1], os.Args[2], strings.Split(os.Args[3], ",")

	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	table := &tax.RuleTable{
		Version:       version,
		FilingPeriods: periods,
	}

	regimes, defaultRegime, err := parseRegimesSheet(f)
	if err != nil {
		return fmt.Errorf("parse Regimes sheet: %w", err)
	}
	table.DefaultRegime = defaultRegime

	slabs, err := parseSlabsSheet(f)
	if err != nil {
		return fmt.Errorf("parse Slabs sheet: %w", err)
	}
	deductions, err := parseDeductionsSheet(f)
	if err != nil {
		return fmt.Errorf("parse Deductions sheet: %w", err)
	}
	surcharges, err := parseSurchargeSheet(f)
	if err != nil {
		return fmt.Errorf("parse Surcharge sheet: %w", err)
	}
	rebates, err := parseRebateSheet(f)
	if err != nil {
		return fmt.Errorf("parse Rebate sheet: %w", err)
	}

	for i := range regimes {
		r := &regimes[i]
		r.Slabs = slabs[r.ID]
		r.Deductions = deductions[r.ID]
		r.SurchargeBands = surcharges[r.ID]
		if reb, ok := rebates[r.ID]; ok {
			r.Rebate = &reb
		}
	}
	table.Regimes = regimes

	if err := table.Validate(); err != nil {
		return fmt.Errorf("validate generated table: %w", err)
	}

	outPath := filepath.Join("internal", "tax", "rules", version+".json")
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal table: %w", err)
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	log.Printf("Generated %s: %d regimes, default %q, periods %v",
		outPath, len(table.Regimes), table.DefaultRegime, table.FilingPeriods)
	return nil
}

// parseRegimesSheet reads the Regimes sheet.
// Columns: A=id, B=label, C=standard deduction (rupees), D=cess %,
// E=default (yes/no), F=disallow business income (yes/no),
// G=disallow non-resident (yes/no). Header on row 1.
func parseRegimesSheet(f *excelize.File) ([]tax.RegimeRules, string, error) {
	rows, err := f.GetRows("Regimes")
	if err != nil {
		return nil, "", err
	}

	var regimes []tax.RegimeRules
	var defaultRegime string
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		id := strings.TrimSpace(cellVal(row, 0))
		if id == "" {
			continue
		}

		stdDed, err := rupeesToPaise(cellVal(row, 2))
		if err != nil {
			return nil, "", fmt.Errorf("row %d standard deduction: %w", i+1, err)
		}
		cess, err := percentToBps(cellVal(row, 3))
		if err != nil {
			return nil, "", fmt.Errorf("row %d cess: %w", i+1, err)
		}

		regimes = append(regimes, tax.RegimeRules{
			ID:                     id,
			Label:                  strings.TrimSpace(cellVal(row, 1)),
			StandardDeductionPaise: stdDed,
			CessBps:                cess,
			DisallowBusinessIncome: isYes(cellVal(row, 5)),
			DisallowNonResident:    isYes(cellVal(row, 6)),
		})
		if isYes(cellVal(row, 4)) {
			defaultRegime = id
		}
	}
	return regimes, defaultRegime, nil
}

// parseSlabsSheet reads the Slabs sheet.
// Columns: A=regime id, B=up to (rupees, blank/0 = unbounded), C=rate %.
// Rows must already be in ascending order per regime.
func parseSlabsSheet(f *excelize.File) (map[string][]tax.Slab, error) {
	rows, err := f.GetRows("Slabs")
	if err != nil {
		return nil, err
	}

	slabs := make(map[string][]tax.Slab)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		regime := strings.TrimSpace(cellVal(row, 0))
		if regime == "" {
			continue
		}
		upTo, err := rupeesToPaise(cellVal(row, 1))
		if err != nil {
			return nil, fmt.Errorf("row %d up-to: %w", i+1, err)
		}
		rate, err := percentToBps(cellVal(row, 2))
		if err != nil {
			return nil, fmt.Errorf("row %d rate: %w", i+1, err)
		}
		slabs[regime] = append(slabs[regime], tax.Slab{UpToPaise: upTo, RateBps: rate})
	}
	return slabs, nil
}

// parseDeductionsSheet reads the Deductions sheet.
// Columns: A=regime id, B=code, C=profile field, D=cap (rupees, blank/0 =
// uncapped). Rows apply in sheet order.
func parseDeductionsSheet(f *excelize.File) (map[string][]tax.DeductionRule, error) {
	rows, err := f.GetRows("Deductions")
	if err != nil {
		return nil, err
	}

	deds := make(map[string][]tax.DeductionRule)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		regime := strings.TrimSpace(cellVal(row, 0))
		if regime == "" {
			continue
		}
		capPaise, err := rupeesToPaise(cellVal(row, 3))
		if err != nil {
			return nil, fmt.Errorf("row %d cap: %w", i+1, err)
		}
		deds[regime] = append(deds[regime], tax.DeductionRule{
			Code:     strings.TrimSpace(cellVal(row, 1)),
			Field:    strings.TrimSpace(cellVal(row, 2)),
			CapPaise: capPaise,
		})
	}
	return deds, nil
}

// parseSurchargeSheet reads the Surcharge sheet.
// Columns: A=regime id, B=above (rupees), C=rate %. Bands must be listed
// highest threshold first.
func parseSurchargeSheet(f *excelize.File) (map[string][]tax.SurchargeBand, error) {
	rows, err := f.GetRows("Surcharge")
	if err != nil {
		return nil, err
	}

	bands := make(map[string][]tax.SurchargeBand)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		regime := strings.TrimSpace(cellVal(row, 0))
		if regime == "" {
			continue
		}
		above, err := rupeesToPaise(cellVal(row, 1))
		if err != nil {
			return nil, fmt.Errorf("row %d above: %w", i+1, err)
		}
		rate, err := percentToBps(cellVal(row, 2))
		if err != nil {
			return nil, fmt.Errorf("row %d rate: %w", i+1, err)
		}
		bands[regime] = append(bands[regime], tax.SurchargeBand{AbovePaise: above, RateBps: rate})
	}
	return bands, nil
}

// parseRebateSheet reads the Rebate sheet.
// Columns: A=regime id, B=income up to (rupees), C=max rebate (rupees).
func parseRebateSheet(f *excelize.File) (map[string]tax.Rebate, error) {
	rows, err := f.GetRows("Rebate")
	if err != nil {
		return nil, err
	}

	rebates := make(map[string]tax.Rebate)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		regime := strings.TrimSpace(cellVal(row, 0))
		if regime == "" {
			continue
		}
		upTo, err := rupeesToPaise(cellVal(row, 1))
		if err != nil {
			return nil, fmt.Errorf("row %d income up to: %w", i+1, err)
		}
		max, err := rupeesToPaise(cellVal(row, 2))
		if err != nil {
			return nil, fmt.Errorf("row %d max: %w", i+1, err)
		}
		rebates[regime] = tax.Rebate{IncomeUpToPaise: upTo, MaxPaise: max}
	}
	return rebates, nil
}

// rupeesToPaise parses a rupee cell value, tolerating commas and a trailing
// ".00". Blank means zero.
func rupeesToPaise(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	rupees, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return int64(rupees*100 + 0.5), nil
}

// percentToBps parses a rate cell like "5", "5%", or "37.5%".
func percentToBps(s string) (int64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return 0, nil
	}
	pct, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q", s)
	}
	return int64(pct*100 + 0.5), nil
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

func cellVal(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
