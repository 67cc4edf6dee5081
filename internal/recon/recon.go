// Package recon derives a single canonical taxpayer profile from the
// extraction results of all documents in a filing period.
package recon

import (
	"sort"
	"strings"

	"superca/internal/domain"
)

// Reconciler folds extraction results and manual overrides into a
// CanonicalProfile plus a report of every conflict it met on the way.
type Reconciler struct {
	policy Policy
}

func New(policy Policy) *Reconciler {
	return &Reconciler{policy: policy}
}

type candidate struct {
	source domain.ValueSource
	value  string
	paise  *int64
}

// Reconcile is deterministic: the same results and overrides always produce
// the same profile and report, field iteration ordered by name.
func (r *Reconciler) Reconcile(filingPeriod string, results []domain.ExtractionResult, overrides []domain.FieldOverride) (*domain.CanonicalProfile, *domain.ReconciliationReport, error) {
	profile := &domain.CanonicalProfile{
		FilingPeriod: filingPeriod,
		Values:       make(map[string]domain.ProfileValue),
	}
	report := &domain.ReconciliationReport{FilingPeriod: filingPeriod}

	// Stable input order: results sorted by creation then id so that
	// source lists and candidate ordering never depend on query order.
	sorted := make([]domain.ExtractionResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	byField := make(map[string][]candidate)
	for _, res := range sorted {
		profile.InputResults = append(profile.InputResults, res.ID)
		fields, err := res.DecodeFields()
		if err != nil {
			return nil, nil, err
		}
		fieldNames := make([]string, 0, len(fields))
		for name := range fields {
			fieldNames = append(fieldNames, name)
		}
		sort.Strings(fieldNames)
		for _, name := range fieldNames {
			c, err := normalize(name, res, fields[name])
			if err != nil {
				// Unparseable amounts are dropped, not fatal: one bad
				// extraction must not block the whole period. The drop
				// is recorded so it never vanishes silently.
				report.Dropped = append(report.Dropped, domain.DroppedValue{
					Field:        name,
					Raw:          fields[name].Value,
					Provider:     res.Provider,
					DocumentType: res.DocumentType,
					Reason:       err.Error(),
				})
				continue
			}
			byField[name] = append(byField[name], c)
		}
	}

	names := make([]string, 0, len(byField))
	for name := range byField {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, conflict := r.resolve(name, byField[name])
		if conflict != nil {
			report.Conflicts = append(report.Conflicts, *conflict)
			if conflict.Resolution == domain.ResolutionUnresolved {
				report.Unresolved++
				continue
			}
		}
		profile.Values[name] = *value
	}

	applyOverrides(profile, report, overrides)

	return profile, report, nil
}

// resolve picks the winning candidate for one field. A nil conflict means all
// sources agreed (or there was only one).
func (r *Reconciler) resolve(field string, cands []candidate) (*domain.ProfileValue, *domain.Conflict) {
	if len(cands) == 1 {
		return valueFrom(field, cands[0], domain.ResolutionAgreement), nil
	}

	if agreed(field, cands) {
		pv := valueFrom(field, best(cands), domain.ResolutionAgreement)
		// Agreement still records every contributing source.
		pv.Sources = sources(cands)
		return pv, nil
	}

	conflict := &domain.Conflict{
		Field:      field,
		Candidates: sources(cands),
	}

	// Trust ranking first: a ranked document type beats everything below it.
	if winner, ok := r.byTrust(field, cands); ok {
		conflict.Resolution = domain.ResolutionTrustRank
		conflict.Resolved = winner.value
		conflict.Detail = "resolved by document trust ranking: " + string(winner.source.DocumentType)
		pv := valueFrom(field, winner, domain.ResolutionTrustRank)
		pv.Sources = sources(cands)
		return pv, conflict
	}

	// Confidence tiebreak, but only when it is decisive: a strictly higher
	// confidence than every rival.
	if winner, ok := byConfidence(cands); ok {
		conflict.Resolution = domain.ResolutionConfidence
		conflict.Resolved = winner.value
		conflict.Detail = "resolved by extraction confidence"
		pv := valueFrom(field, winner, domain.ResolutionConfidence)
		pv.Sources = sources(cands)
		return pv, conflict
	}

	// Small monetary gaps resolve to the higher value.
	if domain.IsMonetaryField(field) {
		if winner, ok := autoFix(cands, r.policy.AutoFixThresholdPaise); ok {
			conflict.Resolution = domain.ResolutionAutoFixed
			conflict.Resolved = winner.value
			conflict.Detail = "values within auto-fix threshold, higher value kept"
			pv := valueFrom(field, winner, domain.ResolutionAutoFixed)
			pv.Sources = sources(cands)
			return pv, conflict
		}
	}

	conflict.Resolution = domain.ResolutionUnresolved
	conflict.Detail = "no trust ranking, confidence tie, disagreement above threshold"
	return nil, conflict
}

func (r *Reconciler) byTrust(field string, cands []candidate) (candidate, bool) {
	bestRank := -1
	var winner candidate
	ties := 0
	for _, c := range cands {
		rank := r.policy.rank(field, c.source.DocumentType)
		if rank < 0 {
			continue
		}
		switch {
		case bestRank < 0 || rank < bestRank:
			bestRank, winner, ties = rank, c, 1
		case rank == bestRank:
			if equalValue(field, winner, c) {
				continue // same document type agreeing with itself
			}
			ties++
		}
	}
	if bestRank < 0 || ties > 1 {
		return candidate{}, false
	}
	return winner, true
}

func byConfidence(cands []candidate) (candidate, bool) {
	winner := cands[0]
	for _, c := range cands[1:] {
		if c.source.Confidence > winner.source.Confidence {
			winner = c
		}
	}
	for _, c := range cands {
		if c.source.Confidence == winner.source.Confidence && !equalValue("", winner, c) {
			return candidate{}, false
		}
	}
	return winner, true
}

func autoFix(cands []candidate, threshold int64) (candidate, bool) {
	var lo, hi *candidate
	for i := range cands {
		c := &cands[i]
		if c.paise == nil {
			return candidate{}, false
		}
		if lo == nil || *c.paise < *lo.paise {
			lo = c
		}
		if hi == nil || *c.paise > *hi.paise {
			hi = c
		}
	}
	if *hi.paise-*lo.paise > threshold {
		return candidate{}, false
	}
	return *hi, true
}

func agreed(field string, cands []candidate) bool {
	for _, c := range cands[1:] {
		if !equalValue(field, cands[0], c) {
			return false
		}
	}
	return true
}

func equalValue(field string, a, b candidate) bool {
	if a.paise != nil && b.paise != nil {
		return *a.paise == *b.paise
	}
	return a.value == b.value
}

// best returns the highest-confidence candidate; used when everybody agrees
// so the headline confidence reflects the strongest extraction.
func best(cands []candidate) candidate {
	w := cands[0]
	for _, c := range cands[1:] {
		if c.source.Confidence > w.source.Confidence {
			w = c
		}
	}
	return w
}

func sources(cands []candidate) []domain.ValueSource {
	out := make([]domain.ValueSource, len(cands))
	for i, c := range cands {
		out[i] = c.source
	}
	return out
}

func valueFrom(field string, c candidate, res domain.ResolutionKind) *domain.ProfileValue {
	return &domain.ProfileValue{
		Field:      field,
		Value:      c.value,
		Paise:      c.paise,
		Confidence: c.source.Confidence,
		Resolution: res,
		Sources:    []domain.ValueSource{c.source},
	}
}

// normalize turns one raw extracted field into a comparable candidate:
// monetary amounts parse to paise, identifiers upper-case and trim.
func normalize(field string, res domain.ExtractionResult, f domain.ExtractionField) (candidate, error) {
	src := domain.ValueSource{
		ResultID:     res.ID,
		DocumentID:   res.DocumentID,
		DocumentType: res.DocumentType,
		Provider:     res.Provider,
		Raw:          f.Value,
		Confidence:   f.Confidence,
	}
	c := candidate{source: src, value: strings.TrimSpace(f.Value)}
	if domain.IsMonetaryField(field) {
		p, err := domain.ParsePaise(f.Value)
		if err != nil {
			return candidate{}, err
		}
		c.paise = &p
	} else if domain.IdentifierFields[field] {
		c.value = strings.ToUpper(c.value)
	}
	return c, nil
}

// applyOverrides layers manual values on top of the derived profile. An
// override wins unconditionally and survives re-runs because it is stored
// separately from extraction results.
func applyOverrides(profile *domain.CanonicalProfile, report *domain.ReconciliationReport, overrides []domain.FieldOverride) {
	sorted := make([]domain.FieldOverride, 0, len(overrides))
	for _, o := range overrides {
		if o.ClearedAt != nil {
			continue
		}
		sorted = append(sorted, o)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Field < sorted[j].Field })

	for _, o := range sorted {
		pv := domain.ProfileValue{
			Field:      o.Field,
			Value:      o.Value,
			Confidence: 1,
			Resolution: domain.ResolutionOverride,
			Note:       o.Reason,
		}
		if domain.IsMonetaryField(o.Field) {
			if p, err := domain.ParsePaise(o.Value); err == nil {
				pv.Paise = &p
			}
		}
		// An override closes any open conflict on the field.
		for i := range report.Conflicts {
			c := &report.Conflicts[i]
			if c.Field == o.Field && c.Resolution == domain.ResolutionUnresolved {
				c.Resolution = domain.ResolutionOverride
				c.Resolved = o.Value
				c.Detail = "resolved by manual override"
				report.Unresolved--
			}
		}
		profile.Values[o.Field] = pv
	}
}
