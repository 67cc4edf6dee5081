package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"superca/internal/domain"
	"superca/internal/tax"
)

// CalculateTaxInput carries manually entered figures for a direct
// computation, bypassing documents and reconciliation entirely. Amounts are
// raw strings so the handler stays format-agnostic.
type CalculateTaxInput struct {
	FilingPeriod string
	Fields       map[string]string
}

// TaxService exposes stateless computation paths: direct calculation from
// manual figures, and the combined reconcile-then-compute convenience flow.
type TaxService interface {
	Calculate(ctx context.Context, input *CalculateTaxInput) (*domain.TaxComputation, error)
	// ReconcileAndCompute chains Reconcile and Compute on the period's
	// return in one call.
	ReconcileAndCompute(ctx context.Context, taxpayerID uuid.UUID, period string, actor uuid.UUID) (*domain.ReturnRecord, error)
	RuleVersions() []string
}

type taxService struct {
	rules   *tax.Registry
	returns ReturnService
}

// NewTaxService creates a new TaxService implementation.
func NewTaxService(rules *tax.Registry, returns ReturnService) TaxService {
	return &taxService{rules: rules, returns: returns}
}

// Calculate builds a manual-provenance profile from the supplied figures and
// runs the full regime comparison against the period's rule table. Nothing is
// persisted.
func (s *taxService) Calculate(_ context.Context, input *CalculateTaxInput) (*domain.TaxComputation, error) {
	if len(input.Fields) == 0 {
		return nil, domain.ErrNoExtractionInputs
	}

	table, err := s.rules.ForPeriod(input.FilingPeriod)
	if err != nil {
		return nil, err
	}

	profile := &domain.CanonicalProfile{
		FilingPeriod: input.FilingPeriod,
		Values:       make(map[string]domain.ProfileValue),
	}

	names := make([]string, 0, len(input.Fields))
	for name := range input.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := input.Fields[name]
		pv := domain.ProfileValue{
			Field:      name,
			Value:      raw,
			Confidence: 1,
			Resolution: domain.ResolutionManual,
		}
		if domain.IsMonetaryField(name) {
			paise, err := domain.ParsePaise(raw)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", name, err)
			}
			pv.Paise = &paise
		}
		profile.Values[name] = pv
	}

	return tax.Compute(table, profile)
}

func (s *taxService) ReconcileAndCompute(ctx context.Context, taxpayerID uuid.UUID, period string, actor uuid.UUID) (*domain.ReturnRecord, error) {
	rec, err := s.returns.GetOrCreateDraft(ctx, taxpayerID, period)
	if err != nil {
		return nil, err
	}
	rec, err = s.returns.Reconcile(ctx, taxpayerID, rec.ID, actor)
	if err != nil {
		return nil, err
	}
	return s.returns.Compute(ctx, &ComputeInput{
		TaxpayerID: taxpayerID,
		ReturnID:   rec.ID,
		Actor:      actor,
	})
}

func (s *taxService) RuleVersions() []string {
	return s.rules.Versions()
}
