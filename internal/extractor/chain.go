package extractor

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"superca/internal/domain"
	"superca/internal/port"
)

// circuitState tracks rate-limit backoff for a single provider.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// Attempt records one provider invocation, success or failure. The chain
// returns every attempt so downstream consumers keep full provenance.
type Attempt struct {
	Provider      string  `json:"provider"`
	OK            bool    `json:"ok"`
	Error         string  `json:"error,omitempty"`
	RateLimited   bool    `json:"rate_limited,omitempty"`
	Skipped       bool    `json:"skipped,omitempty"`
	AvgConfidence float64 `json:"avg_confidence,omitempty"`
	DurationMS    int64   `json:"duration_ms"`
}

// Chain tries extraction providers in order, stopping at the first adequate
// result. Providers whose rate-limit circuit is open are skipped. Attempts
// run sequentially: each outcome decides whether the next provider is needed.
type Chain struct {
	providers []port.DocumentExtractor
	names     []string
	circuits  []*circuitState
	floor     float64
}

// NewChain creates a Chain from an ordered list of providers and their names.
func NewChain(providers []port.DocumentExtractor, names []string, confidenceFloor float64) *Chain {
	circuits := make([]*circuitState, len(providers))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &Chain{
		providers: providers,
		names:     names,
		circuits:  circuits,
		floor:     confidenceFloor,
	}
}

// Extract runs the chain for one document. It returns every attempt made
// plus the first adequate output, or domain.ErrUnextractedDocument when no
// provider produced one. The attempt log is always valid, even on failure.
func (c *Chain) Extract(ctx context.Context, input port.ExtractInput) ([]Attempt, *port.ExtractOutput, error) {
	now := time.Now()
	attempts := make([]Attempt, 0, len(c.providers))

	for i, p := range c.providers {
		name := c.names[i]

		if resetAt, open := c.circuits[i].isOpenWithReset(now); open {
			log.Printf("extractor.Chain: skipping %s (circuit open until %s)", name, resetAt.Format(time.RFC3339))
			attempts = append(attempts, Attempt{
				Provider: name,
				Skipped:  true,
				Error:    "rate limit circuit open",
			})
			continue
		}

		start := time.Now()
		out, err := p.Extract(ctx, input)
		elapsed := time.Since(start).Milliseconds()

		if err != nil {
			log.Printf("extractor.Chain: %s failed for document type %s: %v", name, input.DocumentType, err)
			att := Attempt{Provider: name, Error: err.Error(), DurationMS: elapsed}

			var rlErr *RateLimitError
			if errors.As(err, &rlErr) {
				att.RateLimited = true
				c.circuits[i].open(now.Add(rlErr.RetryAfter))
			}
			attempts = append(attempts, att)
			continue
		}

		avg := averageConfidence(out.Fields)
		if avg < c.floor {
			log.Printf("extractor.Chain: %s result below confidence floor (%.2f < %.2f)", name, avg, c.floor)
			attempts = append(attempts, Attempt{
				Provider:      name,
				Error:         (&LowConfidenceError{Provider: name, Average: avg, Floor: c.floor}).Error(),
				AvgConfidence: avg,
				DurationMS:    elapsed,
			})
			continue
		}

		out.Provider = name
		attempts = append(attempts, Attempt{
			Provider:      name,
			OK:            true,
			AvgConfidence: avg,
			DurationMS:    elapsed,
		})
		return attempts, out, nil
	}

	return attempts, nil, domain.ErrUnextractedDocument
}

func averageConfidence(fields map[string]domain.ExtractionField) float64 {
	if len(fields) == 0 {
		return 0
	}
	var sum float64
	for _, f := range fields {
		sum += f.Confidence
	}
	return sum / float64(len(fields))
}
