// Package filing talks to the external e-filing authority.
package filing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"superca/internal/config"
	"superca/internal/domain"
	"superca/internal/port"
)

type httpGateway struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPGateway creates a FilingGateway over the authority's HTTP API. The
// per-call timeout bounds submissions so a stuck authority cannot hold the
// filing path open indefinitely.
func NewHTTPGateway(cfg *config.FilingConfig) port.FilingGateway {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpGateway{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type submitRequest struct {
	TaxpayerID string          `json:"taxpayer_id"`
	Return     json.RawMessage `json:"return"`
}

type submitResponse struct {
	Accepted  bool   `json:"accepted"`
	Reference string `json:"reference"`
	FiledAt   string `json:"filed_at"`
	Reason    string `json:"reason"`
}

func (g *httpGateway) File(ctx context.Context, taxpayerID uuid.UUID, artifact json.RawMessage) (*port.FilingAck, error) {
	body, err := json.Marshal(submitRequest{
		TaxpayerID: taxpayerID.String(),
		Return:     artifact,
	})
	if err != nil {
		return nil, fmt.Errorf("filing marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/v1/returns", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("filing request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("filing submit: %w: %v", domain.ErrFilingFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("filing read: %w: %v", domain.ErrFilingFailed, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("filing submit status %d: %w", resp.StatusCode, domain.ErrFilingFailed)
	}

	var out submitResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("filing decode: %w: %v", domain.ErrFilingFailed, err)
	}

	if !out.Accepted {
		return nil, fmt.Errorf("filing rejected: %s: %w", out.Reason, domain.ErrFilingRejected)
	}

	filedAt := time.Now().UTC()
	if out.FiledAt != "" {
		if t, err := time.Parse(time.RFC3339, out.FiledAt); err == nil {
			filedAt = t.UTC()
		}
	}

	return &port.FilingAck{
		Reference: out.Reference,
		FiledAt:   filedAt,
	}, nil
}
