package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"superca/internal/domain"
)

// fieldsPayload is the JSON shape every provider is prompted to return.
type fieldsPayload struct {
	Fields map[string]domain.ExtractionField `json:"fields"`
}

// DecodeFieldsPayload parses a model's text response into a field set.
// Models occasionally wrap JSON in code fences despite instructions; strip
// them before decoding.
func DecodeFieldsPayload(text string) (map[string]domain.ExtractionField, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	var payload fieldsPayload
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, fmt.Errorf("decoding extraction response: %w", err)
	}
	if len(payload.Fields) == 0 {
		return nil, fmt.Errorf("extraction response contains no fields")
	}

	out := make(map[string]domain.ExtractionField, len(payload.Fields))
	for name, f := range payload.Fields {
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		if f.Confidence < 0 {
			f.Confidence = 0
		}
		if f.Confidence > 1 {
			f.Confidence = 1
		}
		out[strings.ToLower(strings.TrimSpace(name))] = f
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("extraction response contains no non-empty fields")
	}
	return out, nil
}
