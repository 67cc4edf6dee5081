// Package jsonrender renders return documents as indented JSON. It stands in
// for the PDF renderer until the print pipeline is wired up; callers only see
// port.ArtifactRenderer.
package jsonrender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"superca/internal/port"
)

type renderer struct{}

// NewRenderer creates a JSON ArtifactRenderer.
func NewRenderer() port.ArtifactRenderer {
	return &renderer{}
}

func (r *renderer) Render(_ context.Context, doc json.RawMessage, fileName string) (*port.RenderedArtifact, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return nil, fmt.Errorf("jsonrender.Render: %w", err)
	}
	return &port.RenderedArtifact{
		Bytes:       buf.Bytes(),
		ContentType: "application/json",
		FileName:    fileName + ".json",
	}, nil
}
