package port

import (
	"context"
	"encoding/json"
)

// RenderedArtifact is the byte form of a built return document.
type RenderedArtifact struct {
	Bytes       []byte
	ContentType string
	FileName    string
}

// ArtifactRenderer turns a structured return document into bytes. Rendering
// mechanics are a collaborator concern; the engine only builds the document.
type ArtifactRenderer interface {
	Render(ctx context.Context, doc json.RawMessage, fileName string) (*RenderedArtifact, error)
}
