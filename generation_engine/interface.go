package generation_engine

import (
	"context"

	"previz_studio/capture_pipeline"
	"previz_studio/entities"
)

type Request struct {
	// Params must be a frozen snapshot; engines never read live state.
	Params     entities.SceneParams
	Credential string
	// Reference is the clean plate, used by engines that accept image input.
	Reference *capture_pipeline.CleanPlate
}

type Result struct {
	// ImageURL is either a remote URL or a data: URL with inline image bytes.
	ImageURL string
}

type Engine interface {
	Kind() entities.EngineKind
	// AcceptsReference reports whether Generate uses Request.Reference.
	AcceptsReference() bool
	Generate(ctx context.Context, req *Request) (*Result, error)
}
