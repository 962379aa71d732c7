package generation_engine

import (
	"context"
	"net/http"

	"previz_studio/entities"
)

const (
	DefaultFalHost = "https://fal.run"
	falPath        = "/fal-ai/bria/text-to-image/v2.3"
)

type falImpl struct {
	api apiClient
}

type FalConfig struct {
	// Host defaults to DefaultFalHost.
	Host       string
	HTTPClient *http.Client
}

// NewFal calls the managed Bria 2.3 model through fal.run.
func NewFal(cfg FalConfig) (Engine, error) {
	host := cfg.Host
	if host == "" {
		host = DefaultFalHost
	}

	return &falImpl{api: newAPIClient(entities.EngineFal, host, cfg.HTTPClient)}, nil
}

type falRequest struct {
	Prompt          string `json:"prompt"`
	AspectRatio     string `json:"aspect_ratio"`
	SafetyTolerance string `json:"safety_tolerance"`
}

type falResponse struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

func (f *falImpl) Kind() entities.EngineKind {
	return entities.EngineFal
}

func (f *falImpl) AcceptsReference() bool {
	return false
}

func (f *falImpl) Generate(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, errMissingRequest
	}

	if req.Credential == "" {
		return nil, ErrMissingCredential
	}

	resp := &falResponse{}

	err := f.api.postJSON(ctx, falPath, map[string]string{"Authorization": "Key " + req.Credential}, &falRequest{
		Prompt:          StudioPrompt(req.Params),
		AspectRatio:     "16:9",
		SafetyTolerance: "2",
	}, resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Images) == 0 || resp.Images[0].URL == "" {
		return nil, ErrEmptyResult
	}

	return &Result{ImageURL: resp.Images[0].URL}, nil
}
