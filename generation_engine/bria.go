package generation_engine

import (
	"context"
	"net/http"

	"previz_studio/entities"
)

const (
	DefaultBriaHost = "https://engine.bria.ai"
	briaPath        = "/v1/text-to-image/base/2.3"
)

type briaImpl struct {
	api apiClient
}

type BriaConfig struct {
	// Host defaults to DefaultBriaHost.
	Host       string
	HTTPClient *http.Client
}

// NewBria calls the Bria text-to-image endpoint directly.
func NewBria(cfg BriaConfig) (Engine, error) {
	host := cfg.Host
	if host == "" {
		host = DefaultBriaHost
	}

	return &briaImpl{api: newAPIClient(entities.EngineBria, host, cfg.HTTPClient)}, nil
}

type briaRequest struct {
	Prompt      string `json:"prompt"`
	NumResults  int    `json:"num_results"`
	AspectRatio string `json:"aspect_ratio"`
	Sync        bool   `json:"sync"`
}

type briaResponse struct {
	Result []struct {
		URL string `json:"url"`
	} `json:"result"`
}

func (b *briaImpl) Kind() entities.EngineKind {
	return entities.EngineBria
}

func (b *briaImpl) AcceptsReference() bool {
	return false
}

func (b *briaImpl) Generate(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, errMissingRequest
	}

	if req.Credential == "" {
		return nil, ErrMissingCredential
	}

	resp := &briaResponse{}

	err := b.api.postJSON(ctx, briaPath, map[string]string{"api_token": req.Credential}, &briaRequest{
		Prompt:      StudioPrompt(req.Params),
		NumResults:  1,
		AspectRatio: "16:9",
		Sync:        true,
	}, resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Result) == 0 || resp.Result[0].URL == "" {
		return nil, ErrEmptyResult
	}

	return &Result{ImageURL: resp.Result[0].URL}, nil
}
