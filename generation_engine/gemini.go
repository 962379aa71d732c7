package generation_engine

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"

	"previz_studio/entities"
)

const (
	DefaultGeminiHost  = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel = "gemini-2.5-flash-image"
)

type geminiImpl struct {
	api   apiClient
	model string
}

type GeminiConfig struct {
	// Host defaults to DefaultGeminiHost.
	Host string
	// Model defaults to DefaultGeminiModel.
	Model      string
	HTTPClient *http.Client
}

// NewGemini calls generateContent with the prompt and, when present, the clean plate inline.
func NewGemini(cfg GeminiConfig) (Engine, error) {
	host := cfg.Host
	if host == "" {
		host = DefaultGeminiHost
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &geminiImpl{
		api:   newAPIClient(entities.EngineGemini, host, cfg.HTTPClient),
		model: model,
	}, nil
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *geminiImpl) Kind() entities.EngineKind {
	return entities.EngineGemini
}

func (g *geminiImpl) AcceptsReference() bool {
	return true
}

func (g *geminiImpl) Generate(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, errMissingRequest
	}

	if req.Credential == "" {
		return nil, ErrMissingCredential
	}

	parts := []geminiPart{{Text: ReferencePrompt(req.Params)}}

	if req.Reference != nil && len(req.Reference.Data) > 0 {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: req.Reference.MimeType,
			Data:     base64.StdEncoding.EncodeToString(req.Reference.Data),
		}})
	}

	resp := &geminiResponse{}
	path := "/v1beta/models/" + url.PathEscape(g.model) + ":generateContent"

	err := g.api.postJSON(ctx, path, map[string]string{"x-goog-api-key": req.Credential}, &geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
	}, resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 {
		return nil, ErrEmptyResult
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			return &Result{ImageURL: "data:image/png;base64," + part.InlineData.Data}, nil
		}
	}

	return nil, ErrEmptyResult
}
