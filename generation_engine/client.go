package generation_engine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"previz_studio/entities"

	"github.com/rs/zerolog/log"
)

const maxResponseBytes = 32 << 20

// apiClient is the JSON-over-HTTP transport shared by every engine.
type apiClient struct {
	engine entities.EngineKind
	host   string
	client *http.Client
}

func newAPIClient(engine entities.EngineKind, host string, client *http.Client) apiClient {
	if client == nil {
		client = &http.Client{}
	}

	return apiClient{
		engine: engine,
		host:   strings.TrimSuffix(host, "/"),
		client: client,
	}
}

func (c apiClient) postJSON(ctx context.Context, path string, headers map[string]string, req, out any) error {
	postURL := c.host + path

	jsonData, err := json.Marshal(req)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json; charset=UTF-8")

	for k, v := range headers {
		request.Header.Set(k, v)
	}

	response, err := c.client.Do(request)
	if err != nil {
		log.Printf("API URL: %s", postURL)
		log.Printf("Error with %s API request: %v", c.engine, err)

		return err
	}

	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return err
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		log.Printf("API URL: %s", postURL)
		log.Printf("Unexpected %s API status %d: %s", c.engine, response.StatusCode, string(body))

		return &TransportError{Engine: c.engine, Status: response.StatusCode, Body: string(body)}
	}

	err = json.Unmarshal(body, out)
	if err != nil {
		log.Printf("API URL: %s", postURL)
		log.Printf("Unexpected API response: %s", string(body))

		return err
	}

	return nil
}
