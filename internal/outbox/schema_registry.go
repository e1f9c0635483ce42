package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// SchemaRegistryClient talks to a Confluent Schema Registry over its REST API.
// Only the two calls the dispatcher needs are implemented.
type SchemaRegistryClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSchemaRegistryClient constructs a client for the given registry base URL.
func NewSchemaRegistryClient(baseURL string) *SchemaRegistryClient {
	return &SchemaRegistryClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// EnsureSchema returns the registry ID for the subject, registering the
// supplied JSON schema when the subject does not exist yet.
func (c *SchemaRegistryClient) EnsureSchema(ctx context.Context, subject string, schema string) (int, error) {
	if id, err := c.latestID(ctx, subject); err == nil {
		return id, nil
	}
	return c.register(ctx, subject, schema)
}

func (c *SchemaRegistryClient) latestID(ctx context.Context, subject string) (int, error) {
	endpoint := fmt.Sprintf("%s/subjects/%s/versions/latest", c.baseURL, url.PathEscape(subject))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("subject %s not registered", subject)
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("schema registry lookup %s: %s", subject, body)
	}

	return decodeSchemaID(resp.Body)
}

func (c *SchemaRegistryClient) register(ctx context.Context, subject string, schema string) (int, error) {
	body, err := json.Marshal(map[string]any{
		"schemaType": "JSON",
		"schema":     schema,
	})
	if err != nil {
		return 0, err
	}

	endpoint := fmt.Sprintf("%s/subjects/%s/versions", c.baseURL, url.PathEscape(subject))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/vnd.schemaregistry.v1+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("schema registry register %s: %s", subject, data)
	}

	return decodeSchemaID(resp.Body)
}

func decodeSchemaID(r io.Reader) (int, error) {
	var payload struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return 0, err
	}
	return payload.ID, nil
}
