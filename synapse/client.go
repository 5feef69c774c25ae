// Package synapse is a minimal client for the Synapse REST API, covering the
// operations the binding subsystem needs: schema binds, registered-schema
// lookups, and wiki fetches.
package synapse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// DefaultRepoEndpoint is the production repository endpoint.
const DefaultRepoEndpoint = "https://repo-prod.prod.sagebase.org/repo/v1"

// Client talks to the Synapse repository service.
type Client struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. Callers set per-request deadlines
// through context, so the default client carries no timeout of its own.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithEndpoint overrides the repository endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = strings.TrimRight(endpoint, "/") }
}

// NewClient creates a Synapse client authenticating with a personal access
// token.
func NewClient(authToken string, opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultRepoEndpoint,
		authToken:  authToken,
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisteredSchemaURI builds the URI of a registered JSON schema:
// {org}-{component}-{numeric version}, with spaces stripped from the
// organization name and the "v" prefix stripped from the version.
func RegisteredSchemaURI(org, component, version string) string {
	return strings.Join([]string{
		strings.ReplaceAll(org, " ", ""),
		component,
		strings.TrimPrefix(version, "v"),
	}, "-")
}

// bindRequest is the body of PUT /entity/{id}/schema/binding.
type bindRequest struct {
	EntityID                 string `json:"entityId"`
	SchemaID                 string `json:"schema$id"`
	EnableDerivedAnnotations bool   `json:"enableDerivedAnnotations,omitempty"`
}

// BindSchema binds a registered schema to an entity. The call can take
// minutes for large schemas; the context deadline bounds it.
func (c *Client) BindSchema(ctx context.Context, entityID, schemaURI string, enableDerived bool) error {
	body := bindRequest{
		EntityID:                 entityID,
		SchemaID:                 schemaURI,
		EnableDerivedAnnotations: enableDerived,
	}

	c.logger.Debug("Binding schema",
		slog.String("entity", entityID),
		slog.String("schema", schemaURI))

	var resp json.RawMessage
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/entity/%s/schema/binding", entityID), body, &resp)
	if err != nil {
		return fmt.Errorf("bind schema %s to %s: %w", schemaURI, entityID, err)
	}
	return nil
}

// SchemaRegistered checks that a schema URI is registered with the platform.
// A missing registration is fatal: schemas must be registered before binding.
func (c *Client) SchemaRegistered(ctx context.Context, schemaURI string) error {
	var resp json.RawMessage
	err := c.do(ctx, http.MethodGet, "/schema/type/registered/"+schemaURI, nil, &resp)
	if err != nil {
		return fmt.Errorf("schema %s not registered: %w", schemaURI, err)
	}
	return nil
}

// wikiPage is the subset of a wiki page response we consume.
type wikiPage struct {
	Markdown string `json:"markdown"`
}

// WikiMarkdown fetches the root wiki page markdown of an entity.
func (c *Client) WikiMarkdown(ctx context.Context, entityID string) (string, error) {
	var page wikiPage
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/entity/%s/wiki", entityID), nil, &page)
	if err != nil {
		return "", fmt.Errorf("fetch wiki for %s: %w", entityID, err)
	}
	return page.Markdown, nil
}

// do executes one request and decodes the JSON response into out. Errors are
// classified transient or fatal by status so callers can drive retry policy
// with errors.As alone.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return NewFatalError(fmt.Errorf("marshal request: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return NewFatalError(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors (including context deadline) are worth retrying.
		return NewTransientError(fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return NewTransientError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(resp.StatusCode, method, path, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return NewFatalError(fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

// classifyStatus maps an error status to the retry taxonomy. Rate limits and
// server-side failures are transient; client errors are fatal.
func classifyStatus(status int, method, path string, body []byte) error {
	reason := strings.TrimSpace(string(body))
	if len(reason) > 200 {
		reason = reason[:200]
	}
	err := fmt.Errorf("%s %s: status %d: %s", method, path, status, reason)

	switch {
	case status == http.StatusTooManyRequests:
		return NewTransientError(err)
	case status >= 500:
		return NewTransientError(err)
	default:
		return NewFatalError(err)
	}
}
