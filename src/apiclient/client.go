// Package apiclient is the HTTP transport for the PRD For AI backend. It
// issues blocking and streaming chat requests and translates HTTP error
// statuses into typed errors.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/prdforai/prdchat/src/chatsdk"
)

const defaultBaseURL = "http://localhost:8001"

// Config holds the client configuration.
type Config struct {
	BaseURL   string
	AuthToken string
	Logger    *slog.Logger
	// HTTPClient overrides the default client. Streaming requests need a
	// client without a response timeout, so the default sets none and
	// relies on context cancellation.
	HTTPClient *http.Client
}

// Client talks to the backend chat API.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a backend API client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    config.BaseURL,
		authToken:  config.AuthToken,
		httpClient: httpClient,
		logger:     logger.With("component", "api_client"),
	}
}

// CreateChatCompletion sends a blocking chat request and returns the full
// response envelope.
func (c *Client) CreateChatCompletion(ctx context.Context, req *chatsdk.ChatRequest) (*chatsdk.ChatResponse, error) {
	req.Stream = false

	logger := c.logger.With("method", "CreateChatCompletion", "model", req.Model)
	logger.Debug("sending chat request")

	resp, err := c.postJSON(ctx, "/api/chat", req, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.handleError(resp)
	}

	var result chatsdk.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Error("failed to decode response", "error", err)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	logger.Info("chat request complete", "usage_total", result.Usage.TotalTokens)
	return &result, nil
}

// CreateChatCompletionStream sends a streaming chat request and returns the
// parsed event stream. The caller owns the stream and must close it.
func (c *Client) CreateChatCompletionStream(ctx context.Context, req *chatsdk.ChatRequest) (chatsdk.Stream, error) {
	req.Stream = true

	logger := c.logger.With("method", "CreateChatCompletionStream", "model", req.Model)
	logger.Debug("sending streaming chat request")

	headers := map[string]string{
		"Accept":        "text/event-stream",
		"Cache-Control": "no-cache",
	}
	resp, err := c.postJSON(ctx, "/api/chat", req, headers)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, c.handleError(resp)
	}

	return chatsdk.NewSSEStream(resp.Body, c.logger), nil
}

// ListModels fetches the models the backend offers.
func (c *Client) ListModels(ctx context.Context) ([]chatsdk.ModelInfo, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/api/models", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.handleError(resp)
	}

	var result struct {
		Models []chatsdk.ModelInfo `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode models: %w", err)
	}
	return result.Models, nil
}

// StopResponse asks the backend to stop the generation task.
func (c *Client) StopResponse(ctx context.Context, taskID string) error {
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/chat/stop/"+taskID, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.handleError(resp)
	}
	return nil
}

// postJSON marshals body and POSTs it to path.
func (c *Client) postJSON(ctx context.Context, path string, body any, headers map[string]string) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := c.newRequest(ctx, http.MethodPost, path, data)
	if err != nil {
		return nil, err
	}
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}
	return c.httpClient.Do(httpReq)
}

// newRequest creates an HTTP request with the standard headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return req, nil
}

// handleError builds a typed error from a non-2xx response, extracting a
// best-effort message from the JSON error body.
func (c *Client) handleError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		body = nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    extractErrorMessage(body, resp.Status),
		RequestID:  resp.Header.Get("X-Request-ID"),
	}
	c.logger.Error("received error response", "status_code", resp.StatusCode, "message", apiErr.Message)
	return apiErr
}
