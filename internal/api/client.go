package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to a diagram service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var resp GenerateResponse
	if err := c.post(ctx, "/describe", req, &resp); err != nil {
		return nil, err
	}
	if err := CheckGenerate(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeepDive(ctx context.Context, req DeepDiveRequest) (*DeepDiveResponse, error) {
	var resp DeepDiveResponse
	if err := c.post(ctx, "/deep-dive", req, &resp); err != nil {
		return nil, err
	}
	if err := CheckDeepDive(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post sends body as JSON and decodes the reply into out. The body is
// decoded whatever the status code: the service reports failures in the
// body, and a non-2xx reply without success=true is a failure anyway.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}
	c.log.Debug("service call",
		zap.String("path", path),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: status %d: %v", ErrMalformedResponse, httpResp.StatusCode, err)
	}
	return nil
}
