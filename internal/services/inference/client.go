// Package inference is the client for the external vision inference
// service. It sends the image's cloud URL only; the service fetches the
// bytes itself.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"farmguardian/internal/models"
)

const inferPath = "/v1/infer"

// ErrUnavailable is the single error kind surfaced by the client. Transport
// failures, timeouts, non-2xx statuses and malformed responses all
// normalize to it; callers never see transport detail.
var ErrUnavailable = errors.New("inference service unavailable")

type inferRequest struct {
	URL string `json:"url"`
}

// Client calls the external inference service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an inference client. The timeout bounds the single
// outbound call; there is no retry.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Infer submits one image URL for classification and returns the parsed
// payload together with the response body exactly as received, so the
// caller can persist the service's output verbatim.
func (c *Client) Infer(ctx context.Context, imageURL string) (*models.DetectionPayload, []byte, error) {
	body, err := json.Marshal(inferRequest{URL: imageURL})
	if err != nil {
		return nil, nil, c.unavailable("encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+inferPath, bytes.NewReader(body))
	if err != nil {
		return nil, nil, c.unavailable("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, c.unavailable("call service", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, c.unavailable("read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, c.unavailable("unexpected status", fmt.Errorf("status %d", resp.StatusCode))
	}

	var payload models.DetectionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, c.unavailable("decode response", err)
	}

	return &payload, raw, nil
}

func (c *Client) unavailable(stage string, err error) error {
	c.logger.Error("inference call failed", zap.String("stage", stage), zap.Error(err))
	return fmt.Errorf("%w: %s", ErrUnavailable, stage)
}
