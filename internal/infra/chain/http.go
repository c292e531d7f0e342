package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient implements Settler against the escrow gateway's JSON-over-HTTP
// API.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPClient creates a settlement client with a bounded request timeout.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type submitResponse struct {
	TxRef string `json:"txRef"`
	Error string `json:"error,omitempty"`
}

func (c *HTTPClient) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	body, err := json.Marshal(struct {
		SubmitRequest
		SenderKey string `json:"senderKey"`
	}{req, req.SenderKey})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.endpoint + "/v2/payments/submit"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submit call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out submitResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	// Backend business errors surface verbatim so the classifier can read
	// them.
	if out.Error != "" {
		return "", fmt.Errorf("%s", out.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("submit failed with status %d", resp.StatusCode)
	}
	if out.TxRef == "" {
		return "", fmt.Errorf("submit response missing txRef")
	}
	return out.TxRef, nil
}

func (c *HTTPClient) Status(ctx context.Context, paymentID string) (Status, error) {
	url := fmt.Sprintf("%s/v2/payments/%s/status", c.endpoint, paymentID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Status{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Status{}, fmt.Errorf("status call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Status{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("status query failed with status %d", resp.StatusCode)
	}

	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return Status{}, fmt.Errorf("decode status: %w", err)
	}
	return st, nil
}
