package cow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/GoCowSwap/cowgate/internal/pkg/apperrors"
	"github.com/GoCowSwap/cowgate/internal/pkg/metrics"
)

// Client talks to the two external collaborators of the pipeline: the
// quote service and the order submission service. Both are pure
// request/response; there is no retry and no state held across calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: 10 * time.Second,
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Quote requests trade terms for the given size. A transport failure is
// NETWORK_FAILURE; a non-2xx response is SERVICE_REJECTED with the
// upstream status and body preserved.
func (c *Client) Quote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	var resp QuoteResponse
	if err := c.post(ctx, "quote", "/api/v1/quote", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitOrder submits a signed order and returns the order UID assigned
// by the service.
func (c *Client) SubmitOrder(ctx context.Context, order *OrderSubmission) (string, error) {
	var uid string
	if err := c.post(ctx, "submit", "/api/v1/orders", order, &uid); err != nil {
		return "", err
	}
	return uid, nil
}

func (c *Client) post(ctx context.Context, call, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamLatency.WithLabelValues(call).Observe(time.Since(start).Seconds())
	if err != nil {
		return apperrors.New(apperrors.ErrNetwork, fmt.Sprintf("%s request failed", call), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.New(apperrors.ErrNetwork, fmt.Sprintf("reading %s response failed", call), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRejects.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()
		return apperrors.NewServiceRejected(resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return apperrors.New(apperrors.ErrNetwork, fmt.Sprintf("decoding %s response failed", call), err)
		}
	}
	return nil
}
