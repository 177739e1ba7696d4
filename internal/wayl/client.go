package wayl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"waylbridge/internal/models"
)

const authHeader = "X-WAYL-AUTHENTICATION"

// Client talks to the WAYL payment-link API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type linkResponse struct {
	Data struct {
		URL string `json:"url"`
		ID  any    `json:"id"`
	} `json:"data"`
}

// CreateLink submits a payment-link request. Anything but a 201 is a hard
// failure for the attempt.
func (c *Client) CreateLink(ctx context.Context, req models.PaymentRequest) (*models.PaymentLink, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/links", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set(authHeader, c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("wayl create link: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("wayl create link: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("wayl create link: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out linkResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("wayl create link: decode: %w", err)
	}
	if out.Data.URL == "" {
		return nil, fmt.Errorf("wayl create link: response missing data.url")
	}

	return &models.PaymentLink{
		URL: out.Data.URL,
		ID:  cast.ToString(out.Data.ID),
	}, nil
}

// VerifyAuthKey probes the API key, for the connectivity check endpoint.
func (c *Client) VerifyAuthKey(ctx context.Context) (int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/verify-auth-key", nil)
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set(authHeader, c.apiKey)
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("wayl verify auth key: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("wayl verify auth key: status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
