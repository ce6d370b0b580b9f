package storefront

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

	"github.com/marketfresh/checkoutapi/internal/config"
	apperrors "github.com/marketfresh/checkoutapi/pkg/errors"
)

// Client talks to the storefront backend API. Every call is single-shot:
// there is no retry policy and no caching layer.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new storefront API client
func NewClient(cfg config.StorefrontConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// errorResponse is the storefront's standard error envelope.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e errorResponse) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// do issues a request and decodes the JSON response into out (when non-nil).
// 400-class responses become ValidationError carrying the server message;
// transport failures and 5xx become NetworkError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperrors.NetworkError{Operation: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperrors.NetworkError{Operation: method + " " + path, Err: err}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.text() != "" {
			return &apperrors.ValidationError{StatusCode: resp.StatusCode, Message: errResp.text()}
		}
		return &apperrors.ValidationError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode >= 500 {
		c.logger.Warn("storefront server error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return &apperrors.NetworkError{
			Operation: method + " " + path,
			Err:       fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
