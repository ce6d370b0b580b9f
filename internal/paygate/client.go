package paygate

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
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

// Client talks to the external card-tokenization gateway. Every request is
// signed: a SHA-256 digest of the body plus an HMAC signature over
// host, date, request-target, digest and merchant id. The shared secret
// never leaves this service.
type Client struct {
	scheme       string
	host         string
	merchantID   string
	sharedSecret []byte
	httpClient   *http.Client
	logger       *zap.Logger
	now          func() time.Time
}

// NewClient creates a new tokenization gateway client
func NewClient(cfg config.GatewayConfig, logger *zap.Logger) *Client {
	scheme := "https"
	host := cfg.Host
	if strings.HasPrefix(host, "http://") {
		scheme = "http"
	}
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimSuffix(host, "/")

	return &Client{
		scheme:       scheme,
		host:         host,
		merchantID:   cfg.MerchantID,
		sharedSecret: []byte(cfg.SharedSecret),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

// gatewayResponse is the gateway's envelope. The gateway reports failures in
// an errors array even on HTTP 200, so both must be checked.
type gatewayResponse struct {
	ID     string          `json:"id,omitempty"`
	Status string          `json:"status,omitempty"`
	Errors []gatewayError  `json:"errors,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type gatewayError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (r *gatewayResponse) errorText() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// digest computes the Digest header value for a request body.
func digest(body []byte) string {
	sum := sha256.Sum256(body)
	return "SHA-256=" + base64.StdEncoding.EncodeToString(sum[:])
}

// sign builds the Signature header for a request. The signed string covers
// host, date, request-target, digest and v-c-merchant-id in that order.
func (c *Client) sign(method, resourcePath, bodyDigest, date string) string {
	target := strings.ToLower(method) + " " + resourcePath
	signedString := "host: " + c.host + "\n" +
		"date: " + date + "\n" +
		"request-target: " + target + "\n" +
		"digest: " + bodyDigest + "\n" +
		"v-c-merchant-id: " + c.merchantID

	mac := hmac.New(sha256.New, c.sharedSecret)
	mac.Write([]byte(signedString))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf(
		`keyid="%s", algorithm="HmacSHA256", headers="host date request-target digest v-c-merchant-id", signature="%s"`,
		c.merchantID, signature,
	)
}

// call issues a signed request and returns the decoded envelope. A response
// with a non-empty errors array is a failure regardless of HTTP status.
func (c *Client) call(ctx context.Context, operation, method, resourcePath string, body interface{}) (*gatewayResponse, error) {
	var jsonData []byte
	if body != nil {
		var err error
		jsonData, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	url := c.scheme + "://" + c.host + resourcePath
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	date := c.now().UTC().Format(http.TimeFormat)
	bodyDigest := digest(jsonData)

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Digest", bodyDigest)
	req.Header.Set("Signature", c.sign(method, resourcePath, bodyDigest, date))
	req.Header.Set("Date", date)
	req.Header.Set("Host", c.host)
	req.Header.Set("v-c-merchant-id", c.merchantID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.NetworkError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.NetworkError{Operation: operation, Err: err}
	}

	var envelope gatewayResponse
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			return nil, fmt.Errorf("failed to unmarshal gateway response: %w", err)
		}
	}

	if len(envelope.Errors) > 0 {
		c.logger.Warn("gateway reported errors",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("reason", envelope.errorText()),
		)
		return nil, &apperrors.GatewayError{Operation: operation, Reason: envelope.errorText()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperrors.GatewayError{
			Operation: operation,
			Reason:    fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	return &envelope, nil
}
