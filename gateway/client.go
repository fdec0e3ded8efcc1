// Package gateway is the HTTP client for the backend API gateway. The
// gateway owns the provider credentials and tokens; this process only
// relays requests on behalf of the signed-in user.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/social-connect/internal/utils"
	"github.com/jrsteele09/social-connect/metrics"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout = 15 * time.Second
	userAgent      = "SocialConnect-Frontend/1.0"
	maxBodyBytes   = 4 << 20
	maxLoggedBody  = 256
)

// Client talks to the gateway. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	ngrok      bool
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		ngrok:      strings.Contains(baseURL, "ngrok"),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one gateway call
type request struct {
	method   string
	path     string
	endpoint string // metrics label, must not contain ids
	token    string
	query    url.Values
	body     any
}

// do sends the request and decodes a 2xx JSON body into out (when non-nil).
// The raw body is returned so proxies can relay it untouched.
func (c *Client) do(ctx context.Context, r request, out any) (json.RawMessage, error) {
	var bodyReader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Message: "failed to encode request", Err: err}
		}
		bodyReader = bytes.NewReader(payload)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, bodyReader)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if c.ngrok {
		req.Header.Set("ngrok-skip-browser-warning", "true")
		req.Header.Set("User-Agent", userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.GatewayRequestDuration.WithLabelValues(r.endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(r.endpoint, "network_error").Inc()
		log.Err(err).Str("method", r.method).Str("endpoint", r.endpoint).Msg("Gateway unreachable")
		return nil, &Error{Kind: KindNetwork, Message: "Network error - unable to connect to server", Details: err.Error(), Err: err}
	}
	defer resp.Body.Close()
	metrics.GatewayRequests.WithLabelValues(r.endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: "Network error - unable to connect to server", Details: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := errorFromResponse(resp, raw)
		log.Warn().Str("method", r.method).Str("endpoint", r.endpoint).Int("status", resp.StatusCode).
			Str("message", gwErr.Message).Str("body", utils.Truncate(string(raw), maxLoggedBody)).Msg("Gateway request failed")
		return nil, gwErr
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, &Error{Kind: KindExchange, Status: resp.StatusCode, Message: "Invalid response from server", Details: err.Error(), Err: err}
		}
	}
	return raw, nil
}

// errorBody is the error shape used across gateway routes
type errorBody struct {
	Message          string `json:"message"`
	Error            string `json:"error"`
	Details          string `json:"details"`
	ErrorDescription string `json:"error_description"`
}

func errorFromResponse(resp *http.Response, raw []byte) *Error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)

	gwErr := &Error{
		Kind:    kindForStatus(resp.StatusCode),
		Status:  resp.StatusCode,
		Message: utils.FirstNonEmpty(body.Message, body.Error, fmt.Sprintf("HTTP %d Error", resp.StatusCode)),
		Details: utils.FirstNonEmpty(body.Details, body.ErrorDescription),
	}
	if gwErr.Kind == KindRateLimit {
		gwErr.RetryAfter = retryAfter(resp.Header)
	}
	return gwErr
}
