package instagram

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"igsource/pkg/errors"
	"igsource/pkg/logger"
)

// Graph API error codes that carry special meaning
const (
	graphCodeInvalidToken = 190
	graphCodeAppRateLimit = 4
	graphCodeUserLimit    = 17
	graphCodePageLimit    = 32
)

// Client represents an Instagram Graph API client
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a new Graph API client. An empty baseURL selects the
// public Graph API host.
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if baseURL == "" {
		baseURL = BaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent": "igsource/1.0",
			"Accept":     "application/json",
		},
		baseURL: baseURL,
		logger:  log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// BaseURL returns the Graph API host the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	safeURL := RedactURL(req.URL.String())
	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    safeURL,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		msg := redactError(err, req.URL.Query().Get("access_token"))
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      safeURL,
			"error":    msg,
			"duration": duration,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: msg,
		}
	}

	logger.LogRequest(c.logger, req.Method, safeURL, resp.StatusCode, float64(duration.Milliseconds()))
	return resp, nil
}

// redactError renders err without the access token. Transport errors carry
// the full request URL, so it is rebuilt from the redacted form.
func redactError(err error, token string) string {
	msg := err.Error()
	var ue *neturl.Error
	if stderrors.As(err, &ue) {
		msg = fmt.Sprintf("%s %s: %v", ue.Op, RedactURL(ue.URL), ue.Err)
	}
	if token != "" {
		msg = strings.ReplaceAll(msg, token, "REDACTED")
	}
	return msg
}

// get performs a GET request bound to ctx
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: "failed to create request: " + redactError(err, ""),
		}
	}

	return c.doRequest(req)
}

// GetJSON performs a GET request and decodes the JSON response
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := c.checkResponseStatus(resp, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          RedactURL(url),
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
		}
	}

	return nil
}

// checkResponseStatus maps a non-2xx response to a typed error. When the body
// is a Graph API error envelope its message is used verbatim.
func (c *Client) checkResponseStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	fields := map[string]interface{}{
		"status": resp.StatusCode,
	}
	if resp.Request != nil {
		fields["url"] = RedactURL(resp.Request.URL.String())
	}

	var envelope ErrorResponse
	if len(body) > 0 && json.Unmarshal(body, &envelope) == nil && envelope.Error != nil && envelope.Error.Message != "" {
		fields["graph_code"] = envelope.Error.Code
		fields["graph_type"] = envelope.Error.Type
		c.logger.WarnWithFields("graph API error", fields)

		return &errors.Error{
			Type:    classifyGraphError(resp.StatusCode, envelope.Error.Code, envelope.Error.Type),
			Message: envelope.Error.Message,
		}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", fields)
		return &errors.Error{
			Type:    errors.ErrorTypeAuth,
			Message: "authentication required",
			Code:    resp.StatusCode,
		}
	case http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		return &errors.Error{
			Type:    errors.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", fields)
		return &errors.Error{
			Type:    errors.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	}

	if resp.StatusCode >= 500 {
		c.logger.ErrorWithFields("server error", fields)
		return &errors.Error{
			Type:    errors.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	}

	c.logger.ErrorWithFields("unexpected API error", fields)
	return &errors.Error{
		Type:    errors.ErrorTypeAPI,
		Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		Code:    resp.StatusCode,
	}
}

func classifyGraphError(status, code int, errType string) errors.ErrorType {
	switch {
	case code == graphCodeInvalidToken || errType == "OAuthException" || status == http.StatusUnauthorized:
		return errors.ErrorTypeAuth
	case code == graphCodeAppRateLimit || code == graphCodeUserLimit || code == graphCodePageLimit || status == http.StatusTooManyRequests:
		return errors.ErrorTypeRateLimit
	case status == http.StatusNotFound:
		return errors.ErrorTypeNotFound
	case status >= 500:
		return errors.ErrorTypeServerError
	default:
		return errors.ErrorTypeAPI
	}
}

// FetchMedia requests one page of the authenticated user's media, at most
// limit entries
func (c *Client) FetchMedia(ctx context.Context, token string, limit int) (*MediaResponse, error) {
	url := GetMediaURL(c.baseURL, token, limit)

	c.logger.DebugWithFields("fetching media", map[string]interface{}{
		"limit": limit,
	})

	var response MediaResponse
	if err := c.GetJSON(ctx, url, &response); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("fetched media", map[string]interface{}{
		"count":    len(response.Data),
		"has_next": response.Paging != nil && response.Paging.Next != "",
	})

	return &response, nil
}

// RefreshAccessToken exchanges a long-lived token for a refreshed one
func (c *Client) RefreshAccessToken(ctx context.Context, token string) (*RefreshResponse, error) {
	url := GetRefreshURL(c.baseURL, token)

	var response RefreshResponse
	if err := c.GetJSON(ctx, url, &response); err != nil {
		return nil, err
	}

	if response.AccessToken == "" {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: "refresh response did not contain an access token",
		}
	}

	return &response, nil
}

// Download fetches the body at url. A positive maxBytes rejects larger
// bodies with an ErrorTypeTooLarge error.
func (c *Client) Download(ctx context.Context, url string, maxBytes int64) ([]byte, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, c.checkResponseStatus(resp, body)
	}

	if maxBytes > 0 && resp.ContentLength > maxBytes {
		return nil, tooLarge(url, resp.ContentLength, maxBytes)
	}

	reader := io.Reader(resp.Body)
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		c.logger.ErrorWithFields("failed to read download body", map[string]interface{}{
			"url":   RedactURL(url),
			"error": err.Error(),
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read body: %v", err),
		}
	}

	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, tooLarge(url, int64(len(data)), maxBytes)
	}

	c.logger.DebugWithFields("downloaded file", map[string]interface{}{
		"url":  RedactURL(url),
		"size": len(data),
	})

	return data, nil
}

func tooLarge(url string, size, limit int64) error {
	return &errors.Error{
		Type:    errors.ErrorTypeTooLarge,
		Message: fmt.Sprintf("file %s exceeds maximum size (%d > %d bytes)", RedactURL(url), size, limit),
	}
}
