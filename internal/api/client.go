package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorCode classifies a gateway failure by origin, not by transport
// exception type.
type ErrorCode string

const (
	// ErrCodeNetwork means no response was received at all.
	ErrCodeNetwork ErrorCode = "network"
	// ErrCodeServer is the 5xx class.
	ErrCodeServer ErrorCode = "server"
	// ErrCodeAuth is a 401; the stored token is invalidated before the
	// error is returned.
	ErrCodeAuth ErrorCode = "auth"
	// ErrCodeValidation is the remaining 4xx class, carrying the
	// server-supplied message.
	ErrCodeValidation ErrorCode = "validation"
)

// APIError is the normalized shape every gateway failure is reduced to
// before it reaches the draft store. Raw transport errors never cross
// the gateway boundary.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsAPIError unwraps err to an *APIError if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// TokenStore supplies the bearer token and accepts invalidation when
// the backend reports the session expired.
type TokenStore interface {
	AuthToken() string
	ClearAuthToken()
}

// Client is the HTTP core shared by the drafts, pipeline and publish
// services. CRUD calls use the short timeout; transcription and the
// fused process-voice call use the long one, reflecting backend
// processing latency.
type Client struct {
	baseURL    string
	tokens     TokenStore
	httpClient *http.Client
	aiClient   *http.Client
	log        *logrus.Entry
}

// NewClient creates a gateway client against baseURL. crudTimeout
// bounds ordinary CRUD calls, aiTimeout bounds transcription and fused
// processing.
func NewClient(baseURL string, tokens TokenStore, crudTimeout, aiTimeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: crudTimeout},
		aiClient:   &http.Client{Timeout: aiTimeout},
		log:        logrus.WithField("component", "api"),
	}
}

// Drafts returns the remote draft gateway.
func (c *Client) Drafts() *DraftsService { return &DraftsService{client: c} }

// Pipeline returns the AI pipeline gateway.
func (c *Client) Pipeline() *PipelineService { return &PipelineService{client: c} }

// Publish returns the publishing gateway.
func (c *Client) Publish() *PublishService { return &PublishService{client: c} }

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doJSON issues a JSON request and decodes the response into out when
// out is non-nil. Body may be nil for bodyless requests.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(c.httpClient, req, out)
}

// doMultipart uploads a file part plus form fields, decoding the
// response into out. Used by the audio and media upload endpoints; the
// long-timeout client carries it when ai is true.
func (c *Client) doMultipart(ctx context.Context, path string, fileField, fileName string, file io.Reader, fields map[string]string, ai bool, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(fileField, fileName)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy upload body: %w", err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	httpClient := c.httpClient
	if ai {
		httpClient = c.aiClient
	}
	return c.do(httpClient, req, out)
}

func (c *Client) do(httpClient *http.Client, req *http.Request, out interface{}) error {
	if token := c.tokens.AuthToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return &APIError{Code: ErrCodeNetwork, Message: humanNetworkError(err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Code: ErrCodeNetwork, Message: "failed to read response body"}
	}

	if apiErr := c.classifyStatus(resp.StatusCode, respBody); apiErr != nil {
		c.log.WithFields(logrus.Fields{
			"method": req.Method,
			"path":   req.URL.Path,
			"status": resp.StatusCode,
		}).Warn(apiErr.Message)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &APIError{Code: ErrCodeServer, Message: "malformed response from server"}
	}
	return nil
}

// classifyStatus maps HTTP status codes onto the error taxonomy. A 401
// invalidates the stored token so the caller lands back on the login
// flow rather than retrying with a dead session.
func (c *Client) classifyStatus(status int, body []byte) *APIError {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		c.tokens.ClearAuthToken()
		return &APIError{Code: ErrCodeAuth, Message: "session expired, please sign in again"}
	case status >= 500:
		return &APIError{Code: ErrCodeServer, Message: fmt.Sprintf("server error (status %d)", status)}
	default:
		return &APIError{Code: ErrCodeValidation, Message: serverMessage(body, status)}
	}
}

// serverMessage extracts the server-supplied message from a 4xx body,
// falling back to a generic line when the body is not the expected
// shape.
func serverMessage(body []byte, status int) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return fmt.Sprintf("request rejected (status %d)", status)
}

func humanNetworkError(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "request timed out"
	}
	return "could not reach server"
}
