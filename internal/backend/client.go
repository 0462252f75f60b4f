// Package backend talks to the conformance analysis service that scores
// traces against a process model.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/michaelgrohs/ccviz/internal/common"
)

// Endpoint paths of the analysis service.
const (
	pathPing                 = "/ping"
	pathUpload               = "/upload"
	pathActivities           = "/api/bpmn-activities"
	pathUniqueSequences      = "/api/unique-sequences"
	pathTraceSequences       = "/api/trace-sequences"
	pathFitness              = "/api/fitness"
	pathConformanceBins      = "/api/conformance-bins"
	pathActivityDeviations   = "/api/activity-deviations"
	pathOutcomeDistribution  = "/api/outcome-distribution"
	pathAttributeConformance = "/api/conformance-by-event_attribute"
	pathPreload              = "/preload/"
)

// Sample dataset shipped with the service.
const (
	SampleModel = "Model_A_corrected.bpmn"
	SampleLog   = "BPIC12_Log_onlyA.csv"
)

// maxErrorBody caps how much of an error response is kept for messages.
const maxErrorBody = 512

// Client is an HTTP client for the analysis service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retry      common.RetryOptions
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetry sets the retry policy for idempotent and upload requests.
func WithRetry(opts common.RetryOptions) Option {
	return func(c *Client) {
		c.retry = opts
	}
}

// WithMaxAttempts overrides only the attempt limit of the retry policy. A
// non-positive n keeps the default.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retry.MaxAttempts = n
		}
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		retry: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping wakes the service and reports how long it took to answer. Hosted
// instances sleep when idle, so the first ping can take most of a minute.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathPing, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return time.Since(start), fmt.Errorf("%w: %w", common.ErrBackendUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if err := checkStatus(resp); err != nil {
		return time.Since(start), err
	}
	return time.Since(start), nil
}

// File is one named file sent to the service.
type File struct {
	Name    string
	Content []byte
}

// Upload sends the process model and event log for analysis.
func (c *Client) Upload(ctx context.Context, model, log File) error {
	slog.Info("Uploading dataset",
		"model", model.Name,
		"log", log.Name,
		"log_bytes", len(log.Content))

	var result map[string]any
	err := c.do(ctx, func() (*http.Request, error) {
		body, contentType, err := multipartBody(map[string]File{"bpmn": model, "xes": log})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathUpload, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	}, &result)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	slog.Debug("Upload accepted", "response", result)
	return nil
}

// Activities returns the activity labels of a process model.
func (c *Client) Activities(ctx context.Context, model File) ([]string, error) {
	var resp struct {
		Activities []string `json:"activities"`
	}
	err := c.do(ctx, func() (*http.Request, error) {
		body, contentType, err := multipartBody(map[string]File{"bpmn": model})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathActivities, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list model activities: %w", err)
	}
	return resp.Activities, nil
}

// Preload downloads one of the sample files the service ships with.
func (c *Client) Preload(ctx context.Context, name string) (File, error) {
	var content []byte
	err := common.WithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathPreload+name, nil)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		resp, err := c.send(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		content, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrBackendUnavailable, err)
		}
		return nil
	}, c.retry)
	if err != nil {
		return File{}, fmt.Errorf("failed to download %s: %w", name, err)
	}
	return File{Name: name, Content: content}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	}, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, out)
}

// do sends a freshly built request until it succeeds or the retry policy
// gives up, then decodes the JSON response into out.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error), out any) error {
	return common.WithRetry(ctx, func() error {
		req, err := build()
		if err != nil {
			return &common.RetryableError{Err: fmt.Errorf("failed to create request: %w", err), Retryable: false}
		}

		resp, err := c.send(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &common.RetryableError{
				Err:       fmt.Errorf("%w: %s %s: %w", common.ErrBackendResponse, req.Method, req.URL.Path, err),
				Retryable: false,
			}
		}
		return nil
	}, c.retry)
}

// send performs one request and turns transport failures and error statuses
// into RetryableErrors.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	slog.Debug("Backend request", "method", req.Method, "path", req.URL.Path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, &common.RetryableError{Err: err, Retryable: false}
		}
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("%w: %w", common.ErrBackendUnavailable, err),
			Retryable: true,
		}
	}

	if err := checkStatus(resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))

	if resp.StatusCode == http.StatusTooManyRequests {
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %s %s: %s", common.ErrRateLimited, resp.Request.Method, resp.Request.URL.Path, msg),
			After:     parseRetryAfter(resp.Header.Get("Retry-After")),
			Retryable: true,
		}
	}
	if resp.StatusCode >= 500 {
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %s %s: %d %s", common.ErrBackendUnavailable, resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, msg),
			Retryable: true,
		}
	}
	return &common.RetryableError{
		Err:       fmt.Errorf("%w: %s %s: %d %s", common.ErrBackendResponse, resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, msg),
		Retryable: false,
	}
}

// parseRetryAfter reads a Retry-After header given in seconds. HTTP dates
// and malformed values yield 0, leaving the backoff to the retry policy.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func multipartBody(files map[string]File) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range []string{"bpmn", "xes"} {
		f, ok := files[field]
		if !ok {
			continue
		}
		part, err := w.CreateFormFile(field, f.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
