package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/crimson-sun/riskscan/internal/model"
)

// APIError represents a non-2xx response from the remote model.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Remote scores batches against an HTTP model server.
//
// Request:  {"features": [names...], "instances": [[...], ...]}
// Response: {"probabilities": [p0, p1, ...]}
type Remote struct {
	url        string
	token      string
	features   []string
	httpClient *http.Client
	maxRetries uint64
	backoff    time.Duration
}

// RemoteOption configures a Remote classifier.
type RemoteOption func(*Remote)

// WithToken sends a Bearer token with every request.
func WithToken(token string) RemoteOption {
	return func(r *Remote) { r.token = token }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) { r.httpClient = c }
}

// WithRetries sets the retry budget and the base of the exponential backoff.
func WithRetries(max uint64, base time.Duration) RemoteOption {
	return func(r *Remote) {
		r.maxRetries = max
		r.backoff = base
	}
}

// NewRemote creates a Remote posting to url. features names the vector
// columns and is sent with every request so the server can check order.
func NewRemote(url string, features []string, opts ...RemoteOption) *Remote {
	r := &Remote{
		url:        url,
		features:   append([]string(nil), features...),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type remoteRequest struct {
	Features  []string              `json:"features"`
	Instances []model.FeatureVector `json:"instances"`
}

type remoteResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

func (r *Remote) Classify(ctx context.Context, vec model.FeatureVector) (float64, error) {
	return single(r.ClassifyBatch(ctx, []model.FeatureVector{vec}))
}

// ClassifyBatch sends the batch in one request. Retries on transport
// errors, 429 and 5xx with exponential backoff (1s, 2s, 4s by default).
func (r *Remote) ClassifyBatch(ctx context.Context, vecs []model.FeatureVector) ([]float64, error) {
	if len(vecs) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(remoteRequest{Features: r.features, Instances: vecs})
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}

	var resp remoteResponse
	b := retry.WithMaxRetries(r.maxRetries, retry.NewExponential(r.backoff))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		return r.post(ctx, body, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	return resp.Probabilities, nil
}

func (r *Remote) post(ctx context.Context, body []byte, dest *remoteResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return retry.RetryableError(err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return retry.RetryableError(err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.Unmarshal(data, dest); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	bodyStr := string(data)
	if len(bodyStr) > 512 {
		bodyStr = bodyStr[:512]
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: bodyStr}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return retry.RetryableError(apiErr)
	}
	return apiErr
}

// Close is a no-op; idle connections belong to the HTTP client.
func (r *Remote) Close() error { return nil }
