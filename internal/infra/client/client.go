// Package client wraps HTTP calls to the remote commerce API. It is pure
// transport mapping: typed requests out, typed responses in, malformed
// payloads rejected at this boundary. Business decisions live in the
// service layer.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/boddenberg/storefront-bff-go/internal/domain"
	"github.com/boddenberg/storefront-bff-go/internal/infra/observability"
	"github.com/boddenberg/storefront-bff-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// Client is the typed boundary to the commerce API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// New creates a commerce API client. All calls share one circuit breaker
// and one bulkhead: the storefront degrades as a whole when the upstream
// does.
func New(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	maxConc := cfg.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 1
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(maxConc),
		metrics:    metrics,
		logger:     logger,
	}
}

// doRequest executes one HTTP request against the commerce API and returns
// the status code and body. Only transport-level failures are errors here;
// non-2xx statuses are the caller's to interpret.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, headers map[string]string) (int, []byte, error) {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return 0, nil, err
	}
	defer c.bulkhead.Release()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("commerce: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("commerce: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
	} else {
		c.logger.Debug("commerce: request OK",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
	}

	return resp.StatusCode, respBody, nil
}

// getJSON runs an idempotent GET with retry + circuit breaker and decodes
// the 200 response into out. notFound, when non-nil, is returned for a 404.
func (c *Client) getJSON(ctx context.Context, service, path string, out any, notFound error) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			status, body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
			if err != nil {
				return err
			}
			switch {
			case status == http.StatusNotFound && notFound != nil:
				return notFound
			case status < 200 || status >= 300:
				return fmt.Errorf("commerce API returned status %d: %s", status, serverMessage(body))
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("malformed payload: %w", err)
			}
			return nil
		})
	})
	return c.wrapErr(service, err)
}

// mutate runs a non-idempotent request exactly once inside the circuit
// breaker. Business rejections (4xx) are mapped to typed errors but do not
// count as breaker failures; only transport failures and 5xx do.
func (c *Client) mutate(ctx context.Context, service, method, path string, body []byte, headers map[string]string, resource, resourceID string) ([]byte, error) {
	result, err := c.cb.Execute(func() (any, error) {
		status, respBody, err := c.doRequest(ctx, method, path, body, headers)
		if err != nil {
			return nil, err
		}
		if status >= 500 {
			return nil, fmt.Errorf("commerce API returned status %d: %s", status, serverMessage(respBody))
		}
		if status == http.StatusNotFound {
			return &domain.ErrNotFound{Resource: resource, ID: resourceID}, nil
		}
		if status >= 400 {
			return &domain.ErrRejected{Reason: serverMessage(respBody)}, nil
		}
		return respBody, nil
	})
	if err != nil {
		return nil, c.wrapErr(service, err)
	}
	if bizErr, ok := result.(error); ok {
		return nil, bizErr
	}
	respBody, _ := result.([]byte)
	return respBody, nil
}

// wrapErr maps low-level failures to the gateway error taxonomy. Typed
// business errors pass through untouched and are not counted as upstream
// failures.
func (c *Client) wrapErr(service string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.metrics.IncrExternalError(service)
		return &domain.ErrCircuitOpen{Service: service}
	}
	var notFound *domain.ErrNotFound
	var rejected *domain.ErrRejected
	if errors.As(err, &notFound) || errors.As(err, &rejected) {
		return err
	}
	c.metrics.IncrExternalError(service)
	return &domain.ErrExternalService{Service: service, Err: err}
}

// serverMessage extracts a human-readable reason from an upstream error
// body, which uses either {"error": ...} or {"message": ...}.
func serverMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return "no details provided"
}
