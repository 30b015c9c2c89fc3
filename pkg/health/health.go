// Package health serves readiness probes and waits for them to pass.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/iohelper"
)

// Common errors
var (
	ErrTimeout   = errors.New("health check timed out")
	ErrUnhealthy = errors.New("endpoint is unhealthy")
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// ---------------------------------------------------------------------------
// Server side
// ---------------------------------------------------------------------------

// Readiness is a flag flipped once startup has finished. The zero value is
// not ready.
type Readiness struct {
	ready atomic.Bool
}

// MarkReady signals that startup validation passed.
func (r *Readiness) MarkReady() { r.ready.Store(true) }

// IsReady returns true once MarkReady was called.
func (r *Readiness) IsReady() bool { return r.ready.Load() }

// Handler serves a readiness/liveness probe for service. It answers 200
// once r is ready and 503 before that. Only GET and HEAD are allowed.
func Handler(service string, r *Readiness) http.Handler {
	ok := fmt.Sprintf(`{"status":"ok","service":%q}`, service)
	starting := fmt.Sprintf(`{"status":"starting","service":%q}`, service)

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", defaults.ContentTypeJSON)
		w.Header().Set("Cache-Control", "no-store")
		if !r.IsReady() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(starting))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(ok))
	})
}

// ---------------------------------------------------------------------------
// Client side
// ---------------------------------------------------------------------------

// Result represents a health check result
type Result struct {
	Endpoint   string        `json:"endpoint"`
	Status     Status        `json:"status"`
	StatusCode int           `json:"status_code,omitempty"`
	Latency    time.Duration `json:"latency"`
	Message    string        `json:"message,omitempty"`
	Body       string        `json:"body,omitempty"`
	Attempts   int           `json:"attempts"`
}

// IsHealthy returns true if the result indicates healthy status
func (r *Result) IsHealthy() bool {
	return r.Status == StatusHealthy
}

// Check defines one HTTP probe.
type Check struct {
	Endpoint       string
	ExpectedStatus int
	ExpectedBody   string
	Timeout        time.Duration
}

func (c *Check) applyDefaults() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if c.ExpectedStatus == 0 {
		c.ExpectedStatus = http.StatusOK
	}
	if c.Timeout == 0 {
		c.Timeout = 2 * time.Second
	}
	return nil
}

// Checker performs health checks
type Checker struct {
	httpClient *http.Client
}

// NewChecker creates a checker. A nil client gets a plain one.
func NewChecker(client *http.Client) *Checker {
	if client == nil {
		client = &http.Client{}
	}
	return &Checker{httpClient: client}
}

// CheckOne performs a single probe. Transport failures produce an
// unhealthy Result, not an error.
func (c *Checker) CheckOne(ctx context.Context, check Check) (*Result, error) {
	if err := check.applyDefaults(); err != nil {
		return nil, err
	}

	result := &Result{Endpoint: check.Endpoint, Status: StatusUnknown, Attempts: 1}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, check.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, check.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", defaults.UserAgent("health"))

	resp, err := c.httpClient.Do(req)
	result.Latency = time.Since(start)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("request failed: %v", err)
		return result, nil
	}
	defer iohelper.DrainAndClose(resp.Body)

	body, _ := iohelper.ReadBody(resp.Body, iohelper.SmallMaxBodySize)
	result.StatusCode = resp.StatusCode
	result.Body = string(body)

	if resp.StatusCode != check.ExpectedStatus {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("unexpected status code: %d, expected: %d", resp.StatusCode, check.ExpectedStatus)
		return result, nil
	}
	if check.ExpectedBody != "" && !strings.Contains(result.Body, check.ExpectedBody) {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("body does not contain expected string: %s", check.ExpectedBody)
		return result, nil
	}

	result.Status = StatusHealthy
	result.Message = "OK"
	return result, nil
}

// WaitFor polls endpoint until it answers 200 or timeout elapses.
func WaitFor(ctx context.Context, endpoint string, timeout time.Duration) error {
	return NewChecker(nil).Wait(ctx, Check{Endpoint: endpoint}, timeout, 100*time.Millisecond)
}

// Wait polls check every interval until it is healthy.
func (c *Checker) Wait(ctx context.Context, check Check, timeout, interval time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var last *Result
	for attempt := 1; ; attempt++ {
		res, err := c.CheckOne(ctx, check)
		if err != nil {
			return err
		}
		res.Attempts = attempt
		if res.IsHealthy() {
			return nil
		}
		last = res

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w after %d attempts: %s", ErrTimeout, last.Attempts, last.Message)
			}
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
