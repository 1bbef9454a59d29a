package resilience

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// HTTPClient wraps an http.Client with retry, per-attempt timeout, and
// circuit-breaker logic. Request bodies are buffered so attempts can replay
// them.
type HTTPClient struct {
	Client      *http.Client
	Breaker     *Breaker
	BaseBackoff time.Duration
	MaxAttempts int
	Jitter      float64
	Timeout     time.Duration
}

// Do executes the request with retry semantics. A 5xx response counts as a
// failure and is retried; the final response or error is returned as-is.
func (cl HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if cl.Client == nil {
		return nil, errors.New("resilience: http client not configured")
	}
	breaker := cl.Breaker
	if breaker == nil {
		breaker = NewBreaker(1, 1, time.Second)
	}
	maxAttempts := cl.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	body, err := bufferBody(req)
	if err != nil {
		return nil, err
	}

	var (
		lastResp *http.Response
		lastErr  error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if !breaker.Allow() {
			if lastResp != nil {
				return lastResp, nil
			}
			return nil, ErrOpenCircuit
		}
		attemptReq := cloneRequest(ctx, req, body)
		resp, err := cl.doOnce(ctx, attemptReq)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			breaker.Report(true)
			return resp, nil
		}
		breaker.Report(false)
		if err != nil {
			lastErr = err
			lastResp = nil
		} else {
			lastErr = errors.New(resp.Status)
			lastResp = resp
		}
		if attempt == maxAttempts {
			break
		}
		if lastResp != nil {
			// drain before retrying so the connection can be reused
			_, _ = io.Copy(io.Discard, lastResp.Body)
			_ = lastResp.Body.Close()
			lastResp = nil
		}
		timer := time.NewTimer(Backoff(cl.BaseBackoff, attempt, cl.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if lastResp != nil {
		return lastResp, nil
	}
	return nil, lastErr
}

func (cl HTTPClient) doOnce(_ context.Context, req *http.Request) (*http.Response, error) {
	client := cl.Client
	if cl.Timeout > 0 && client.Timeout != cl.Timeout {
		// http.Client.Timeout spans the body read too, so a per-attempt
		// deadline does not cut off the caller mid-decode.
		clone := *client
		clone.Timeout = cl.Timeout
		client = &clone
	}
	return client.Do(req)
}

func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	_ = req.Body.Close()
	return data, nil
}

func cloneRequest(ctx context.Context, req *http.Request, body []byte) *http.Request {
	clone := req.Clone(ctx)
	if body != nil {
		clone.Body = io.NopCloser(bytes.NewReader(body))
		clone.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		clone.ContentLength = int64(len(body))
	}
	return clone
}
