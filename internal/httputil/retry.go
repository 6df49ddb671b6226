// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for clients of remote APIs.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// RetryBaseDelay is the first backoff step when the server sends no
// Retry-After header. Tests override it to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxRetryDelay caps a single wait, including server-requested ones.
var MaxRetryDelay = 2 * time.Minute

const defaultMaxRetries = 5

// Retryable reports whether status is worth retrying: 429 Too Many
// Requests and 503 Service Unavailable.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// DoWithRetry executes req and retries on 429 and 503 answers. The wait
// honours Retry-After (seconds or HTTP date) and otherwise doubles from
// RetryBaseDelay. Request bodies are replayed through req.GetBody.
//
// When maxRetries is 0 the default (5) is used. If ctx is cancelled during
// a wait, ctx.Err() is returned. After the last retry the final response is
// returned unread so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		r := req.Clone(ctx)
		if attempt > 0 && req.Body != nil && req.Body != http.NoBody {
			if req.GetBody == nil {
				return nil, fmt.Errorf("cannot retry %s %s: request body is not replayable", req.Method, req.URL.Path)
			}
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("replaying request body: %w", err)
			}
			r.Body = body
		}

		resp, err := client.Do(r)
		if err != nil {
			return nil, err
		}
		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := retryAfter(resp.Header.Get("Retry-After"), time.Now())
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		}
		if wait > MaxRetryDelay {
			wait = MaxRetryDelay
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		log.WithFields(log.Fields{
			"method":  req.Method,
			"path":    req.URL.Path,
			"status":  resp.StatusCode,
			"wait":    wait,
			"attempt": attempt + 1,
		}).Debug("Retrying request")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// retryAfter parses a Retry-After value relative to now. It returns 0 when
// the header is absent or unparseable.
func retryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
