// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package requests

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// RetryableHTTPClient wraps an *http.Client with go-retryablehttp and an optional rate limiter.
// With the default config it performs exactly one attempt per request.
type RetryableHTTPClient struct {
	client  *retryablehttp.Client
	limiter *rate.Limiter
	config  RequestRetryConfig
}

var _ HttpClient = (*RetryableHTTPClient)(nil)

// NewRetryableHTTPClient creates a new RetryableHTTPClient.
// Config is optional - defaults will be used if not provided.
func NewRetryableHTTPClient(client *http.Client, config ...RequestRetryConfig) *RetryableHTTPClient {
	var cfg RequestRetryConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	cfg = cfg.withDefaults()

	base := &http.Client{}
	if client != nil {
		copied := *client
		base = &copied
	}
	if base.Timeout == 0 {
		base.Timeout = cfg.AttemptTimeout
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = base
	rc.Logger = slog.Default()
	rc.RetryWaitMin = cfg.RetryWaitMin
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.RetryMax = cfg.RetryAttemptsMax
	rc.CheckRetry = checkRetry(cfg)
	rc.Backoff = func(min, max time.Duration, attemptNum int, _ *http.Response) time.Duration {
		return calculateBackoff(min, max, attemptNum+1)
	}
	// Hand the last response back untouched so callers can surface the body verbatim.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &RetryableHTTPClient{client: rc, config: cfg}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(cfg.RateLimit, cfg.RateBurst)
	}
	return c
}

// Do executes the HTTP request with retry logic.
func (c *RetryableHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	retryReq, err := retryablehttp.FromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return c.client.Do(retryReq)
}

func checkRetry(cfg RequestRetryConfig) retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}
		method := http.MethodGet
		if resp.Request != nil {
			method = resp.Request.Method
		}
		return cfg.RetryOnStatus(method, resp.StatusCode), nil
	}
}

// calculateBackoff returns an exponential backoff duration with jitter, capped by max.
// Uses "equal jitter" strategy: base/2 + random(0, base/2), giving a range of [base/2, base].
func calculateBackoff(min, max time.Duration, attempt int) time.Duration {
	// Calculate base exponential backoff: 2^(attempt-1) * min
	base := min * time.Duration(1<<uint(attempt-1))
	if base > max || base <= 0 {
		base = max
	}
	halfBase := base / 2
	if halfBase <= 0 {
		return base
	}
	return halfBase + time.Duration(rand.Int64N(int64(halfBase)))
}
