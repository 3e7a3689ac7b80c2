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
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func fastRetries(attempts int) RequestRetryConfig {
	return RequestRetryConfig{
		RetryWaitMin:     time.Millisecond,
		RetryWaitMax:     2 * time.Millisecond,
		RetryAttemptsMax: attempts,
	}
}

func TestRetryableHTTPClient_DefaultsToSingleAttempt(t *testing.T) {
	server, calls := countingServer(t, http.StatusServiceUnavailable)
	client := NewRetryableHTTPClient(nil)

	req := &HttpRequest{Name: "t", URL: server.URL, Method: http.MethodGet}
	err := SendRequest(context.Background(), client, req).CheckStatus()

	var httpErr *HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryableHTTPClient_RetriesTransientStatus(t *testing.T) {
	t.Run("retries until success and replays the body", func(t *testing.T) {
		server, calls := countingServer(t, http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusOK)
		client := NewRetryableHTTPClient(nil, fastRetries(3))

		req := &HttpRequest{Name: "t", URL: server.URL, Method: http.MethodPost}
		req.SetJson(map[string]string{"k": "v"})
		result := SendRequest(context.Background(), client, req)

		require.NoError(t, result.CheckStatus())
		assert.JSONEq(t, `{"k":"v"}`, string(result.Body()))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("returns the last response when attempts run out", func(t *testing.T) {
		server, calls := countingServer(t, http.StatusTooManyRequests)
		client := NewRetryableHTTPClient(nil, fastRetries(2))

		err := SendRequest(context.Background(), client, &HttpRequest{Name: "t", URL: server.URL}).CheckStatus()
		var httpErr *HttpError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("500 is retried for GET only", func(t *testing.T) {
		server, calls := countingServer(t, http.StatusInternalServerError, http.StatusOK)
		client := NewRetryableHTTPClient(nil, fastRetries(1))

		require.NoError(t, SendRequest(context.Background(), client, &HttpRequest{Name: "t", URL: server.URL, Method: http.MethodGet}).CheckStatus())
		assert.Equal(t, int32(2), calls.Load())

		postServer, postCalls := countingServer(t, http.StatusInternalServerError, http.StatusOK)
		err := SendRequest(context.Background(), client, &HttpRequest{Name: "t", URL: postServer.URL, Method: http.MethodPost}).CheckStatus()
		assert.Error(t, err)
		assert.Equal(t, int32(1), postCalls.Load())
	})

	t.Run("client errors are never retried", func(t *testing.T) {
		server, calls := countingServer(t, http.StatusBadRequest)
		client := NewRetryableHTTPClient(nil, fastRetries(3))

		assert.Error(t, SendRequest(context.Background(), client, &HttpRequest{Name: "t", URL: server.URL}).CheckStatus())
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("custom retry predicate is honoured", func(t *testing.T) {
		server, calls := countingServer(t, http.StatusConflict, http.StatusOK)
		cfg := fastRetries(1)
		cfg.RetryOnStatus = func(_ string, status int) bool { return status == http.StatusConflict }
		client := NewRetryableHTTPClient(nil, cfg)

		require.NoError(t, SendRequest(context.Background(), client, &HttpRequest{Name: "t", URL: server.URL}).CheckStatus())
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestRetryableHTTPClient_AttemptTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := NewRetryableHTTPClient(nil, RequestRetryConfig{AttemptTimeout: 20 * time.Millisecond})
	result := SendRequest(context.Background(), client, &HttpRequest{Name: "t", URL: server.URL})
	require.Error(t, result.Err())
}

func TestRetryableHTTPClient_RateLimit(t *testing.T) {
	server, calls := countingServer(t, http.StatusOK)
	client := NewRetryableHTTPClient(nil, RequestRetryConfig{RateLimit: 1, RateBurst: 1})

	require.NoError(t, SendRequest(context.Background(), client, &HttpRequest{Name: "t", URL: server.URL}).CheckStatus())

	// The bucket is empty, so the second request must wait longer than this deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	result := SendRequest(ctx, client, &HttpRequest{Name: "t", URL: server.URL})
	require.Error(t, result.Err())
	assert.True(t, strings.Contains(result.Err().Error(), "rate limit"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCalculateBackoff(t *testing.T) {
	min, max := 100*time.Millisecond, time.Second
	for attempt := 1; attempt <= 6; attempt++ {
		base := min * time.Duration(1<<uint(attempt-1))
		if base > max {
			base = max
		}
		for i := 0; i < 20; i++ {
			got := calculateBackoff(min, max, attempt)
			assert.GreaterOrEqual(t, got, base/2)
			assert.LessOrEqual(t, got, base)
		}
	}
}
