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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/bergx-io/bergx-sdk-go/middleware/logger"
)

// HttpClient interface for making HTTP requests.
// Use RetryableHTTPClient for retry support.
type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time check that http.Client implements HttpClient
var _ HttpClient = (*http.Client)(nil)

// HttpError is returned when the response status is not an accepted success status.
// Body holds the raw response body.
type HttpError struct {
	StatusCode int
	Body       string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// SendRequest builds and sends an HTTP request, returning a Result for response handling.
func SendRequest(ctx context.Context, client HttpClient, req *HttpRequest) *Result {
	log := logger.GetLogger(ctx).With(slog.String("request", req.Name))

	if req.Header(HeaderRequestID) == "" {
		req.SetHeader(HeaderRequestID, uuid.NewString())
	}
	httpReq, err := req.buildHttpRequest(ctx)
	if err != nil {
		return &Result{err: fmt.Errorf("failed to build http request: %w", err)}
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		log.Debug("request failed", slog.String("error", err.Error()))
		return &Result{err: fmt.Errorf("request failed: %w", err)}
	}

	// Read response body and close immediately to avoid resource leaks
	respBody, err := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if closeErr != nil {
		log.Warn("failed to close response body", slog.String("error", closeErr.Error()))
	}
	if err != nil {
		return &Result{err: fmt.Errorf("failed to read response body: %w", err)}
	}
	log.Debug("request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.String("requestId", req.Header(HeaderRequestID)))

	return &Result{response: resp, responseBody: respBody}
}

// Result holds the response from SendRequest.
type Result struct {
	responseBody []byte
	response     *http.Response
	err          error
}

// Err returns the transport-level error, if any.
func (r *Result) Err() error {
	return r.err
}

func (r *Result) StatusCode() int {
	if r.response == nil {
		return 0
	}
	return r.response.StatusCode
}

func (r *Result) Body() []byte {
	return r.responseBody
}

// CheckStatus returns the transport error, or an *HttpError when the status is not accepted.
// With no successStatus given any 2xx status is accepted.
func (r *Result) CheckStatus(successStatus ...int) error {
	if r.err != nil {
		return r.err
	}
	if r.response == nil {
		return fmt.Errorf("unexpected nil response")
	}
	if !statusAccepted(r.response.StatusCode, successStatus) {
		return &HttpError{
			StatusCode: r.response.StatusCode,
			Body:       string(r.responseBody),
		}
	}
	return nil
}

// ScanResponse unmarshals the response body into the provided struct if status matches.
// An empty body leaves the target untouched.
func (r *Result) ScanResponse(body any, successStatus ...int) error {
	if err := r.CheckStatus(successStatus...); err != nil {
		return err
	}
	if body == nil || reflect.ValueOf(body).Kind() != reflect.Ptr {
		return fmt.Errorf("non-nil pointer expected for decoding response body")
	}
	if len(r.responseBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.responseBody, body); err != nil {
		return fmt.Errorf("failed to decode response body for status %d: %w", r.response.StatusCode, err)
	}
	return nil
}

func statusAccepted(status int, accepted []int) bool {
	if len(accepted) == 0 {
		return status >= http.StatusOK && status < http.StatusMultipleChoices
	}
	return slices.Contains(accepted, status)
}
