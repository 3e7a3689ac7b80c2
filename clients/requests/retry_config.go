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
	"net/http"
	"slices"
	"time"

	"golang.org/x/time/rate"
)

// Retries are opt-in: a zero RetryAttemptsMax sends each request once.
const (
	DefaultRetryWaitMin     = 1 * time.Second
	DefaultRetryWaitMax     = 10 * time.Second
	DefaultRetryAttemptsMax = 0
	DefaultAttemptTimeout   = 30 * time.Second
)

// RetryableStatusCodes are retried for every method once retries are enabled.
var RetryableStatusCodes = []int{
	http.StatusTooManyRequests,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// IdempotentRetryableStatusCodes additionally cover 500 for GET and DELETE, which the
// Bergx API treats as safe to repeat.
var IdempotentRetryableStatusCodes = append([]int{http.StatusInternalServerError}, RetryableStatusCodes...)

// RequestRetryConfig holds configuration for HTTP request retry behavior
type RequestRetryConfig struct {
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RetryAttemptsMax is the maximum number of retries to attempt. 0 for no retries.
	RetryAttemptsMax int
	// AttemptTimeout is the maximum time allowed for a single request attempt.
	AttemptTimeout time.Duration
	// RetryOnStatus is a function that returns true if the request should be retried based on the status code.
	RetryOnStatus func(method string, status int) bool
	// RateLimit caps outbound requests per second. Zero disables limiting.
	RateLimit rate.Limit
	// RateBurst is the limiter bucket size; defaults to 1 when RateLimit is set.
	RateBurst int
}

func (cfg RequestRetryConfig) withDefaults() RequestRetryConfig {
	if cfg.RetryWaitMin == 0 {
		cfg.RetryWaitMin = DefaultRetryWaitMin
	}
	if cfg.RetryWaitMax == 0 {
		cfg.RetryWaitMax = DefaultRetryWaitMax
	}
	if cfg.RetryAttemptsMax < 0 {
		cfg.RetryAttemptsMax = DefaultRetryAttemptsMax
	}
	if cfg.AttemptTimeout == 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.RetryOnStatus == nil {
		cfg.RetryOnStatus = defaultRetryOnStatus
	}
	if cfg.RateLimit > 0 && cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}
	return cfg
}

func defaultRetryOnStatus(method string, status int) bool {
	switch method {
	case http.MethodGet, http.MethodDelete:
		return slices.Contains(IdempotentRetryableStatusCodes, status)
	default:
		return slices.Contains(RetryableStatusCodes, status)
	}
}
