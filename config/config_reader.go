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

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bergx-io/bergx-sdk-go/clients/requests"
)

type lookupFunc func(key string) (string, bool)

// configReader reads keys from the environment first and then from file values,
// collecting every problem so they can be reported together
type configReader struct {
	lookupEnv  lookupFunc
	fileValues map[string]string
	errors     []error
}

func newConfigReader(lookupEnv lookupFunc, fileValues map[string]string) *configReader {
	return &configReader{lookupEnv: lookupEnv, fileValues: fileValues}
}

func (r *configReader) lookup(key string) (string, bool) {
	if value, ok := r.lookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), true
	}
	if value, ok := r.fileValues[key]; ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), true
	}
	return "", false
}

func (r *configReader) readRequiredString(key string) string {
	value, ok := r.lookup(key)
	if !ok {
		r.errors = append(r.errors, fmt.Errorf("%s is required", key))
		return ""
	}
	return value
}

func (r *configReader) readOptionalString(key, defaultValue string) string {
	if value, ok := r.lookup(key); ok {
		return value
	}
	return defaultValue
}

func (r *configReader) readOptionalInt64(key string, defaultValue int64) int64 {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		r.errors = append(r.errors, fmt.Errorf("%s must be an integer, got %q", key, value))
		return defaultValue
	}
	return parsed
}

func (r *configReader) readNullableInt64(key string) *int64 {
	value, ok := r.lookup(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		r.errors = append(r.errors, fmt.Errorf("%s must be an integer, got %q", key, value))
		return nil
	}
	return &parsed
}

func (r *configReader) readOptionalFloat64(key string, defaultValue float64) float64 {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.errors = append(r.errors, fmt.Errorf("%s must be a number, got %q", key, value))
		return defaultValue
	}
	return parsed
}

func (r *configReader) readOptionalBool(key string, defaultValue bool) bool {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		r.errors = append(r.errors, fmt.Errorf("%s must be a boolean, got %q", key, value))
		return defaultValue
	}
	return parsed
}

// readOptionalDuration accepts Go duration strings ("30s", "2m") or a bare number of seconds
func (r *configReader) readOptionalDuration(key string, defaultValue time.Duration) time.Duration {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		r.errors = append(r.errors, fmt.Errorf("%s must be a duration, got %q", key, value))
		return defaultValue
	}
	return parsed
}

func (r *configReader) err() error {
	if len(r.errors) == 0 {
		return nil
	}
	return fmt.Errorf("config.Load: invalid configuration: %w", errors.Join(r.errors...))
}

func (b BergxConfig) retryConfig() requests.RequestRetryConfig {
	rc := requests.RequestRetryConfig{
		RetryWaitMin:     b.RetryWaitMin,
		RetryWaitMax:     b.RetryWaitMax,
		RetryAttemptsMax: b.RetryAttemptsMax,
	}
	if b.RateLimitRPS > 0 {
		rc.RateLimit = rate.Limit(b.RateLimitRPS)
		rc.RateBurst = b.RateLimitBurst
	}
	return rc
}
