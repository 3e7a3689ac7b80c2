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

package idp

import (
	"errors"
	"fmt"

	"github.com/bergx-io/bergx-sdk-go/clients/requests"
	"github.com/bergx-io/bergx-sdk-go/utils"
)

// RefreshError reports a failed refresh-token exchange. Callers must treat it as
// "refresh token invalid" and re-authenticate the end user.
type RefreshError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RefreshError) Error() string {
	return formatExchangeError("refresh token exchange failed", e.StatusCode, e.Body, e.Err)
}

func (e *RefreshError) Is(target error) bool { return target == utils.ErrRefreshFailed }

func (e *RefreshError) Unwrap() error { return e.Err }

// ClientAuthError reports a failed client-credentials exchange.
type ClientAuthError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ClientAuthError) Error() string {
	return formatExchangeError("client credentials exchange failed", e.StatusCode, e.Body, e.Err)
}

func (e *ClientAuthError) Is(target error) bool { return target == utils.ErrClientAuth }

func (e *ClientAuthError) Unwrap() error { return e.Err }

func formatExchangeError(prefix string, status int, body string, err error) string {
	switch {
	case status != 0 && err != nil:
		return fmt.Sprintf("%s: status %d: %v: %s", prefix, status, err, body)
	case status != 0:
		return fmt.Sprintf("%s: status %d: %s", prefix, status, body)
	case err != nil:
		return fmt.Sprintf("%s: %v", prefix, err)
	default:
		return prefix
	}
}

// splitExchangeFailure separates an HTTP status failure from a transport failure.
func splitExchangeFailure(err error) (int, string, error) {
	var httpErr *requests.HttpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, httpErr.Body, nil
	}
	return 0, "", err
}
