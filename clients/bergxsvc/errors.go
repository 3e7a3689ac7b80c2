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

package bergxsvc

import (
	"fmt"
	"strings"

	"github.com/bergx-io/bergx-sdk-go/utils"
)

// AuthenticationRequiredError means the user's refresh token could not be exchanged.
// The end user must re-authenticate out-of-band; the SDK does not retry.
type AuthenticationRequiredError struct {
	Err error
}

func (e *AuthenticationRequiredError) Error() string {
	return fmt.Sprintf("%s: refresh token is invalid: %v", utils.ErrAuthenticationRequired, e.Err)
}

func (e *AuthenticationRequiredError) Is(target error) bool {
	return target == utils.ErrAuthenticationRequired
}

func (e *AuthenticationRequiredError) Unwrap() error { return e.Err }

// RequestFailedError reports a business call that returned a non-2xx status, could not be
// sent, or returned an undecodable body. Body is the raw response body.
type RequestFailedError struct {
	Route      string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestFailedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Route, utils.ErrRequestFailed)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	return b.String()
}

func (e *RequestFailedError) Is(target error) bool { return target == utils.ErrRequestFailed }

func (e *RequestFailedError) Unwrap() error { return e.Err }

// CompletionWaitError means the mutation was accepted by the service but its completion
// could not be confirmed. The decoded business result is still returned alongside it.
// Err holds the events call failure. It is not unwrapped: a CompletionWaitError must never
// match ErrRequestFailed.
type CompletionWaitError struct {
	EventIDs []string
	Err      error
}

func (e *CompletionWaitError) Error() string {
	return fmt.Sprintf("%s for events %v: %v", utils.ErrCompletionWaitFailed, e.EventIDs, e.Err)
}

func (e *CompletionWaitError) Is(target error) bool {
	return target == utils.ErrCompletionWaitFailed
}
