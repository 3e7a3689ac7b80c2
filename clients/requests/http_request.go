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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"

	ContentTypeJSON = "application/json"
)

// HttpRequest describes an outbound call before it is turned into an *http.Request.
// Name is used only for logging and error messages.
type HttpRequest struct {
	Name   string
	URL    string
	Method string

	headers  http.Header
	jsonBody any
	hasJSON  bool
}

func (r *HttpRequest) SetHeader(key, value string) {
	if r.headers == nil {
		r.headers = http.Header{}
	}
	r.headers.Set(key, value)
}

func (r *HttpRequest) Header(key string) string {
	if r.headers == nil {
		return ""
	}
	return r.headers.Get(key)
}

// SetBearerToken sets the Authorization header for a bearer credential.
func (r *HttpRequest) SetBearerToken(token string) {
	r.SetHeader(HeaderAuthorization, "Bearer "+token)
}

// SetJson marks body to be JSON encoded when the request is built.
// A nil body leaves the request without a payload.
func (r *HttpRequest) SetJson(body any) {
	if body == nil {
		r.jsonBody, r.hasJSON = nil, false
		return
	}
	r.jsonBody = body
	r.hasJSON = true
}

func (r *HttpRequest) buildHttpRequest(ctx context.Context) (*http.Request, error) {
	if r.URL == "" {
		return nil, fmt.Errorf("request url is empty")
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if r.hasJSON {
		payload, err := json.Marshal(r.jsonBody)
		if err != nil {
			return nil, fmt.Errorf("failed to encode json body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, err
	}
	for key, values := range r.headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if r.hasJSON && httpReq.Header.Get(HeaderContentType) == "" {
		httpReq.Header.Set(HeaderContentType, ContentTypeJSON)
	}
	return httpReq, nil
}
