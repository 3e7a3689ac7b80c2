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
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return token
}

func liveToken(t *testing.T, sub string) string {
	return signToken(t, jwt.MapClaims{"sub": sub, "exp": testNow.Add(time.Hour).Unix()})
}

func expiredToken(t *testing.T, sub string) string {
	return signToken(t, jwt.MapClaims{"sub": sub, "exp": testNow.Add(-time.Hour).Unix()})
}

type recordedCall struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

func (c recordedCall) route() string {
	return c.Method + " " + c.Path
}

// fakeBergx is an in-memory Bergx service. Unregistered routes answer {"status":"ok"}.
type fakeBergx struct {
	mu     sync.Mutex
	calls  []recordedCall
	routes map[string]http.HandlerFunc

	clientToken string
	userToken   string
}

func newFakeBergx(t *testing.T) *fakeBergx {
	return &fakeBergx{
		routes:      map[string]http.HandlerFunc{},
		clientToken: liveToken(t, "client-app"),
		userToken:   liveToken(t, "user-1"),
	}
}

func (f *fakeBergx) handle(route string, handler http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = handler
}

func (f *fakeBergx) reply(route string, status int, body string) {
	f.handle(route, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (f *fakeBergx) recorded() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func (f *fakeBergx) routesCalled() []string {
	var routes []string
	for _, call := range f.recorded() {
		routes = append(routes, call.route())
	}
	return routes
}

func (f *fakeBergx) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	call := recordedCall{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	handler, ok := f.routes[call.route()]
	clientToken, userToken := f.clientToken, f.userToken
	f.mu.Unlock()

	if ok {
		handler(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch call.route() {
	case "POST /oauth/token":
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": clientToken})
	case "POST /oauth/refresh":
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": userToken})
	default:
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}
}

func (f *fakeBergx) start(t *testing.T) string {
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	return server.URL
}

func newTestClient(t *testing.T, host string, mutate ...func(cfg *Config)) *bergxClient {
	t.Helper()
	cfg := &Config{
		ClientID:     "c1",
		ClientSecret: "s1",
		Host:         host,
		Clock:        func() time.Time { return testNow },
	}
	for _, m := range mutate {
		m(cfg)
	}
	client, err := NewBergxClient(cfg)
	require.NoError(t, err)
	return client.(*bergxClient)
}

// roundTripFunc lets a test observe requests to hosts that do not exist
type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
