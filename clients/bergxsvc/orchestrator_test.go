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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bergx-io/bergx-sdk-go/metrics"
	"github.com/bergx-io/bergx-sdk-go/utils"
)

func TestOrchestrator_EnsureUserToken(t *testing.T) {
	t.Run("live access token is returned without network calls", func(t *testing.T) {
		fake := newFakeBergx(t)
		var refreshed []RefreshedCredential
		client := newTestClient(t, fake.start(t), func(cfg *Config) {
			cfg.RefreshHandler = CredentialRefreshFunc(func(_ context.Context, cred RefreshedCredential) {
				refreshed = append(refreshed, cred)
			})
		})
		token := liveToken(t, "user-1")

		got, err := client.EnsureUserToken(context.Background(), UserCredential{AccessToken: token, RefreshToken: "r1"})
		require.NoError(t, err)
		assert.Equal(t, token, got)
		assert.Empty(t, fake.recorded())
		assert.Empty(t, refreshed)
	})

	t.Run("expired access token is refreshed once and reported once", func(t *testing.T) {
		fake := newFakeBergx(t)
		var refreshed []RefreshedCredential
		client := newTestClient(t, fake.start(t), func(cfg *Config) {
			cfg.RefreshHandler = CredentialRefreshFunc(func(_ context.Context, cred RefreshedCredential) {
				refreshed = append(refreshed, cred)
			})
		})

		got, err := client.EnsureUserToken(context.Background(), UserCredential{
			AccessToken:  expiredToken(t, "user-1"),
			RefreshToken: "r1",
		})
		require.NoError(t, err)
		assert.Equal(t, fake.userToken, got)
		assert.Equal(t, []string{"POST /oauth/refresh"}, fake.routesCalled())

		require.Len(t, refreshed, 1)
		assert.Equal(t, RefreshedCredential{UserSub: "user-1", AccessToken: fake.userToken, RefreshToken: "r1"}, refreshed[0])

		var body map[string]string
		require.NoError(t, json.Unmarshal([]byte(fake.recorded()[0].Body), &body))
		assert.Equal(t, "refresh_token", body["grant_type"])
		assert.Equal(t, "r1", body["refresh_token"])
		assert.Equal(t, "c1", body["client_id"])
		assert.Equal(t, "s1", body["client_secret"])
	})

	t.Run("absent access token is refreshed", func(t *testing.T) {
		fake := newFakeBergx(t)
		client := newTestClient(t, fake.start(t))

		got, err := client.EnsureUserToken(context.Background(), UserCredential{RefreshToken: "r1"})
		require.NoError(t, err)
		assert.Equal(t, fake.userToken, got)
		assert.Len(t, fake.recorded(), 1)
	})

	t.Run("missing refresh token requires authentication without network calls", func(t *testing.T) {
		fake := newFakeBergx(t)
		client := newTestClient(t, fake.start(t))

		_, err := client.EnsureUserToken(context.Background(), UserCredential{AccessToken: expiredToken(t, "user-1")})
		assert.True(t, errors.Is(err, utils.ErrAuthenticationRequired))
		assert.Empty(t, fake.recorded())
	})

	t.Run("rejected refresh requires authentication and is not reported", func(t *testing.T) {
		fake := newFakeBergx(t)
		fake.reply("POST /oauth/refresh", http.StatusUnauthorized, `{"error":"invalid_grant"}`)
		called := false
		client := newTestClient(t, fake.start(t), func(cfg *Config) {
			cfg.RefreshHandler = CredentialRefreshFunc(func(context.Context, RefreshedCredential) { called = true })
		})

		_, err := client.EnsureUserToken(context.Background(), UserCredential{RefreshToken: "revoked"})
		var authErr *AuthenticationRequiredError
		require.True(t, errors.As(err, &authErr))
		assert.True(t, errors.Is(err, utils.ErrRefreshFailed))
		assert.Contains(t, err.Error(), "invalid_grant")
		assert.False(t, called)
		assert.Len(t, fake.recorded(), 1)
	})
}

func TestOrchestrator_EnsureClientToken(t *testing.T) {
	t.Run("second call reuses the cached token", func(t *testing.T) {
		fake := newFakeBergx(t)
		client := newTestClient(t, fake.start(t))

		first, err := client.EnsureClientToken(context.Background())
		require.NoError(t, err)
		second, err := client.EnsureClientToken(context.Background())
		require.NoError(t, err)

		assert.Equal(t, fake.clientToken, first)
		assert.Equal(t, first, second)
		assert.Equal(t, []string{"POST /oauth/token"}, fake.routesCalled())
	})

	t.Run("failed exchange is a client auth error", func(t *testing.T) {
		fake := newFakeBergx(t)
		fake.reply("POST /oauth/token", http.StatusUnauthorized, `bad client`)
		client := newTestClient(t, fake.start(t))

		_, err := client.GetSwitches(context.Background())
		assert.True(t, errors.Is(err, utils.ErrClientAuth))
		assert.False(t, errors.Is(err, utils.ErrRequestFailed))
		assert.Equal(t, []string{"POST /oauth/token"}, fake.routesCalled())
	})
}

func TestOrchestrator_Dispatch(t *testing.T) {
	t.Run("client scope sends the client bearer token", func(t *testing.T) {
		fake := newFakeBergx(t)
		client := newTestClient(t, fake.start(t))

		var out map[string]any
		err := client.Dispatch(context.Background(), RouteDescriptor{
			Name: "ping", Path: "/api/v1/ping", Method: http.MethodGet, Scope: ScopeClient,
		}, nil, &out)
		require.NoError(t, err)

		calls := fake.recorded()
		require.Len(t, calls, 2)
		assert.Equal(t, "Bearer "+fake.clientToken, calls[1].Auth)
		assert.Equal(t, map[string]any{"status": "ok"}, out)
	})

	t.Run("unauthenticated scope sends no credential", func(t *testing.T) {
		fake := newFakeBergx(t)
		client := newTestClient(t, fake.start(t))

		err := client.Dispatch(context.Background(), RouteDescriptor{
			Name: "ping", Path: "/api/v1/ping", Method: http.MethodGet, Scope: ScopeUnauthenticated,
		}, nil, nil)
		require.NoError(t, err)

		calls := fake.recorded()
		require.Len(t, calls, 1)
		assert.Empty(t, calls[0].Auth)
	})

	t.Run("user scope without a credential requires authentication", func(t *testing.T) {
		fake := newFakeBergx(t)
		client := newTestClient(t, fake.start(t))

		err := client.Dispatch(context.Background(), RouteDescriptor{
			Name: "ping", Path: profilePath, Method: http.MethodGet, Scope: ScopeUser,
		}, nil, nil)
		assert.True(t, errors.Is(err, utils.ErrAuthenticationRequired))
		assert.Empty(t, fake.recorded())
	})

	t.Run("non 2xx fails once with the raw body", func(t *testing.T) {
		fake := newFakeBergx(t)
		fake.reply("GET /api/v1/switches/list", http.StatusServiceUnavailable, `upstream down`)
		client := newTestClient(t, fake.start(t))

		_, err := client.GetSwitches(context.Background())
		var reqErr *RequestFailedError
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, http.StatusServiceUnavailable, reqErr.StatusCode)
		assert.Equal(t, "upstream down", reqErr.Body)
		assert.Equal(t, []string{"POST /oauth/token", "GET /api/v1/switches/list"}, fake.routesCalled())
	})

	t.Run("undecodable body is a request failure", func(t *testing.T) {
		fake := newFakeBergx(t)
		fake.reply("POST /api/v1/switches/check/beta", http.StatusOK, `not json`)
		client := newTestClient(t, fake.start(t))

		_, err := client.CheckSwitch(context.Background(), "beta", nil)
		var reqErr *RequestFailedError
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, "not json", reqErr.Body)
	})

	t.Run("401 on a client call drops the cached client token", func(t *testing.T) {
		fake := newFakeBergx(t)
		fake.reply("GET /api/v1/switches/list", http.StatusUnauthorized, `token revoked`)
		client := newTestClient(t, fake.start(t))

		_, err := client.GetSwitches(context.Background())
		assert.True(t, errors.Is(err, utils.ErrRequestFailed))
		_, err = client.GetSwitches(context.Background())
		assert.Error(t, err)

		assert.Equal(t, []string{
			"POST /oauth/token", "GET /api/v1/switches/list",
			"POST /oauth/token", "GET /api/v1/switches/list",
		}, fake.routesCalled())
	})

	t.Run("request timeout fails the call", func(t *testing.T) {
		fake := newFakeBergx(t)
		fake.handle("GET /api/v1/switches/list", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
		})
		client := newTestClient(t, fake.start(t), func(cfg *Config) {
			cfg.RequestTimeout = 30 * time.Millisecond
		})

		_, err := client.GetSwitches(context.Background())
		assert.True(t, errors.Is(err, utils.ErrRequestFailed))
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	t.Run("records request metrics", func(t *testing.T) {
		fake := newFakeBergx(t)
		collectors := metrics.NewCollectors(prometheus.NewRegistry())
		client := newTestClient(t, fake.start(t), func(cfg *Config) { cfg.Metrics = collectors })

		_, err := client.GetSwitches(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1.0, testutil.ToFloat64(collectors.Requests.WithLabelValues(string(ScopeClient), http.MethodGet, metrics.OutcomeSuccess)))
		assert.Equal(t, 1.0, testutil.ToFloat64(collectors.TokenAcquisitions.WithLabelValues("client_credentials", metrics.OutcomeSuccess)))
	})
}

func TestOrchestrator_CompletionWait(t *testing.T) {
	t.Run("pending event ids are confirmed before the call resolves", func(t *testing.T) {
		fake := newFakeBergx(t)
		fake.reply("POST /api/v1/bandit/cohort", http.StatusOK, `{"status":"ok","eventIds":["a","b"]}`)
		client := newTestClient(t, fake.start(t))

		resp, err := client.CreateBanditCohort(context.Background(), cohortFixture())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, resp.EventIDs)

		calls := fake.recorded()
		require.Len(t, calls, 3)
		assert.Equal(t, "POST "+EventsPath, calls[2].route())
		assert.JSONEq(t, `{"events":["a","b"]}`, calls[2].Body)
		assert.Equal(t, "Bearer "+fake.clientToken, calls[2].Auth)
	})

	t.Run("the call does not resolve before the wait returns", func(t *testing.T) {
		fake := newFakeBergx(t)
		fake.reply("POST /api/v1/bandit/cohort", http.StatusOK, `{"eventIds":["a"]}`)
		release := make(chan struct{})
		fake.handle("POST "+EventsPath, func(w http.ResponseWriter, _ *http.Request) {
			<-release
			_, _ = w.Write([]byte(`{}`))
		})
		client := newTestClient(t, fake.start(t))

		done := make(chan error, 1)
		go func() {
			_, err := client.CreateBanditCohort(context.Background(), cohortFixture())
			done <- err
		}()

		require.Eventually(t, func() bool { return len(fake.recorded()) == 3 }, time.Second, time.Millisecond)
		select {
		case <-done:
			t.Fatal("call resolved while the completion wait was still pending")
		case <-time.After(20 * time.Millisecond):
		}
		close(release)
		require.NoError(t, <-done)
	})

	t.Run("failed wait still returns the mutation result", func(t *testing.T) {
		fake := newFakeBergx(t)
		fake.reply("POST /api/v1/bandit/cohort", http.StatusOK, `{"status":"ok","eventIds":["a","b"]}`)
		fake.reply("POST "+EventsPath, http.StatusGatewayTimeout, `timed out`)
		collectors := metrics.NewCollectors(prometheus.NewRegistry())
		client := newTestClient(t, fake.start(t), func(cfg *Config) { cfg.Metrics = collectors })

		resp, err := client.CreateBanditCohort(context.Background(), cohortFixture())
		assert.True(t, errors.Is(err, utils.ErrCompletionWaitFailed))

		assert.False(t, errors.Is(err, utils.ErrRequestFailed), "an unconfirmed mutation is not a failed request")

		var waitErr *CompletionWaitError
		require.True(t, errors.As(err, &waitErr))
		assert.Equal(t, []string{"a", "b"}, waitErr.EventIDs)

		var reqErr *RequestFailedError
		assert.False(t, errors.As(err, &reqErr))
		require.True(t, errors.As(waitErr.Err, &reqErr))
		assert.Equal(t, http.StatusGatewayTimeout, reqErr.StatusCode)
		assert.Equal(t, "timed out", reqErr.Body)

		require.NotNil(t, resp)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, 1.0, testutil.ToFloat64(collectors.CompletionWaits.WithLabelValues(metrics.OutcomeFailure)))
	})

	t.Run("responses without event ids skip the wait", func(t *testing.T) {
		fake := newFakeBergx(t)
		client := newTestClient(t, fake.start(t))

		_, err := client.DeleteSwitch(context.Background(), "beta")
		require.NoError(t, err)
		assert.Equal(t, []string{"POST /oauth/token", "DELETE /api/v1/switches/beta"}, fake.routesCalled())
	})

	t.Run("completion timeout bounds the wait", func(t *testing.T) {
		fake := newFakeBergx(t)
		fake.reply("POST /api/v1/bandit/cohort", http.StatusOK, `{"eventId":"a"}`)
		fake.handle("POST "+EventsPath, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
		})
		client := newTestClient(t, fake.start(t), func(cfg *Config) {
			cfg.CompletionTimeout = 30 * time.Millisecond
		})

		_, err := client.CreateBanditCohort(context.Background(), cohortFixture())
		assert.True(t, errors.Is(err, utils.ErrCompletionWaitFailed))
	})
}

func TestPendingEventIDs(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{name: "event id list", body: `{"eventIds":["a","b"]}`, want: []string{"a", "b"}},
		{name: "single event id", body: `{"eventId":"evt-1"}`, want: []string{"evt-1"}},
		{name: "list takes precedence", body: `{"eventId":"x","eventIds":["a"]}`, want: []string{"a"}},
		{name: "empty list means no wait", body: `{"eventIds":[]}`, want: nil},
		{name: "empty ids are dropped", body: `{"eventIds":["","a"]}`, want: []string{"a"}},
		{name: "empty single id means no wait", body: `{"eventId":""}`, want: nil},
		{name: "no markers", body: `{"status":"ok"}`, want: nil},
		{name: "non string ids are ignored", body: `{"eventIds":[1,2]}`, want: nil},
		{name: "array body", body: `[{"eventId":"a"}]`, want: nil},
		{name: "empty body", body: ``, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pendingEventIDs([]byte(tt.body)))
		})
	}
}
