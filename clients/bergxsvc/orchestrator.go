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
	"fmt"
	"net/http"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/bergx-io/bergx-sdk-go/clients/idp"
	"github.com/bergx-io/bergx-sdk-go/clients/requests"
	"github.com/bergx-io/bergx-sdk-go/metrics"
	"github.com/bergx-io/bergx-sdk-go/middleware/logger"
	"github.com/bergx-io/bergx-sdk-go/observability"
)

// EventsPath is the endpoint that blocks until the listed server-side events are resolved.
const EventsPath = "/api/v1/events"

// Scope selects which credential authenticates a route.
type Scope string

const (
	ScopeUser            Scope = "user"
	ScopeClient          Scope = "client"
	ScopeUnauthenticated Scope = "unauthenticated"
)

// UserCredential is an end user's token pair, supplied per call and never stored by the SDK.
type UserCredential struct {
	AccessToken  string
	RefreshToken string
}

// RouteDescriptor describes one API call. Body, when non-nil, is JSON encoded.
type RouteDescriptor struct {
	Name   string
	Path   string
	Method string
	Scope  Scope
	Body   any

	// skipCompletionWait is set for the events endpoint itself.
	skipCompletionWait bool
}

// Orchestrator resolves credentials, dispatches calls and waits for pending server-side work.
// It is safe for concurrent use.
type Orchestrator struct {
	host           string
	httpClient     requests.HttpClient
	acquirer       idp.TokenAcquirer
	clientTokens   *idp.ClientTokenProvider
	expiry         *idp.ExpiryEvaluator
	refreshHandler CredentialRefreshHandler
	requestTimeout time.Duration
	waitTimeout    time.Duration
	metrics        *metrics.Collectors
}

// EnsureUserToken returns accessToken when it is present and not expired. Otherwise it
// performs exactly one refresh exchange and reports the new token to the refresh handler.
func (o *Orchestrator) EnsureUserToken(ctx context.Context, user UserCredential) (string, error) {
	if user.AccessToken != "" && !o.expiry.IsExpired(user.AccessToken) {
		return user.AccessToken, nil
	}
	if user.RefreshToken == "" {
		return "", &AuthenticationRequiredError{Err: errors.New("no refresh token available")}
	}

	token, err := o.acquirer.RefreshUserToken(ctx, user.RefreshToken)
	if err != nil {
		logger.GetLogger(ctx).Debug("bergxsvc: user token refresh failed", "error", err)
		return "", &AuthenticationRequiredError{Err: err}
	}
	o.refreshHandler.OnCredentialRefresh(ctx, RefreshedCredential{
		UserSub:      o.expiry.Subject(token),
		AccessToken:  token,
		RefreshToken: user.RefreshToken,
	})
	return token, nil
}

// EnsureClientToken returns the cached client token, acquiring one when it is absent or expired.
func (o *Orchestrator) EnsureClientToken(ctx context.Context) (string, error) {
	return o.clientTokens.GetToken(ctx)
}

// Dispatch resolves a credential for route.Scope, performs the call and decodes the JSON
// response into out (which may be nil). When the response lists pending event ids, Dispatch
// blocks until the events endpoint confirms them; if that fails out is still populated and
// a *CompletionWaitError is returned. user is only read for ScopeUser routes.
func (o *Orchestrator) Dispatch(ctx context.Context, route RouteDescriptor, user *UserCredential, out any) (err error) {
	started := time.Now()
	ctx, span := observability.StartSpan(ctx, "bergxsvc."+route.Name,
		observability.AttrRoute.String(route.Path),
		observability.AttrScope.String(string(route.Scope)),
		observability.AttrMethod.String(route.Method))
	defer func() {
		o.metrics.ObserveRequest(string(route.Scope), route.Method, started, err)
		observability.EndSpan(span, err)
	}()

	token, err := o.resolveToken(ctx, route.Scope, user)
	if err != nil {
		return err
	}

	body, err := o.send(ctx, route, token, o.requestTimeout)
	if err != nil {
		return err
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return &RequestFailedError{
				Route: route.Name,
				Body:  string(body),
				Err:   fmt.Errorf("failed to decode response body: %w", err),
			}
		}
	}

	if route.skipCompletionWait {
		return nil
	}
	ids := pendingEventIDs(body)
	if len(ids) == 0 {
		return nil
	}
	return o.WaitForCompletion(ctx, ids)
}

// WaitForCompletion blocks until the service confirms the given events are resolved.
func (o *Orchestrator) WaitForCompletion(ctx context.Context, ids []string) (err error) {
	ctx, span := observability.StartSpan(ctx, "bergxsvc.waitForCompletion",
		observability.AttrEventIDs.StringSlice(ids))
	defer func() {
		o.metrics.ObserveCompletionWait(err)
		observability.EndSpan(span, err)
	}()

	route := RouteDescriptor{
		Name:               "waitForCompletion",
		Path:               EventsPath,
		Method:             http.MethodPost,
		Scope:              ScopeClient,
		Body:               map[string][]string{"events": ids},
		skipCompletionWait: true,
	}
	token, err := o.resolveToken(ctx, route.Scope, nil)
	if err == nil {
		_, err = o.send(ctx, route, token, o.waitTimeout)
	}
	if err != nil {
		logger.GetLogger(ctx).Warn("bergxsvc: could not confirm completion of pending events",
			"eventIds", ids, "error", err)
		return &CompletionWaitError{EventIDs: ids, Err: err}
	}
	return nil
}

func (o *Orchestrator) resolveToken(ctx context.Context, scope Scope, user *UserCredential) (string, error) {
	switch scope {
	case ScopeUnauthenticated:
		return "", nil
	case ScopeClient:
		return o.EnsureClientToken(ctx)
	case ScopeUser:
		if user == nil {
			return "", &AuthenticationRequiredError{Err: errors.New("no user credential supplied")}
		}
		return o.EnsureUserToken(ctx, *user)
	default:
		return "", fmt.Errorf("unknown route scope %q", scope)
	}
}

func (o *Orchestrator) send(ctx context.Context, route RouteDescriptor, token string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req := &requests.HttpRequest{
		Name:   "bergxsvc." + route.Name,
		URL:    o.host + route.Path,
		Method: route.Method,
	}
	req.SetHeader("Accept", requests.ContentTypeJSON)
	req.SetHeader(requests.HeaderContentType, requests.ContentTypeJSON)
	if token != "" {
		req.SetBearerToken(token)
	}
	if route.Body != nil {
		req.SetJson(route.Body)
	}

	result := requests.SendRequest(ctx, o.httpClient, req)
	if status := result.StatusCode(); status != 0 {
		observability.SetAttributes(ctx, observability.AttrStatus.Int(status))
	}
	if err := result.CheckStatus(); err != nil {
		var httpErr *requests.HttpError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode == http.StatusUnauthorized && route.Scope == ScopeClient {
				o.clientTokens.InvalidateToken()
			}
			return nil, &RequestFailedError{Route: route.Name, StatusCode: httpErr.StatusCode, Body: httpErr.Body}
		}
		return nil, &RequestFailedError{Route: route.Name, Err: err}
	}
	return result.Body(), nil
}

// pendingEventIDs reads eventIds (preferred) or eventId from a JSON object body.
func pendingEventIDs(body []byte) []string {
	if len(body) == 0 {
		return nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil
	}
	if ids, found, err := unstructured.NestedStringSlice(obj, "eventIds"); err == nil && found {
		return nonEmpty(ids)
	}
	if id, found, err := unstructured.NestedString(obj, "eventId"); err == nil && found {
		return nonEmpty([]string{id})
	}
	return nil
}

func nonEmpty(ids []string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
