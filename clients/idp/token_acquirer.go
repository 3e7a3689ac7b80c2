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
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bergx-io/bergx-sdk-go/clients/requests"
	"github.com/bergx-io/bergx-sdk-go/metrics"
	"github.com/bergx-io/bergx-sdk-go/observability"
)

const (
	RefreshPath = "/oauth/refresh"
	TokenPath   = "/oauth/token"

	GrantRefreshToken      = "refresh_token"
	GrantClientCredentials = "client_credentials"
)

var errEmptyAccessToken = errors.New("empty access token in response")

// ClientCredential is the bearer token representing the application itself.
type ClientCredential struct {
	AccessToken string
	// Expiry is informational; liveness is always decided from the token's exp claim.
	Expiry time.Time
}

// TokenAcquirer performs the two credential exchanges against the authorization endpoint.
// Neither exchange needs a prior bearer token; both carry client_id and client_secret.
type TokenAcquirer interface {
	// RefreshUserToken exchanges a refresh token for a new user access token.
	RefreshUserToken(ctx context.Context, refreshToken string) (string, error)
	// AcquireClientToken performs the client-credentials grant.
	AcquireClientToken(ctx context.Context) (ClientCredential, error)
}

type TokenAcquirerConfig struct {
	Host         string
	ClientID     string
	ClientSecret string
	// HTTPClient defaults to a single-attempt RetryableHTTPClient.
	HTTPClient requests.HttpClient
	Expiry     *ExpiryEvaluator
	Metrics    *metrics.Collectors
}

type tokenAcquirer struct {
	config     TokenAcquirerConfig
	httpClient requests.HttpClient
	expiry     *ExpiryEvaluator
}

type tokenResponse struct {
	AccessToken       string `json:"access_token"`
	LegacyAccessToken string `json:"accessToken"`
	TokenType         string `json:"token_type,omitempty"`
	ExpiresIn         int64  `json:"expires_in,omitempty"`
}

func (t tokenResponse) token() string {
	if t.AccessToken != "" {
		return t.AccessToken
	}
	return t.LegacyAccessToken
}

func NewTokenAcquirer(cfg TokenAcquirerConfig) TokenAcquirer {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = requests.NewRetryableHTTPClient(&http.Client{Timeout: 15 * time.Second})
	}
	expiry := cfg.Expiry
	if expiry == nil {
		expiry = NewExpiryEvaluator(nil)
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	return &tokenAcquirer{
		config:     cfg,
		httpClient: httpClient,
		expiry:     expiry,
	}
}

func (a *tokenAcquirer) RefreshUserToken(ctx context.Context, refreshToken string) (token string, err error) {
	ctx, span := observability.StartSpan(ctx, "idp.RefreshUserToken", observability.AttrGrant.String(GrantRefreshToken))
	defer func() {
		a.config.Metrics.ObserveTokenAcquisition(GrantRefreshToken, err)
		observability.EndSpan(span, err)
	}()

	resp, err := a.exchange(ctx, "idp.refreshUserToken", RefreshPath, map[string]string{
		"grant_type":    GrantRefreshToken,
		"refresh_token": refreshToken,
	})
	if err != nil {
		status, body, cause := splitExchangeFailure(err)
		return "", &RefreshError{StatusCode: status, Body: body, Err: cause}
	}
	if resp.token() == "" {
		return "", &RefreshError{Err: errEmptyAccessToken}
	}
	slog.Debug("idp: refreshed user access token")
	return resp.token(), nil
}

func (a *tokenAcquirer) AcquireClientToken(ctx context.Context) (cred ClientCredential, err error) {
	ctx, span := observability.StartSpan(ctx, "idp.AcquireClientToken", observability.AttrGrant.String(GrantClientCredentials))
	defer func() {
		a.config.Metrics.ObserveTokenAcquisition(GrantClientCredentials, err)
		observability.EndSpan(span, err)
	}()

	resp, err := a.exchange(ctx, "idp.acquireClientToken", TokenPath, map[string]string{
		"grant_type": GrantClientCredentials,
	})
	if err != nil {
		status, body, cause := splitExchangeFailure(err)
		return ClientCredential{}, &ClientAuthError{StatusCode: status, Body: body, Err: cause}
	}
	if resp.token() == "" {
		return ClientCredential{}, &ClientAuthError{Err: errEmptyAccessToken}
	}

	cred = ClientCredential{AccessToken: resp.token()}
	if exp, ok := a.expiry.ExpiresAt(cred.AccessToken); ok {
		cred.Expiry = exp
	} else if resp.ExpiresIn > 0 {
		cred.Expiry = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	slog.Info("idp: fetched new client access token", "expires_at", cred.Expiry.Format(time.RFC3339))
	return cred, nil
}

func (a *tokenAcquirer) exchange(ctx context.Context, name, path string, data map[string]string) (*tokenResponse, error) {
	body := make(map[string]string, len(data)+2)
	for k, v := range data {
		body[k] = v
	}
	body["client_id"] = a.config.ClientID
	body["client_secret"] = a.config.ClientSecret

	req := &requests.HttpRequest{
		Name:   name,
		URL:    a.config.Host + path,
		Method: http.MethodPost,
	}
	req.SetHeader("Accept", requests.ContentTypeJSON)
	req.SetJson(body)

	var resp tokenResponse
	if err := requests.SendRequest(ctx, a.httpClient, req).ScanResponse(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
