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
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bergx-io/bergx-sdk-go/clients/idp"
	"github.com/bergx-io/bergx-sdk-go/clients/requests"
	"github.com/bergx-io/bergx-sdk-go/metrics"
	"github.com/bergx-io/bergx-sdk-go/models"
	"github.com/bergx-io/bergx-sdk-go/utils"
)

const (
	DefaultHost              = "https://p01.bergx.io"
	DefaultRequestTimeout    = 30 * time.Second
	DefaultCompletionTimeout = 2 * time.Minute
)

type Config struct {
	ClientID     string
	ClientSecret string
	// Host defaults to DefaultHost.
	Host string

	// RefreshHandler is told about refreshed user tokens. Defaults to a warning logger.
	RefreshHandler CredentialRefreshHandler

	// HTTPClient is the base client for all calls; a zero-value http.Client is used when nil.
	HTTPClient *http.Client
	// RetryConfig applies to business calls only. Retries are disabled by default and the
	// token endpoints are never retried.
	RetryConfig requests.RequestRetryConfig

	// RequestTimeout bounds each business call. Defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration
	// CompletionTimeout bounds each completion wait. Defaults to DefaultCompletionTimeout.
	CompletionTimeout time.Duration
	// TokenTimeout bounds each client-credentials exchange.
	TokenTimeout time.Duration

	// Clock is used for token expiry checks. Defaults to time.Now.
	Clock idp.Clock
	// Metrics is optional.
	Metrics *metrics.Collectors
}

type BergxClient interface {
	// Profile Operations
	GetProfile(ctx context.Context, user UserCredential) (json.RawMessage, error)
	UpdateProfile(ctx context.Context, user UserCredential, claims models.UserClaims) (json.RawMessage, error)

	// Switch Operations
	GetSwitches(ctx context.Context) (json.RawMessage, error)
	CreateSwitch(ctx context.Context, def models.SwitchDefinition) (*models.MutationResponse, error)
	CheckSwitch(ctx context.Context, switchName string, evalCtx models.EvaluationContext) (bool, error)
	CheckAllSwitches(ctx context.Context, evalCtx models.EvaluationContext) (map[string]bool, error)
	UpdateSwitch(ctx context.Context, switchName string, update models.SwitchUpdate) (*models.MutationResponse, error)
	DeleteSwitch(ctx context.Context, switchName string) (*models.MutationResponse, error)

	// Bandit Operations
	GetBanditCohorts(ctx context.Context) (json.RawMessage, error)
	CreateBanditCohort(ctx context.Context, def models.CohortDefinition) (*models.MutationResponse, error)
	UpdateBanditCohort(ctx context.Context, cohortID string, update models.CohortUpdate) (*models.MutationResponse, error)
	DeleteBanditCohort(ctx context.Context, cohortID string) (*models.MutationResponse, error)
	TryBanditCohort(ctx context.Context, cohortID string) (*models.TryResponse, error)
	WinBanditCohort(ctx context.Context, cohortID, armName string) (*models.MutationResponse, error)
	ResetBanditCohort(ctx context.Context, cohortID string) (*models.MutationResponse, error)

	// Credential Operations
	EnsureUserToken(ctx context.Context, user UserCredential) (string, error)
	EnsureClientToken(ctx context.Context) (string, error)
	WaitForCompletion(ctx context.Context, ids []string) error
}

type bergxClient struct {
	*Orchestrator
}

var _ BergxClient = (*bergxClient)(nil)

func NewBergxClient(cfg *Config) (BergxClient, error) {
	orchestrator, err := NewOrchestrator(cfg)
	if err != nil {
		return nil, err
	}
	return &bergxClient{Orchestrator: orchestrator}, nil
}

// NewOrchestrator builds the credential-managing dispatcher used by BergxClient.
func NewOrchestrator(cfg *Config) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", utils.ErrInvalidInput)
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: client id is required", utils.ErrInvalidInput)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client secret is required", utils.ErrInvalidInput)
	}

	host := strings.TrimRight(cfg.Host, "/")
	if host == "" {
		host = DefaultHost
	}
	if _, err := url.ParseRequestURI(host); err != nil {
		return nil, fmt.Errorf("%w: invalid host %q: %v", utils.ErrInvalidInput, host, err)
	}

	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	waitTimeout := cfg.CompletionTimeout
	if waitTimeout <= 0 {
		waitTimeout = DefaultCompletionTimeout
	}
	handler := cfg.RefreshHandler
	if handler == nil {
		handler = warnRefreshHandler{}
	}

	// Per-call contexts carry the tighter deadlines; the transport only has to outlive the longest one.
	retryConfig := cfg.RetryConfig
	if retryConfig.AttemptTimeout == 0 {
		retryConfig.AttemptTimeout = max(requestTimeout, waitTimeout)
	}

	expiry := idp.NewExpiryEvaluator(cfg.Clock)
	acquirer := idp.NewTokenAcquirer(idp.TokenAcquirerConfig{
		Host:         host,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		HTTPClient:   requests.NewRetryableHTTPClient(cfg.HTTPClient, requests.RequestRetryConfig{AttemptTimeout: cfg.TokenTimeout}),
		Expiry:       expiry,
		Metrics:      cfg.Metrics,
	})

	return &Orchestrator{
		host:           host,
		httpClient:     requests.NewRetryableHTTPClient(cfg.HTTPClient, retryConfig),
		acquirer:       acquirer,
		clientTokens:   idp.NewClientTokenProvider(acquirer, expiry, cfg.TokenTimeout),
		expiry:         expiry,
		refreshHandler: handler,
		requestTimeout: requestTimeout,
		waitTimeout:    waitTimeout,
		metrics:        cfg.Metrics,
	}, nil
}

func pathSegment(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: empty path segment", utils.ErrInvalidInput)
	}
	return url.PathEscape(value), nil
}
