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
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bergx-io/bergx-sdk-go/observability"
)

const (
	DefaultAcquireTimeout = 15 * time.Second

	clientCredentialFlight = "client_credentials"
)

// ClientTokenProvider holds the single client credential shared by every client-scoped call.
// Concurrent callers that find the credential absent or expired share one in-flight
// acquisition; each caller may stop waiting through its own context.
type ClientTokenProvider struct {
	acquirer       TokenAcquirer
	expiry         *ExpiryEvaluator
	acquireTimeout time.Duration

	mu   sync.RWMutex
	cred *ClientCredential

	flights singleflight.Group
}

func NewClientTokenProvider(acquirer TokenAcquirer, expiry *ExpiryEvaluator, acquireTimeout time.Duration) *ClientTokenProvider {
	if expiry == nil {
		expiry = NewExpiryEvaluator(nil)
	}
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}
	return &ClientTokenProvider{
		acquirer:       acquirer,
		expiry:         expiry,
		acquireTimeout: acquireTimeout,
	}
}

// GetToken returns a live client access token, acquiring a new one if the cached one is
// absent or expired.
func (p *ClientTokenProvider) GetToken(ctx context.Context) (string, error) {
	token, ok := p.liveToken()
	observability.SetAttributes(ctx, observability.AttrCacheHit.Bool(ok))
	if ok {
		return token, nil
	}
	slog.Debug("idp: client access token expired or missing")

	ch := p.flights.DoChan(clientCredentialFlight, func() (any, error) {
		// A flight that finished just before this one started may already have refreshed it.
		if token, ok := p.liveToken(); ok {
			return token, nil
		}
		// The exchange is shared, so one caller's cancellation must not fail the others.
		acquireCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.acquireTimeout)
		defer cancel()

		cred, err := p.acquirer.AcquireClientToken(acquireCtx)
		if err != nil {
			return "", err
		}
		p.mu.Lock()
		p.cred = &cred
		p.mu.Unlock()
		return cred.AccessToken, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		token, ok = res.Val.(string)
		if !ok {
			return "", fmt.Errorf("unexpected client token type %T", res.Val)
		}
		return token, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// InvalidateToken drops the cached credential so the next GetToken acquires a new one.
func (p *ClientTokenProvider) InvalidateToken() {
	p.mu.Lock()
	defer p.mu.Unlock()
	slog.Debug("idp: invalidating cached client access token")
	p.cred = nil
}

func (p *ClientTokenProvider) liveToken() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.cred == nil || p.cred.AccessToken == "" {
		return "", false
	}
	if p.expiry.IsExpired(p.cred.AccessToken) {
		return "", false
	}
	return p.cred.AccessToken, true
}
