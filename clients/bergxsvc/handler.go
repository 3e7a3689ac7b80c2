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

	"github.com/bergx-io/bergx-sdk-go/middleware/logger"
)

// RefreshedCredential is reported after a user access token was refreshed.
// UserSub is read from the new token's sub claim and may be empty.
type RefreshedCredential struct {
	UserSub      string
	AccessToken  string
	RefreshToken string
}

// CredentialRefreshHandler is notified synchronously, on the calling goroutine, whenever a
// user access token is refreshed. The SDK never stores user tokens itself.
type CredentialRefreshHandler interface {
	OnCredentialRefresh(ctx context.Context, cred RefreshedCredential)
}

// CredentialRefreshFunc adapts a function to CredentialRefreshHandler.
type CredentialRefreshFunc func(ctx context.Context, cred RefreshedCredential)

func (f CredentialRefreshFunc) OnCredentialRefresh(ctx context.Context, cred RefreshedCredential) {
	f(ctx, cred)
}

type warnRefreshHandler struct{}

func (warnRefreshHandler) OnCredentialRefresh(ctx context.Context, cred RefreshedCredential) {
	logger.GetLogger(ctx).Warn("bergxsvc: user access token refreshed but no credential refresh handler is configured",
		"userSub", cred.UserSub)
}
