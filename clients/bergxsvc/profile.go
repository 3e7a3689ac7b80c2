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

	"github.com/bergx-io/bergx-sdk-go/models"
)

const profilePath = "/api/v1/profile/me"

func (c *bergxClient) GetProfile(ctx context.Context, user UserCredential) (json.RawMessage, error) {
	var profile json.RawMessage
	err := c.Dispatch(ctx, RouteDescriptor{
		Name:   "getProfile",
		Path:   profilePath,
		Method: http.MethodGet,
		Scope:  ScopeUser,
	}, &user, &profile)
	if err != nil {
		return nil, fmt.Errorf("bergxsvc.GetProfile: %w", err)
	}
	return profile, nil
}

func (c *bergxClient) UpdateProfile(ctx context.Context, user UserCredential, claims models.UserClaims) (json.RawMessage, error) {
	var profile json.RawMessage
	err := c.Dispatch(ctx, RouteDescriptor{
		Name:   "updateProfile",
		Path:   profilePath,
		Method: http.MethodPut,
		Scope:  ScopeUser,
		Body:   claims,
	}, &user, &profile)
	if err != nil {
		return profile, fmt.Errorf("bergxsvc.UpdateProfile: %w", err)
	}
	return profile, nil
}
