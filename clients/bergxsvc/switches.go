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

	"github.com/bergx-io/bergx-sdk-go/models"
)

const switchesPath = "/api/v1/switches"

func (c *bergxClient) GetSwitches(ctx context.Context) (json.RawMessage, error) {
	var switches json.RawMessage
	err := c.Dispatch(ctx, RouteDescriptor{
		Name:   "getSwitches",
		Path:   switchesPath + "/list",
		Method: http.MethodGet,
		Scope:  ScopeClient,
	}, nil, &switches)
	if err != nil {
		return nil, fmt.Errorf("bergxsvc.GetSwitches: %w", err)
	}
	return switches, nil
}

func (c *bergxClient) CreateSwitch(ctx context.Context, def models.SwitchDefinition) (*models.MutationResponse, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("bergxsvc.CreateSwitch: %w", errMissing("switch name"))
	}
	return c.mutate(ctx, "CreateSwitch", RouteDescriptor{
		Name:   "createSwitch",
		Path:   switchesPath + "/",
		Method: http.MethodPost,
		Scope:  ScopeClient,
		Body:   def,
	})
}

func (c *bergxClient) CheckSwitch(ctx context.Context, switchName string, evalCtx models.EvaluationContext) (bool, error) {
	name, err := pathSegment(switchName)
	if err != nil {
		return false, fmt.Errorf("bergxsvc.CheckSwitch: %w", err)
	}
	var resp models.SwitchCheckResponse
	err = c.Dispatch(ctx, RouteDescriptor{
		Name:   "checkSwitch",
		Path:   switchesPath + "/check/" + name,
		Method: http.MethodPost,
		Scope:  ScopeClient,
		Body:   contextBody(evalCtx),
	}, nil, &resp)
	if err != nil {
		return false, fmt.Errorf("bergxsvc.CheckSwitch: %w", err)
	}
	return resp.Value, nil
}

func (c *bergxClient) CheckAllSwitches(ctx context.Context, evalCtx models.EvaluationContext) (map[string]bool, error) {
	var resp models.AllSwitchesResponse
	err := c.Dispatch(ctx, RouteDescriptor{
		Name:   "checkAllSwitches",
		Path:   switchesPath + "/check/all",
		Method: http.MethodPost,
		Scope:  ScopeClient,
		Body:   contextBody(evalCtx),
	}, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("bergxsvc.CheckAllSwitches: %w", err)
	}
	if resp.Switches == nil {
		resp.Switches = map[string]bool{}
	}
	return resp.Switches, nil
}

func (c *bergxClient) UpdateSwitch(ctx context.Context, switchName string, update models.SwitchUpdate) (*models.MutationResponse, error) {
	name, err := pathSegment(switchName)
	if err != nil {
		return nil, fmt.Errorf("bergxsvc.UpdateSwitch: %w", err)
	}
	return c.mutate(ctx, "UpdateSwitch", RouteDescriptor{
		Name:   "updateSwitch",
		Path:   switchesPath + "/" + name,
		Method: http.MethodPost,
		Scope:  ScopeClient,
		Body:   update,
	})
}

func (c *bergxClient) DeleteSwitch(ctx context.Context, switchName string) (*models.MutationResponse, error) {
	name, err := pathSegment(switchName)
	if err != nil {
		return nil, fmt.Errorf("bergxsvc.DeleteSwitch: %w", err)
	}
	return c.mutate(ctx, "DeleteSwitch", RouteDescriptor{
		Name:   "deleteSwitch",
		Path:   switchesPath + "/" + name,
		Method: http.MethodDelete,
		Scope:  ScopeClient,
	})
}

// mutate dispatches a client-scoped mutation. On a completion wait failure the
// acknowledgement is returned together with the error.
func (c *bergxClient) mutate(ctx context.Context, op string, route RouteDescriptor) (*models.MutationResponse, error) {
	var resp models.MutationResponse
	if err := c.Dispatch(ctx, route, nil, &resp); err != nil {
		var waitErr *CompletionWaitError
		if errors.As(err, &waitErr) {
			return &resp, fmt.Errorf("bergxsvc.%s: %w", op, err)
		}
		return nil, fmt.Errorf("bergxsvc.%s: %w", op, err)
	}
	return &resp, nil
}

// contextBody always sends an object so the service sees {} rather than null.
func contextBody(evalCtx models.EvaluationContext) models.EvaluationContext {
	if evalCtx == nil {
		return models.EvaluationContext{}
	}
	return evalCtx
}
