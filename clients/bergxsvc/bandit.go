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
	"github.com/bergx-io/bergx-sdk-go/utils"
)

const (
	banditPath = "/api/v1/bandit"
	cohortPath = banditPath + "/cohort"
)

func (c *bergxClient) GetBanditCohorts(ctx context.Context) (json.RawMessage, error) {
	var cohorts json.RawMessage
	err := c.Dispatch(ctx, RouteDescriptor{
		Name:   "getBanditCohorts",
		Path:   banditPath + "/",
		Method: http.MethodGet,
		Scope:  ScopeClient,
	}, nil, &cohorts)
	if err != nil {
		return nil, fmt.Errorf("bergxsvc.GetBanditCohorts: %w", err)
	}
	return cohorts, nil
}

func (c *bergxClient) CreateBanditCohort(ctx context.Context, def models.CohortDefinition) (*models.MutationResponse, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("bergxsvc.CreateBanditCohort: %w", errMissing("cohort name"))
	}
	return c.mutate(ctx, "CreateBanditCohort", RouteDescriptor{
		Name:   "createBanditCohort",
		Path:   cohortPath,
		Method: http.MethodPost,
		Scope:  ScopeClient,
		Body:   def,
	})
}

func (c *bergxClient) UpdateBanditCohort(ctx context.Context, cohortID string, update models.CohortUpdate) (*models.MutationResponse, error) {
	id, err := pathSegment(cohortID)
	if err != nil {
		return nil, fmt.Errorf("bergxsvc.UpdateBanditCohort: %w", err)
	}
	return c.mutate(ctx, "UpdateBanditCohort", RouteDescriptor{
		Name:   "updateBanditCohort",
		Path:   cohortPath + "/" + id,
		Method: http.MethodPut,
		Scope:  ScopeClient,
		Body:   update,
	})
}

func (c *bergxClient) DeleteBanditCohort(ctx context.Context, cohortID string) (*models.MutationResponse, error) {
	id, err := pathSegment(cohortID)
	if err != nil {
		return nil, fmt.Errorf("bergxsvc.DeleteBanditCohort: %w", err)
	}
	return c.mutate(ctx, "DeleteBanditCohort", RouteDescriptor{
		Name:   "deleteBanditCohort",
		Path:   cohortPath + "/" + id,
		Method: http.MethodDelete,
		Scope:  ScopeClient,
	})
}

func (c *bergxClient) TryBanditCohort(ctx context.Context, cohortID string) (*models.TryResponse, error) {
	id, err := pathSegment(cohortID)
	if err != nil {
		return nil, fmt.Errorf("bergxsvc.TryBanditCohort: %w", err)
	}
	var resp models.TryResponse
	err = c.Dispatch(ctx, RouteDescriptor{
		Name:   "tryBanditCohort",
		Path:   cohortPath + "/" + id + "/try",
		Method: http.MethodGet,
		Scope:  ScopeClient,
	}, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("bergxsvc.TryBanditCohort: %w", err)
	}
	return &resp, nil
}

func (c *bergxClient) WinBanditCohort(ctx context.Context, cohortID, armName string) (*models.MutationResponse, error) {
	id, err := pathSegment(cohortID)
	if err != nil {
		return nil, fmt.Errorf("bergxsvc.WinBanditCohort: %w", err)
	}
	arm, err := pathSegment(armName)
	if err != nil {
		return nil, fmt.Errorf("bergxsvc.WinBanditCohort: %w", err)
	}
	return c.mutate(ctx, "WinBanditCohort", RouteDescriptor{
		Name:   "winBanditCohort",
		Path:   cohortPath + "/" + id + "/" + arm + "/win",
		Method: http.MethodPost,
		Scope:  ScopeClient,
	})
}

func (c *bergxClient) ResetBanditCohort(ctx context.Context, cohortID string) (*models.MutationResponse, error) {
	id, err := pathSegment(cohortID)
	if err != nil {
		return nil, fmt.Errorf("bergxsvc.ResetBanditCohort: %w", err)
	}
	return c.mutate(ctx, "ResetBanditCohort", RouteDescriptor{
		Name:   "resetBanditCohort",
		Path:   cohortPath + "/" + id + "/reset",
		Method: http.MethodPost,
		Scope:  ScopeClient,
	})
}

func errMissing(field string) error {
	return fmt.Errorf("%w: %s is required", utils.ErrInvalidInput, field)
}
