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

package models

type ArmDefinition struct {
	Name  string `json:"name"`
	Wins  int64  `json:"wins"`
	Tries int64  `json:"tries"`
	// LastReset is epoch milliseconds as reported by the service.
	LastReset int64 `json:"lastReset"`
}

type CohortDefinition struct {
	CohortID         string          `json:"cohortId"`
	AppID            string          `json:"appId"`
	Name             string          `json:"name"`
	TotalTries       int64           `json:"totalTries"`
	TotalWins        int64           `json:"totalWins"`
	RandomSelections int64           `json:"randomSelections"`
	Epsilon          float64         `json:"epsilon"`
	ResetFrequency   int64           `json:"resetFrequency"`
	Arms             []ArmDefinition `json:"arms"`
}

// CohortUpdate is a partial CohortDefinition; nil fields are left unchanged.
type CohortUpdate struct {
	AppID            *string         `json:"appId,omitempty"`
	Name             *string         `json:"name,omitempty"`
	TotalTries       *int64          `json:"totalTries,omitempty"`
	TotalWins        *int64          `json:"totalWins,omitempty"`
	RandomSelections *int64          `json:"randomSelections,omitempty"`
	Epsilon          *float64        `json:"epsilon,omitempty"`
	ResetFrequency   *int64          `json:"resetFrequency,omitempty"`
	Arms             []ArmDefinition `json:"arms,omitempty"`
}

type TryResponse struct {
	ArmName string `json:"armName"`
}
