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

// SwitchType selects how the remote service evaluates a feature switch.
type SwitchType string

const (
	SwitchTypeBasic    SwitchType = "basic"
	SwitchTypeRollout  SwitchType = "ROLLOUT"
	SwitchTypeAdvanced SwitchType = "ADVANCED"
)

// RuleOperator compares a context property against a rule value.
type RuleOperator string

const (
	OperatorEq         RuleOperator = "eq"
	OperatorNeq        RuleOperator = "neq"
	OperatorGt         RuleOperator = "gt"
	OperatorGte        RuleOperator = "gte"
	OperatorLt         RuleOperator = "lt"
	OperatorLte        RuleOperator = "lte"
	OperatorContains   RuleOperator = "contains"
	OperatorStartsWith RuleOperator = "startsWith"
	OperatorEndsWith   RuleOperator = "endsWith"
)

type Rule struct {
	Property string       `json:"property"`
	Operator RuleOperator `json:"operator"`
	Value    any          `json:"value"`
	And      []Rule       `json:"and,omitempty"`
}

type RolloutRule struct {
	Property string  `json:"property"`
	Epsilon  float64 `json:"epsilon"`
}

type SwitchDefinition struct {
	Name        string       `json:"name"`
	Type        SwitchType   `json:"type"`
	App         string       `json:"app"`
	Value       *bool        `json:"value,omitempty"`
	Rules       []Rule       `json:"rules,omitempty"`
	RolloutRule *RolloutRule `json:"rolloutRule,omitempty"`
}

// SwitchUpdate is a partial SwitchDefinition; nil fields are left unchanged.
type SwitchUpdate struct {
	Name        *string      `json:"name,omitempty"`
	Type        *SwitchType  `json:"type,omitempty"`
	App         *string      `json:"app,omitempty"`
	Value       *bool        `json:"value,omitempty"`
	Rules       []Rule       `json:"rules,omitempty"`
	RolloutRule *RolloutRule `json:"rolloutRule,omitempty"`
}

// EvaluationContext carries arbitrary properties used when the service evaluates switch rules.
// Values are JSON scalars, slices or nested EvaluationContext/map values.
type EvaluationContext map[string]any

type SwitchCheckResponse struct {
	Status string `json:"status"`
	Value  bool   `json:"value"`
}

type AllSwitchesResponse struct {
	Status   string          `json:"status"`
	Switches map[string]bool `json:"switches"`
}
