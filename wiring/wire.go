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

//go:build wireinject
// +build wireinject

package wiring

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/bergx-io/bergx-sdk-go/config"
	"github.com/bergx-io/bergx-sdk-go/services"
)

var configProviderSet = wire.NewSet(
	ProvideConfigFromPtr,
)

var loggerProviderSet = wire.NewSet(
	ProvideLogger,
)

var metricsProviderSet = wire.NewSet(
	ProvideRegistry,
	ProvideMetrics,
)

var storeProviderSet = wire.NewSet(
	ProvideDB,
	ProvideUserCredentialRepository,
	ProvideExpiryEvaluator,
	ProvideCredentialStore,
)

var clientProviderSet = wire.NewSet(
	ProvideBergxClient,
)

func InitializeAppParams(cfg *config.Config) (*AppParams, error) {
	wire.Build(
		configProviderSet,
		loggerProviderSet,
		metricsProviderSet,
		storeProviderSet,
		clientProviderSet,
		wire.Struct(new(AppParams), "*"),
	)
	return &AppParams{}, nil
}

func InitializeTestAppParams(cfg *config.Config, store services.CredentialStoreService) (*AppParams, error) {
	wire.Build(
		configProviderSet,
		loggerProviderSet,
		metricsProviderSet,
		clientProviderSet,
		wire.Value((*gorm.DB)(nil)),
		wire.Struct(new(AppParams), "*"),
	)
	return &AppParams{}, nil
}
