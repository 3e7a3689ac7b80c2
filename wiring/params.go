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

package wiring

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/bergx-io/bergx-sdk-go/clients/bergxsvc"
	"github.com/bergx-io/bergx-sdk-go/clients/idp"
	"github.com/bergx-io/bergx-sdk-go/config"
	"github.com/bergx-io/bergx-sdk-go/db"
	"github.com/bergx-io/bergx-sdk-go/metrics"
	"github.com/bergx-io/bergx-sdk-go/repositories"
	"github.com/bergx-io/bergx-sdk-go/services"
)

// AppParams contains all wired application dependencies
type AppParams struct {
	Config config.Config
	Logger *slog.Logger

	// Clients
	BergxClient bergxsvc.BergxClient

	// Services. CredentialStore is nil when no database is configured.
	CredentialStore services.CredentialStoreService

	// Metrics
	Registry *prometheus.Registry

	// Database, nil when no database is configured
	DB *gorm.DB
}

func ProvideConfigFromPtr(config *config.Config) config.Config {
	return *config
}

// ProvideLogger provides the configured slog.Logger instance
func ProvideLogger() *slog.Logger {
	return slog.Default()
}

// ProvideRegistry provides a private registry so SDK collectors never clash with the host process
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func ProvideMetrics(registry *prometheus.Registry) *metrics.Collectors {
	return metrics.NewCollectors(registry)
}

func ProvideExpiryEvaluator() *idp.ExpiryEvaluator {
	return idp.NewExpiryEvaluator(nil)
}

// ProvideDB opens the credential store database when DB_HOST is set
func ProvideDB(cfg config.Config) (*gorm.DB, error) {
	if !cfg.POSTGRESQL.Enabled() {
		return nil, nil
	}
	return db.NewDB(cfg.POSTGRESQL)
}

func ProvideUserCredentialRepository(gormDB *gorm.DB) repositories.UserCredentialRepository {
	if gormDB == nil {
		return nil
	}
	return repositories.NewUserCredentialRepo(gormDB)
}

func ProvideCredentialStore(repo repositories.UserCredentialRepository, expiry *idp.ExpiryEvaluator, logger *slog.Logger) services.CredentialStoreService {
	if repo == nil {
		return nil
	}
	return services.NewCredentialStoreService(repo, expiry, logger)
}

// ProvideBergxClient creates the Bergx client, reporting refreshed user tokens to the
// credential store when one is available
func ProvideBergxClient(cfg config.Config, store services.CredentialStoreService, collectors *metrics.Collectors) (bergxsvc.BergxClient, error) {
	clientConfig := cfg.ClientConfig()
	clientConfig.Metrics = collectors
	if store != nil {
		clientConfig.RefreshHandler = store
	}
	return bergxsvc.NewBergxClient(clientConfig)
}
