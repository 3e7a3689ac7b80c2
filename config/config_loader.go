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

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"sigs.k8s.io/yaml"

	"github.com/bergx-io/bergx-sdk-go/clients/bergxsvc"
)

// Load reads configuration from the environment. ENV_FILE_PATH names an optional .env file
// and BERGX_CONFIG_FILE an optional YAML file of KEY: value pairs; real environment
// variables take precedence over both.
func Load() (*Config, error) {
	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			return nil, fmt.Errorf("config.Load: failed to load env file %s: %w", envFilePath, err)
		}
	}

	fileValues, err := readConfigFile(os.Getenv("BERGX_CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	r := newConfigReader(os.LookupEnv, fileValues)
	cfg := load(r)
	if err := r.err(); err != nil {
		return nil, err
	}
	slog.Debug("configReader: configs loaded")
	return cfg, nil
}

func load(r *configReader) *Config {
	config := &Config{}
	config.PackageVersion = r.readOptionalString("BERGX_VERSION", Version)
	config.AutoMaxProcsEnabled = r.readOptionalBool("AUTO_MAX_PROCS_ENABLED", true)
	config.LogLevel = r.readOptionalString("LOG_LEVEL", "INFO")

	config.Bergx = BergxConfig{
		ClientID:          r.readRequiredString("BERGX_CLIENT_ID"),
		ClientSecret:      r.readRequiredString("BERGX_CLIENT_SECRET"),
		Host:              r.readOptionalString("BERGX_HOST", bergxsvc.DefaultHost),
		RequestTimeout:    r.readOptionalDuration("BERGX_REQUEST_TIMEOUT", bergxsvc.DefaultRequestTimeout),
		TokenTimeout:      r.readOptionalDuration("BERGX_TOKEN_TIMEOUT", bergxsvc.DefaultRequestTimeout),
		CompletionTimeout: r.readOptionalDuration("BERGX_COMPLETION_TIMEOUT", bergxsvc.DefaultCompletionTimeout),
		RetryAttemptsMax:  int(r.readOptionalInt64("BERGX_RETRY_ATTEMPTS_MAX", 0)),
		RetryWaitMin:      r.readOptionalDuration("BERGX_RETRY_WAIT_MIN", 0),
		RetryWaitMax:      r.readOptionalDuration("BERGX_RETRY_WAIT_MAX", 0),
		RateLimitRPS:      r.readOptionalFloat64("BERGX_RATE_LIMIT_RPS", 0),
		RateLimitBurst:    int(r.readOptionalInt64("BERGX_RATE_LIMIT_BURST", 1)),
	}

	// read database configs
	config.POSTGRESQL = POSTGRESQL{
		Host:     r.readOptionalString("DB_HOST", ""),
		Port:     int(r.readOptionalInt64("DB_PORT", 5432)),
		User:     r.readOptionalString("DB_USER", ""),
		Password: r.readOptionalString("DB_PASSWORD", ""),
		DBName:   r.readOptionalString("DB_NAME", ""),
		SSLMode:  r.readOptionalString("DB_SSL_MODE", "disable"),
	}
	config.POSTGRESQL.DbConfigs = DbConfigs{
		// gorm configs
		SkipDefaultTransaction:    r.readOptionalBool("GORM_SKIP_DEFAULT_TRANSACTION", true),
		SlowThresholdMilliseconds: r.readOptionalInt64("GORM_SLOW_THRESHOLD_MILLISECONDS", 200),

		// sql.DB configs
		MaxIdleCount:       r.readNullableInt64("DB_MAX_IDLE_COUNT"),
		MaxOpenCount:       r.readNullableInt64("DB_MAX_OPEN_COUNT"),
		MaxIdleTimeSeconds: r.readNullableInt64("DB_MAX_IDLE_TIME_SECONDS"),
		MaxLifetimeSeconds: r.readNullableInt64("DB_MAX_LIFETIME_SECONDS"),
	}

	config.OTEL = OTELConfig{
		StdoutTracesEnabled: r.readOptionalBool("OTEL_TRACES_STDOUT", false),
		ServiceName:         r.readOptionalString("OTEL_SERVICE_NAME", "bergx-sdk-go"),
	}

	validateBergxConfigs(config, r)
	validateDatabaseConfigs(config, r)
	return config
}

func validateBergxConfigs(cfg *Config, r *configReader) {
	if cfg.Bergx.RequestTimeout <= 0 {
		r.errors = append(r.errors, fmt.Errorf("BERGX_REQUEST_TIMEOUT must be greater than 0, got %s", cfg.Bergx.RequestTimeout))
	}
	if cfg.Bergx.TokenTimeout <= 0 {
		r.errors = append(r.errors, fmt.Errorf("BERGX_TOKEN_TIMEOUT must be greater than 0, got %s", cfg.Bergx.TokenTimeout))
	}
	if cfg.Bergx.CompletionTimeout <= 0 {
		r.errors = append(r.errors, fmt.Errorf("BERGX_COMPLETION_TIMEOUT must be greater than 0, got %s", cfg.Bergx.CompletionTimeout))
	}
	if cfg.Bergx.RetryAttemptsMax < 0 {
		r.errors = append(r.errors, fmt.Errorf("BERGX_RETRY_ATTEMPTS_MAX must not be negative, got %d", cfg.Bergx.RetryAttemptsMax))
	}
	if cfg.Bergx.RateLimitRPS > 0 && cfg.Bergx.RateLimitBurst < 1 {
		r.errors = append(r.errors, fmt.Errorf("BERGX_RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled, got %d", cfg.Bergx.RateLimitBurst))
	}
}

func validateDatabaseConfigs(cfg *Config, r *configReader) {
	if !cfg.POSTGRESQL.Enabled() {
		return
	}
	if cfg.POSTGRESQL.Port < 1 || cfg.POSTGRESQL.Port > 65535 {
		r.errors = append(r.errors, fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", cfg.POSTGRESQL.Port))
	}
	if cfg.POSTGRESQL.User == "" {
		r.errors = append(r.errors, errors.New("DB_USER is required when DB_HOST is set"))
	}
	if cfg.POSTGRESQL.DBName == "" {
		r.errors = append(r.errors, errors.New("DB_NAME is required when DB_HOST is set"))
	}
}

// readConfigFile parses a flat YAML document into string values keyed like env vars
func readConfigFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: failed to read config file %s: %w", path, err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config.Load: failed to parse config file %s: %w", path, err)
	}
	values := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
		case string:
			values[key] = v
		case []interface{}:
			values[key] = joinList(v)
		case map[string]interface{}:
			return nil, fmt.Errorf("config.Load: config file key %s must be a scalar or list", key)
		default:
			values[key] = fmt.Sprint(v)
		}
	}
	return values, nil
}

func joinList(items []interface{}) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprint(item)
	}
	return out
}

// ClientConfig maps the loaded settings onto a bergxsvc.Config. Handlers, metrics and the
// base HTTP client are left for the caller.
func (c *Config) ClientConfig() *bergxsvc.Config {
	return &bergxsvc.Config{
		ClientID:          c.Bergx.ClientID,
		ClientSecret:      c.Bergx.ClientSecret,
		Host:              c.Bergx.Host,
		RequestTimeout:    c.Bergx.RequestTimeout,
		TokenTimeout:      c.Bergx.TokenTimeout,
		CompletionTimeout: c.Bergx.CompletionTimeout,
		RetryConfig:       c.Bergx.retryConfig(),
	}
}
