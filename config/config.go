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

import "time"

// Version is set at build time via ldflags.
var Version = "dev"

// Config holds all configuration for the bergx CLI and its wiring
type Config struct {
	PackageVersion      string
	AutoMaxProcsEnabled bool
	LogLevel            string

	Bergx BergxConfig

	// POSTGRESQL backs the optional user credential store. Enabled only when Host is set.
	POSTGRESQL POSTGRESQL

	// OpenTelemetry configuration
	OTEL OTELConfig
}

// BergxConfig holds the client application credentials and call policy
type BergxConfig struct {
	ClientID     string
	ClientSecret string `json:"-"`
	Host         string

	RequestTimeout    time.Duration
	TokenTimeout      time.Duration
	CompletionTimeout time.Duration

	RetryAttemptsMax int
	RetryWaitMin     time.Duration
	RetryWaitMax     time.Duration

	// RateLimitRPS <= 0 disables client-side rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
}

type POSTGRESQL struct {
	Host     string
	Port     int
	User     string
	DBName   string
	Password string `json:"-"`
	SSLMode  string
	DbConfigs
}

// Enabled reports whether a database was configured
func (p POSTGRESQL) Enabled() bool {
	return p.Host != ""
}

type DbConfigs struct {
	// gorm configs
	SlowThresholdMilliseconds int64
	SkipDefaultTransaction    bool

	// go sql configs
	MaxIdleCount       *int64 // zero means defaultMaxIdleConns (2); negative means 0
	MaxOpenCount       *int64 // <= 0 means unlimited
	MaxLifetimeSeconds *int64 // maximum amount of time a connection may be reused
	MaxIdleTimeSeconds *int64
}

type OTELConfig struct {
	// StdoutTracesEnabled exports spans as JSON to stderr
	StdoutTracesEnabled bool
	ServiceName         string
}
