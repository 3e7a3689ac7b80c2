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

package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bergx-io/bergx-sdk-go/config"
)

// NewDB opens the credential store database described by cfg
func NewDB(cfg config.POSTGRESQL) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	gormLogger := gormlogger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
		gormlogger.Config{
			SlowThreshold:             time.Duration(cfg.SlowThresholdMilliseconds) * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: cfg.SkipDefaultTransaction,
		Logger:                 gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("db.NewDB: failed to connect to %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.NewDB: failed to get sql.DB: %w", err)
	}
	if cfg.MaxIdleCount != nil {
		sqlDB.SetMaxIdleConns(int(*cfg.MaxIdleCount))
	}
	if cfg.MaxOpenCount != nil {
		sqlDB.SetMaxOpenConns(int(*cfg.MaxOpenCount))
	}
	if cfg.MaxLifetimeSeconds != nil {
		sqlDB.SetConnMaxLifetime(time.Duration(*cfg.MaxLifetimeSeconds) * time.Second)
	}
	if cfg.MaxIdleTimeSeconds != nil {
		sqlDB.SetConnMaxIdleTime(time.Duration(*cfg.MaxIdleTimeSeconds) * time.Second)
	}

	slog.Info("db: connected to credential store", "host", cfg.Host, "database", cfg.DBName)
	return db, nil
}
