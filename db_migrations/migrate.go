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

package dbmigrations

import (
	"fmt"
	"log/slog"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// MigrationsTable records applied credential store migrations
const MigrationsTable = "bergx_schema_migrations"

type migration struct {
	ID      int
	Migrate func(db *gorm.DB) error
}

// migrations must stay ordered by ID; applied IDs are never reused
var migrations = []migration{
	migration001,
	migration002,
}

// Migrate applies every pending migration
func Migrate(db *gorm.DB) error {
	options := *gormigrate.DefaultOptions
	options.TableName = MigrationsTable
	options.ValidateUnknownMigrations = true

	m := gormigrate.New(db, &options, toGormigrate(migrations))
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("dbmigrations.Migrate: %w", err)
	}
	slog.Info("dbmigrations: credential store schema is up to date", "migrations", len(migrations))
	return nil
}

func toGormigrate(ms []migration) []*gormigrate.Migration {
	out := make([]*gormigrate.Migration, 0, len(ms))
	for _, m := range ms {
		out = append(out, &gormigrate.Migration{
			ID:      fmt.Sprintf("%03d", m.ID),
			Migrate: m.Migrate,
		})
	}
	return out
}

func runSQL(db *gorm.DB, sql string) error {
	return db.Exec(sql).Error
}
