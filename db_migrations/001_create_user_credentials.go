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
	"gorm.io/gorm"
)

// Create user_credentials table for storing refreshed end-user token pairs by token subject
var migration001 = migration{
	ID: 1,
	Migrate: func(db *gorm.DB) error {
		createUserCredentialsSQL := `
			CREATE TABLE user_credentials (
				id UUID PRIMARY KEY NOT NULL,
				subject VARCHAR(255) NOT NULL UNIQUE,
				access_token TEXT NOT NULL,
				refresh_token TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP NOT NULL DEFAULT NOW()
			);
		`
		return db.Transaction(func(tx *gorm.DB) error {
			return runSQL(tx, createUserCredentialsSQL)
		})
	},
}
