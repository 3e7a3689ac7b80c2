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

// Track access token expiry so stale rows can be found without decoding tokens
var migration002 = migration{
	ID: 2,
	Migrate: func(db *gorm.DB) error {
		addExpiresAtSQL := `
			ALTER TABLE user_credentials ADD COLUMN expires_at TIMESTAMP NULL;

			CREATE INDEX idx_user_credentials_expires_at ON user_credentials(expires_at);
		`
		return db.Transaction(func(tx *gorm.DB) error {
			return runSQL(tx, addExpiresAtSQL)
		})
	},
}
