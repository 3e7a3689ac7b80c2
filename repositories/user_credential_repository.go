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

package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bergx-io/bergx-sdk-go/models"
)

// UserCredentialRepository defines the interface for user credential data access
type UserCredentialRepository interface {
	UpsertUserCredential(ctx context.Context, cred *models.UserCredentialRecord) error
	GetUserCredentialBySubject(ctx context.Context, subject string) (*models.UserCredentialRecord, error)
	DeleteUserCredential(ctx context.Context, subject string) error
}

// UserCredentialRepo implements UserCredentialRepository using GORM
type UserCredentialRepo struct {
	db *gorm.DB
}

// NewUserCredentialRepo creates a new user credential repository
func NewUserCredentialRepo(db *gorm.DB) UserCredentialRepository {
	return &UserCredentialRepo{db: db}
}

// UpsertUserCredential inserts the record or replaces the tokens stored for its subject
func (r *UserCredentialRepo) UpsertUserCredential(ctx context.Context, cred *models.UserCredentialRecord) error {
	now := time.Now()
	if cred.ID == uuid.Nil {
		cred.ID = uuid.New()
	}
	cred.CreatedAt = now
	cred.UpdatedAt = now
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expires_at", "updated_at"}),
	}).Create(cred).Error
}

// GetUserCredentialBySubject returns nil when no record exists for subject
func (r *UserCredentialRepo) GetUserCredentialBySubject(ctx context.Context, subject string) (*models.UserCredentialRecord, error) {
	var cred models.UserCredentialRecord
	err := r.db.WithContext(ctx).Where("subject = ?", subject).First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

// DeleteUserCredential removes the record for subject
func (r *UserCredentialRepo) DeleteUserCredential(ctx context.Context, subject string) error {
	return r.db.WithContext(ctx).Where("subject = ?", subject).Delete(&models.UserCredentialRecord{}).Error
}
