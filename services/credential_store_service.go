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

package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bergx-io/bergx-sdk-go/clients/bergxsvc"
	"github.com/bergx-io/bergx-sdk-go/clients/idp"
	"github.com/bergx-io/bergx-sdk-go/models"
	"github.com/bergx-io/bergx-sdk-go/repositories"
	"github.com/bergx-io/bergx-sdk-go/utils"
)

// CredentialStoreService persists refreshed end-user tokens so later calls can reuse them.
// It is a bergxsvc.CredentialRefreshHandler.
type CredentialStoreService interface {
	bergxsvc.CredentialRefreshHandler
	SaveUser(ctx context.Context, subject string, cred bergxsvc.UserCredential) error
	LoadUser(ctx context.Context, subject string) (bergxsvc.UserCredential, error)
	ForgetUser(ctx context.Context, subject string) error
}

type credentialStoreService struct {
	repo   repositories.UserCredentialRepository
	expiry *idp.ExpiryEvaluator
	logger *slog.Logger
}

func NewCredentialStoreService(repo repositories.UserCredentialRepository, expiry *idp.ExpiryEvaluator, logger *slog.Logger) CredentialStoreService {
	return &credentialStoreService{
		repo:   repo,
		expiry: expiry,
		logger: logger,
	}
}

// OnCredentialRefresh stores the refreshed pair under the token subject. Storage failures are
// logged; the refreshed token is still used by the call that triggered the refresh.
func (s *credentialStoreService) OnCredentialRefresh(ctx context.Context, cred bergxsvc.RefreshedCredential) {
	if cred.UserSub == "" {
		s.logger.Warn("Refreshed user token has no subject claim, not storing it")
		return
	}
	err := s.SaveUser(ctx, cred.UserSub, bergxsvc.UserCredential{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
	})
	if err != nil {
		s.logger.Error("Failed to store refreshed user credential", "userSub", cred.UserSub, "error", err)
		return
	}
	s.logger.Debug("Stored refreshed user credential", "userSub", cred.UserSub)
}

func (s *credentialStoreService) SaveUser(ctx context.Context, subject string, cred bergxsvc.UserCredential) error {
	if subject == "" {
		return fmt.Errorf("services.SaveUser: %w: subject is required", utils.ErrInvalidInput)
	}
	record := &models.UserCredentialRecord{
		Subject:      subject,
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
	}
	if expiresAt, ok := s.expiry.ExpiresAt(cred.AccessToken); ok {
		record.ExpiresAt = &expiresAt
	}
	if err := s.repo.UpsertUserCredential(ctx, record); err != nil {
		return fmt.Errorf("services.SaveUser: failed to store credential for %s: %w", subject, err)
	}
	return nil
}

func (s *credentialStoreService) LoadUser(ctx context.Context, subject string) (bergxsvc.UserCredential, error) {
	record, err := s.repo.GetUserCredentialBySubject(ctx, subject)
	if err != nil {
		return bergxsvc.UserCredential{}, fmt.Errorf("services.LoadUser: failed to read credential for %s: %w", subject, err)
	}
	if record == nil {
		return bergxsvc.UserCredential{}, fmt.Errorf("services.LoadUser: %w: %s", utils.ErrCredentialNotFound, subject)
	}
	return bergxsvc.UserCredential{
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
	}, nil
}

func (s *credentialStoreService) ForgetUser(ctx context.Context, subject string) error {
	if err := s.repo.DeleteUserCredential(ctx, subject); err != nil {
		return fmt.Errorf("services.ForgetUser: failed to delete credential for %s: %w", subject, err)
	}
	return nil
}
