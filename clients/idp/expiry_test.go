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

package idp

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return token
}

// rawToken assembles a token from arbitrary header and payload JSON without signing it.
func rawToken(t *testing.T, header map[string]any, payload any) string {
	t.Helper()
	segment := func(v any) string {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(b)
	}
	return segment(header) + "." + segment(payload) + ".c2ln"
}

func TestExpiryEvaluator_IsExpired(t *testing.T) {
	evaluator := NewExpiryEvaluator(fixedClock(testNow))
	nowSeconds := float64(testNow.Unix())

	tests := []struct {
		name    string
		token   string
		expired bool
	}{
		{
			name:    "exp in the past is expired",
			token:   signToken(t, jwt.MapClaims{"exp": nowSeconds - 60}),
			expired: true,
		},
		{
			name:    "exp in the future is live",
			token:   signToken(t, jwt.MapClaims{"exp": nowSeconds + 60}),
			expired: false,
		},
		{
			name:    "exp equal to now is live",
			token:   signToken(t, jwt.MapClaims{"exp": nowSeconds}),
			expired: false,
		},
		{
			name:    "fractional exp half a second ago is expired",
			token:   signToken(t, jwt.MapClaims{"exp": nowSeconds - 0.5}),
			expired: true,
		},
		{
			name:    "fractional exp half a second ahead is live",
			token:   signToken(t, jwt.MapClaims{"exp": nowSeconds + 0.5}),
			expired: false,
		},
		{
			name:    "missing exp is expired",
			token:   signToken(t, jwt.MapClaims{"sub": "user-1"}),
			expired: true,
		},
		{
			name:    "non numeric exp is expired",
			token:   signToken(t, jwt.MapClaims{"exp": "tomorrow"}),
			expired: true,
		},
		{
			name:    "opaque token is expired",
			token:   "not-a-jwt",
			expired: true,
		},
		{
			name:    "empty token is expired",
			token:   "",
			expired: true,
		},
		{
			name:    "header without alg is live when exp is ahead",
			token:   rawToken(t, map[string]any{"typ": "JWT"}, map[string]any{"exp": nowSeconds + 60}),
			expired: false,
		},
		{
			name:    "unregistered alg is live when exp is ahead",
			token:   rawToken(t, map[string]any{"alg": "ES256K", "typ": "JWT"}, map[string]any{"exp": nowSeconds + 60}),
			expired: false,
		},
		{
			name:    "unregistered alg with exp in the past is expired",
			token:   rawToken(t, map[string]any{"alg": "ES256K"}, map[string]any{"exp": nowSeconds - 60}),
			expired: true,
		},
		{
			name:    "payload that is not an object is expired",
			token:   rawToken(t, map[string]any{"alg": "HS256"}, []int{1, 2}),
			expired: true,
		},
		{
			name:    "garbage payload segment is expired",
			token:   "eyJhbGciOiJIUzI1NiJ9.%%%.sig",
			expired: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, evaluator.IsExpired(tt.token))
		})
	}
}

func TestExpiryEvaluator_IgnoresSignature(t *testing.T) {
	evaluator := NewExpiryEvaluator(fixedClock(testNow))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": testNow.Add(time.Hour).Unix(),
	}).SignedString([]byte("some-other-key"))
	require.NoError(t, err)

	assert.False(t, evaluator.IsExpired(token))
}

func TestExpiryEvaluator_FollowsClock(t *testing.T) {
	current := testNow
	evaluator := NewExpiryEvaluator(func() time.Time { return current })
	token := signToken(t, jwt.MapClaims{"exp": testNow.Add(time.Minute).Unix()})

	assert.False(t, evaluator.IsExpired(token))
	current = testNow.Add(2 * time.Minute)
	assert.True(t, evaluator.IsExpired(token))
}

func TestExpiryEvaluator_Claims(t *testing.T) {
	evaluator := NewExpiryEvaluator(fixedClock(testNow))
	exp := testNow.Add(time.Hour)
	token := signToken(t, jwt.MapClaims{"sub": "user-42", "exp": exp.Unix()})

	t.Run("subject is read from the sub claim", func(t *testing.T) {
		assert.Equal(t, "user-42", evaluator.Subject(token))
		assert.Empty(t, evaluator.Subject("opaque"))
	})

	t.Run("subject is read whatever the header alg", func(t *testing.T) {
		noAlg := rawToken(t, map[string]any{"typ": "JWT"}, map[string]any{"sub": "u1", "exp": exp.Unix()})
		unknownAlg := rawToken(t, map[string]any{"alg": "ES256K"}, map[string]any{"sub": "u1", "exp": exp.Unix()})

		assert.Equal(t, "u1", evaluator.Subject(noAlg))
		assert.Equal(t, "u1", evaluator.Subject(unknownAlg))
	})

	t.Run("expires at is read from the exp claim", func(t *testing.T) {
		got, ok := evaluator.ExpiresAt(token)
		require.True(t, ok)
		assert.True(t, exp.Equal(got), "expected %s, got %s", exp, got)

		_, ok = evaluator.ExpiresAt(signToken(t, jwt.MapClaims{"sub": "user-42"}))
		assert.False(t, ok)
	})
}
