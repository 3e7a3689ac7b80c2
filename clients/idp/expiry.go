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
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Clock returns the current wall-clock time.
type Clock func() time.Time

// ExpiryEvaluator reads the exp claim of bearer tokens to decide whether they are still usable.
// Signatures are never checked: the remote service is the signature authority and the result
// is only used to schedule refreshes, never as a security decision.
type ExpiryEvaluator struct {
	now    Clock
	parser *jwt.Parser
}

func NewExpiryEvaluator(now Clock) *ExpiryEvaluator {
	if now == nil {
		now = time.Now
	}
	return &ExpiryEvaluator{
		now:    now,
		parser: jwt.NewParser(),
	}
}

// IsExpired reports true when the token cannot be decoded into a claims object, has no
// numeric exp claim, or exp is strictly before the current time.
func (e *ExpiryEvaluator) IsExpired(token string) bool {
	claims, ok := e.decode(token)
	if !ok {
		return true
	}
	exp, ok := numericClaim(claims["exp"])
	if !ok {
		return true
	}
	return exp < epochSeconds(e.now())
}

// Subject returns the sub claim of the token, or "" when it is missing or undecodable.
func (e *ExpiryEvaluator) Subject(token string) string {
	claims, ok := e.decode(token)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

// ExpiresAt returns the exp claim as a time.
func (e *ExpiryEvaluator) ExpiresAt(token string) (time.Time, bool) {
	claims, ok := e.decode(token)
	if !ok {
		return time.Time{}, false
	}
	exp, ok := numericClaim(claims["exp"])
	if !ok {
		return time.Time{}, false
	}
	sec := int64(exp)
	nsec := int64((exp - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec), true
}

// decode reads the payload segment only. The header is never inspected, so tokens with a
// missing or unknown alg still yield their claims.
func (e *ExpiryEvaluator) decode(token string) (jwt.MapClaims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, false
	}
	payload, err := e.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, false
	}

	var claims jwt.MapClaims
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil || claims == nil {
		return nil, false
	}
	return claims, true
}

func numericClaim(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
