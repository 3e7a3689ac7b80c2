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

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bergx_sdk"

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collectors groups the SDK's prometheus collectors. A nil *Collectors is valid and records nothing.
type Collectors struct {
	TokenAcquisitions *prometheus.CounterVec
	Requests          *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	CompletionWaits   *prometheus.CounterVec
}

// NewCollectors creates the collectors and registers them on reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		TokenAcquisitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_acquisitions_total",
			Help:      "OAuth token exchanges performed, by grant and outcome.",
		}, []string{"grant", "outcome"}),
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Dispatched API requests, by scope, method and outcome.",
		}, []string{"scope", "method", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of dispatched API requests including credential resolution.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"scope", "method"}),
		CompletionWaits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_waits_total",
			Help:      "Completion waits for pending server-side work, by outcome.",
		}, []string{"outcome"}),
	}
}

func (c *Collectors) ObserveTokenAcquisition(grant string, err error) {
	if c == nil {
		return
	}
	c.TokenAcquisitions.WithLabelValues(grant, outcome(err)).Inc()
}

func (c *Collectors) ObserveRequest(scope, method string, started time.Time, err error) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(scope, method, outcome(err)).Inc()
	c.RequestDuration.WithLabelValues(scope, method).Observe(time.Since(started).Seconds())
}

func (c *Collectors) ObserveCompletionWait(err error) {
	if c == nil {
		return
	}
	c.CompletionWaits.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
