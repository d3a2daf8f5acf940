// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Auth attempt results.
const (
	AuthSuccess         = "success"
	AuthInvalidPassword = "invalid_password"
	AuthNotFound        = "not_found"
	AuthBlocked         = "blocked"
	AuthError           = "error"
)

// Registration results.
const (
	RegistrationCreated  = "created"
	RegistrationRejected = "rejected"
	RegistrationError    = "error"
)

// Metrics holds the application counters.
type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	AuthAttempts  *prometheus.CounterVec
	Registrations *prometheus.CounterVec
	AnswersStored prometheus.Counter
}

// NewMetrics creates the application metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genocrowd_http_requests_total",
				Help: "Total number of API requests by route pattern and status code",
			},
			[]string{"route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "genocrowd_http_request_duration_seconds",
				Help:    "API request latency by route pattern",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genocrowd_auth_attempts_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genocrowd_registrations_total",
				Help: "Total number of signups by result",
			},
			[]string{"result"},
		),
		AnswersStored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "genocrowd_answers_stored_total",
				Help: "Total number of annotation answers stored",
			},
		),
	}

	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.AuthAttempts, m.Registrations, m.AnswersStored)
	return m
}

// ObserveRequest records one finished API request.
func (m *Metrics) ObserveRequest(route string, status int, seconds float64) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(seconds)
}

// AuthAttempt records a login attempt result.
func (m *Metrics) AuthAttempt(result string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(result).Inc()
}

// Registration records a signup result.
func (m *Metrics) Registration(result string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(result).Inc()
}

// AnswerStored counts a stored answer.
func (m *Metrics) AnswerStored() {
	if m == nil {
		return
	}
	m.AnswersStored.Inc()
}
