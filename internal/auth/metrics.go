// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the authentication core. Outcome labels name the internal
// failure kind; like logs, they are diagnostics and never reach response
// content.
var (
	// credentialVerifications counts AuthenticateCreds calls by outcome.
	credentialVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatewarden_credential_verifications_total",
		Help: "Total credential verification attempts by outcome",
	}, []string{"outcome"})

	// verificationDuration tracks AuthenticateCreds latency. The present
	// and absent-user series should be statistically indistinguishable.
	verificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gatewarden_credential_verification_duration_seconds",
		Help:    "Histogram of credential verification latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// sessionsIssued counts successfully issued sessions.
	sessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatewarden_sessions_issued_total",
		Help: "Total sessions issued",
	})

	// SessionsReaped counts sessions removed by the external reaper.
	SessionsReaped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatewarden_sessions_reaped_total",
		Help: "Total expired sessions removed by reaping",
	})
)

// observeVerification records the latency and outcome of one
// AuthenticateCreds call.
func observeVerification(elapsed time.Duration, err error) {
	verificationDuration.Observe(elapsed.Seconds())
	credentialVerifications.WithLabelValues(outcomeLabel(err)).Inc()
}

func recordSessionIssued() {
	sessionsIssued.Inc()
}

// outcomeLabel maps an error to its metric label.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCredentialsInvalid):
		return "credentials_invalid"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrSessionInvalid):
		return "session_invalid"
	case errors.Is(err, ErrBackendFailure):
		return "backend_failure"
	default:
		return "error"
	}
}
