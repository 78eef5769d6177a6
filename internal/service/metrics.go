package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcomes recorded in surat_login_attempts_total.
const (
	OutcomeSuccess       = "success"
	OutcomeInvalid       = "invalid"
	OutcomeUnknownEmail  = "unknown_email"
	OutcomeInactive      = "inactive"
	OutcomeWrongPassword = "wrong_password"
	OutcomeError         = "error"
)

var loginAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "surat_login_attempts_total",
		Help: "Login attempts by outcome",
	},
	[]string{"outcome"},
)
