package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"

	OutcomeAllowed    = "allowed"
	OutcomeDenied     = "denied"
	OutcomeRedirected = "redirected"
)

var (
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booklib_logins_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	Logouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booklib_logouts_total",
		Help: "Logouts, explicit or triggered by expiry or a guard",
	})

	ExpiriesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booklib_expiries_detected_total",
		Help: "Credential expiries detected by the expiry monitor",
	})

	GuardDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booklib_guard_decisions_total",
		Help: "Access guard decisions by guard and outcome",
	}, []string{"guard", "outcome"})

	MonitorArmed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "booklib_monitor_armed",
		Help: "1 while the expiry monitor is armed",
	})
)

// SetMonitorArmed mirrors the monitor state into the gauge
func SetMonitorArmed(armed bool) {
	if armed {
		MonitorArmed.Set(1)
		return
	}
	MonitorArmed.Set(0)
}
