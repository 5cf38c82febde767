package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginsTotal counts successful logins.
	LoginsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrattend_logins_total",
		Help: "Successful logins.",
	})

	// SessionsCreatedTotal counts minted QR sessions.
	SessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrattend_sessions_created_total",
		Help: "QR sessions created.",
	})

	// AttendanceMarkedTotal counts persisted attendance records.
	AttendanceMarkedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrattend_attendance_marked_total",
		Help: "Attendance records persisted.",
	})

	// WorkerEventsTotal counts marked-attendance events seen by the worker.
	WorkerEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrattend_worker_events_total",
		Help: "Marked-attendance events consumed by the worker.",
	})
)
