package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReservationsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_created_total",
		Help: "Total number of reservations created",
	})

	ReservationsAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_accepted_total",
		Help: "Total number of reservations accepted by pharmacies",
	})

	ReservationsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_rejected_total",
		Help: "Total number of reservations rejected by pharmacies",
	})

	ReservationsCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_cancelled_total",
		Help: "Total number of reservations cancelled by patients",
	})

	ReservationsTimedOutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_timed_out_total",
		Help: "Total number of reservations swept to NO_RESPONSE",
	})

	ReservationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservations_failed_total",
		Help: "Total number of rejected reservation operations",
	}, []string{"reason"})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sweep_duration_seconds",
		Help:    "Duration of timeout sweep passes",
		Buckets: prometheus.DefBuckets,
	})

	SweepFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweep_failures_total",
		Help: "Total number of per-reservation failures during sweeps",
	})

	NotificationsEnqueuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_enqueued_total",
		Help: "Total number of notifications enqueued for delivery",
	})

	NotificationsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Total number of notification dispatch failures",
	})

	NotificationsDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_delivered_total",
		Help: "Total number of notifications written to user mailboxes",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
