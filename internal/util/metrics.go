package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restaurant_orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restaurant_orders_completed_total",
		Help: "Total number of orders marked completed",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_orders_failed_total",
		Help: "Total number of rejected order operations",
	}, []string{"reason"})

	ReservationsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restaurant_reservations_created_total",
		Help: "Total number of reservations created",
	})

	ReservationsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restaurant_reservations_deleted_total",
		Help: "Total number of reservations deleted",
	})

	BillsSettledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restaurant_bills_settled_total",
		Help: "Total number of bills settled",
	})

	BillsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_bills_rejected_total",
		Help: "Total number of rejected settlement attempts",
	}, []string{"reason"})

	AggregateMismatchTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restaurant_aggregate_mismatch_total",
		Help: "Settlements where client figures disagreed with the aggregator",
	})

	TableStatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_table_status_transitions_total",
		Help: "Total number of table status writes",
	}, []string{"status"})

	SettlementLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "restaurant_settlement_latency_seconds",
		Help:    "Latency of bill settlement operations",
		Buckets: prometheus.DefBuckets,
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
