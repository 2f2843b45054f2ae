package command

import "github.com/prometheus/client_golang/prometheus"

var (
	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_service_orders_total",
			Help: "Order requests by outcome",
		},
		[]string{"outcome"},
	)

	depletionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_service_depletion_failures_total",
			Help: "Line items whose inventory depletion failed after the order was persisted",
		},
		[]string{"reason"},
	)

	compensationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_service_compensations_total",
			Help: "Restock calls issued to undo a cancelled order",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(ordersTotal, depletionFailuresTotal, compensationsTotal)
}
