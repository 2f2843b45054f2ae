package command

import "github.com/prometheus/client_golang/prometheus"

var (
	depletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_service_depletions_total",
			Help: "Depletion requests by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	depletedUnitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_service_depleted_units_total",
			Help: "Units removed from batches, including partial drains of failed depletions",
		},
		[]string{"strategy"},
	)

	restockedUnitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_service_restocked_units_total",
			Help: "Units credited back to batches",
		},
	)
)

func init() {
	prometheus.MustRegister(depletionsTotal)
	prometheus.MustRegister(depletedUnitsTotal)
	prometheus.MustRegister(restockedUnitsTotal)
}
