package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AccrualTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accrual_ticks_total",
			Help: "Total number of accrual engine ticks",
		},
	)

	AccrualInvestmentsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accrual_investments_processed_total",
			Help: "Active investments visited by the accrual engine",
		},
	)

	AccrualErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accrual_errors_total",
			Help: "Investments skipped due to an error during a tick",
		},
	)

	InvestmentsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "investments_completed_total",
			Help: "Investments that reached maturity",
		},
	)

	WithdrawalsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawals_resolved_total",
			Help: "Withdrawal resolutions by type and outcome",
		},
		[]string{"type", "status"},
	)
)
