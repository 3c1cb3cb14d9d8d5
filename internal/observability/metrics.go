package observability

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

var (
	workflowConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_conflicts_total",
		Help: "Total number of workflow operations rejected with a conflict",
	}, []string{"operation"})

	paymentsVerifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_verified_total",
		Help: "Total number of payment verifications by result",
	}, []string{"result"})

	refundsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "refunds_failed_total",
		Help: "Total number of refunds the gateway failed to process",
	})

	gatewayBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gateway_breaker_state",
		Help: "Payment gateway circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"breaker"})
)

// CountConflict counts err under operation when it is a conflict.
func CountConflict(operation string, err error) {
	if errors.Is(err, entities.ErrConflict) {
		workflowConflictsTotal.WithLabelValues(operation).Inc()
	}
}

func CountPaymentVerified(result string) {
	paymentsVerifiedTotal.WithLabelValues(result).Inc()
}

func CountRefundFailed() {
	refundsFailedTotal.Inc()
}

func SetBreakerState(name string, state int) {
	gatewayBreakerState.WithLabelValues(name).Set(float64(state))
}
