package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finanzas_ledger_operations_total",
			Help: "Ledger mutations by entity, operation and outcome",
		},
		[]string{"entity", "operation", "outcome"},
	)

	overdueEscalations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "finanzas_payments_escalated_total",
			Help: "Pending payments moved to overdue by reconciliation",
		},
	)

	importedTransactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finanzas_imported_transactions_total",
			Help: "Statement entries processed by the importer",
		},
		[]string{"result"},
	)
)

// observe records the outcome of a ledger mutation and passes err through.
func observe(entity, operation string, err error) error {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	ledgerOperations.WithLabelValues(entity, operation, outcome).Inc()
	return err
}
