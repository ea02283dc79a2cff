package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TxTotal counts ledger transactions by backend and outcome.
	TxTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "privymarket_ledger_transactions_total",
			Help: "Total number of ledger transactions",
		},
		[]string{"backend", "outcome"},
	)

	// TransferVolume accumulates value moved between ledger accounts.
	TransferVolume = promauto.NewCounter(prometheus.CounterOpts{
		Name: "privymarket_ledger_transfer_volume_total",
		Help: "Total value transferred between ledger accounts",
	})
)
