package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/warp/frontdesk/billing"
)

const namespace = "frontdesk"

// Metrics counts front-desk business events. It satisfies
// frontdesk.Recorder.
type Metrics struct {
	checkouts         *prometheus.CounterVec
	checkoutRejects   *prometheus.CounterVec
	companyPayments   *prometheus.CounterVec
	reconciliations   *prometheus.CounterVec
	statusCorrections prometheus.Counter
	auditEntries      *prometheus.CounterVec
}

// New registers the front-desk collectors on registerer. A nil registerer
// means prometheus.DefaultRegisterer.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Completed checkouts by settlement route.",
		}, []string{"route"}),
		checkoutRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_rejections_total",
			Help:      "Refused checkouts by low-cardinality reason.",
		}, []string{"reason"}),
		companyPayments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "company_payment_changes_total",
			Help:      "Company payment mutations by operation.",
		}, []string{"op"}),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "company_reconciliations_total",
			Help:      "Company settlement recomputations by outcome.",
		}, []string{"settled"}),
		statusCorrections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_status_changes_total",
			Help:      "Reservation statuses rewritten by reconciliation.",
		}),
		auditEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_total",
			Help:      "Committed audit entries by action.",
		}, []string{"action"}),
	}

	registerer.MustRegister(
		m.checkouts,
		m.checkoutRejects,
		m.companyPayments,
		m.reconciliations,
		m.statusCorrections,
		m.auditEntries,
	)
	return m
}

func (m *Metrics) CheckoutCompleted(invoiced bool) {
	route := "paid"
	if invoiced {
		route = "invoiced"
	}
	m.checkouts.WithLabelValues(route).Inc()
}

func (m *Metrics) CheckoutRejected(reason string) {
	m.checkoutRejects.WithLabelValues(reason).Inc()
}

func (m *Metrics) CompanyPaymentChanged(op string) {
	m.companyPayments.WithLabelValues(op).Inc()
}

func (m *Metrics) Reconciled(settled bool, statusChanges int) {
	m.reconciliations.WithLabelValues(strconv.FormatBool(settled)).Inc()
	if statusChanges > 0 {
		m.statusCorrections.Add(float64(statusChanges))
	}
}

func (m *Metrics) AuditAppended(action billing.AuditAction) {
	m.auditEntries.WithLabelValues(string(action)).Inc()
}
