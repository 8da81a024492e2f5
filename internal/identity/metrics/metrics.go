package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Verification outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeRejected = "rejected"
)

// Metrics provides observability for the provisional identity broker.
type Metrics struct {
	CredentialsIssued *prometheus.CounterVec
	Verifications     *prometheus.CounterVec
	CodeCollisions    prometheus.Counter
	CredentialsSwept  prometheus.Counter
	EstablishDuration prometheus.Histogram
}

// New registers the identity metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CredentialsIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "xup_provisional_credentials_issued_total",
			Help: "Total number of provisional credentials issued by channel",
		}, []string{"channel"}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "xup_provisional_verifications_total",
			Help: "Total number of credential verifications by outcome",
		}, []string{"outcome"}),
		CodeCollisions: f.NewCounter(prometheus.CounterOpts{
			Name: "xup_provisional_code_collisions_total",
			Help: "One-time code collisions that forced a regeneration",
		}),
		CredentialsSwept: f.NewCounter(prometheus.CounterOpts{
			Name: "xup_provisional_credentials_swept_total",
			Help: "Expired provisional credentials removed by the sweeper",
		}),
		EstablishDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "xup_establish_duration_seconds",
			Help:    "Duration of credential establishment (lookup, signing and persistence)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementIssued(channel string) {
	m.CredentialsIssued.WithLabelValues(channel).Inc()
}

func (m *Metrics) IncrementVerification(outcome string) {
	m.Verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementCodeCollision() {
	m.CodeCollisions.Inc()
}

func (m *Metrics) AddSwept(n int) {
	m.CredentialsSwept.Add(float64(n))
}

// ObserveEstablish records the duration of an establish call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveEstablish(start time.Time) {
	m.EstablishDuration.Observe(time.Since(start).Seconds())
}
