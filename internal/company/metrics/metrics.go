package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the company registry.
type Metrics struct {
	CompaniesCreated prometheus.Counter
	CompaniesDeleted prometheus.Counter
	TelegramLinks    prometheus.Counter
	LookupDuration   prometheus.Histogram
	CreateDuration   prometheus.Histogram
}

// New registers the company metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CompaniesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "xup_companies_created_total",
			Help: "Total number of companies created",
		}),
		CompaniesDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "xup_companies_deleted_total",
			Help: "Total number of companies deleted",
		}),
		TelegramLinks: f.NewCounter(prometheus.CounterOpts{
			Name: "xup_telegram_link_requests_total",
			Help: "Total number of telegram auth link requests",
		}),
		LookupDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "xup_company_lookup_duration_seconds",
			Help:    "Duration of company lookups by id, buid or email",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CreateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "xup_company_create_duration_seconds",
			Help:    "Duration of company creation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	m.CompaniesCreated.Inc()
}

func (m *Metrics) IncrementDeleted() {
	m.CompaniesDeleted.Inc()
}

func (m *Metrics) IncrementTelegramLinks() {
	m.TelegramLinks.Inc()
}

// ObserveLookup records the duration of a lookup.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveLookup(start time.Time) {
	m.LookupDuration.Observe(time.Since(start).Seconds())
}

// ObserveCreate records the duration of a create.
func (m *Metrics) ObserveCreate(start time.Time) {
	m.CreateDuration.Observe(time.Since(start).Seconds())
}
