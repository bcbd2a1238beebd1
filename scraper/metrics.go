package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request phases used as the "phase" label.
const (
	phaseDiscovery = "discovery"
	phasePage      = "page"
	phaseItem      = "item"
)

// Metrics bundles Prometheus collectors for the scraper. All collectors are
// shared by every worker of a run.
type Metrics struct {
	Registry           *prometheus.Registry
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    prometheus.Histogram
	RecordsTotal       prometheus.Counter
	ItemsFailedTotal   prometheus.Counter
	PagesFailedTotal   prometheus.Counter
	RetriesTotal       prometheus.Counter
	ErrorsTotal        *prometheus.CounterVec
	MissingFieldsTotal *prometheus.CounterVec
	ActiveWorkers      prometheus.Gauge
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total page navigations issued by the scraper.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "Navigation latency for scraper requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	records := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_records_written_total",
			Help: "Total number of records persisted by workers.",
		},
	)
	itemsFailed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_items_failed_total",
			Help: "Total number of item pages that could not be loaded.",
		},
	)
	pagesFailed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_pages_failed_total",
			Help: "Total number of catalog pages skipped after retries.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_retries_total",
			Help: "Total number of retry attempts scheduled.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)
	missing := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_missing_fields_total",
			Help: "Fields written with the sentinel value, by field.",
		},
		[]string{"field"},
	)
	active := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_active_workers",
			Help: "Workers currently processing a partition.",
		},
	)

	registry.MustRegister(requests, requestDuration, records, itemsFailed, pagesFailed, retries, errorsTotal, missing, active)

	return &Metrics{
		Registry:           registry,
		RequestsTotal:      requests,
		RequestDuration:    requestDuration,
		RecordsTotal:       records,
		ItemsFailedTotal:   itemsFailed,
		PagesFailedTotal:   pagesFailed,
		RetriesTotal:       retries,
		ErrorsTotal:        errorsTotal,
		MissingFieldsTotal: missing,
		ActiveWorkers:      active,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records a navigation duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncRecords increments the records written counter.
func (m *Metrics) IncRecords() {
	if m == nil {
		return
	}
	m.RecordsTotal.Inc()
}

// IncItemFailed increments the failed items counter.
func (m *Metrics) IncItemFailed() {
	if m == nil {
		return
	}
	m.ItemsFailedTotal.Inc()
}

// IncPageFailed increments the failed pages counter.
func (m *Metrics) IncPageFailed() {
	if m == nil {
		return
	}
	m.PagesFailedTotal.Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// AddMissing counts sentinel fields of one record.
func (m *Metrics) AddMissing(fields []string) {
	if m == nil {
		return
	}
	for _, f := range fields {
		m.MissingFieldsTotal.WithLabelValues(f).Inc()
	}
}

// WorkerStarted and WorkerDone track the active workers gauge.
func (m *Metrics) WorkerStarted() {
	if m == nil {
		return
	}
	m.ActiveWorkers.Inc()
}

func (m *Metrics) WorkerDone() {
	if m == nil {
		return
	}
	m.ActiveWorkers.Dec()
}
