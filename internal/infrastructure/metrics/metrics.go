package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/usecase"
)

// Metrics holds all Prometheus metrics and implements usecase.MetricsRecorder.
type Metrics struct {
	// Transfer metrics
	Transfers        *prometheus.CounterVec
	TransferDuration prometheus.Histogram
	TransferAmount   prometheus.Histogram

	// Deposit metrics
	Deposits    *prometheus.CounterVec
	Settlements *prometheus.CounterVec
	Webhooks    *prometheus.CounterVec

	// Sweep metrics
	SweepRuns     prometheus.Counter
	SweepDuration prometheus.Histogram
	SweepResults  *prometheus.CounterVec

	// Gateway metrics
	GatewayRequests *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates and registers all metrics with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Transfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_transfers_total",
				Help: "Total number of transfers by outcome",
			},
			[]string{"outcome"},
		),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gowallet_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gowallet_transfer_amount",
			Help:    "Amounts of successful transfers",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		Deposits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_deposits_initiated_total",
				Help: "Total deposit initiations by outcome",
			},
			[]string{"outcome"},
		),
		Settlements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_settlements_total",
				Help: "Gateway outcomes applied to the ledger by source and result",
			},
			[]string{"source", "outcome"},
		),
		Webhooks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_webhooks_total",
				Help: "Received gateway webhooks by outcome",
			},
			[]string{"outcome"},
		),

		SweepRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_sweep_runs_total",
			Help: "Total number of reconciliation sweeps",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gowallet_sweep_duration_seconds",
			Help:    "Duration of reconciliation sweeps",
			Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300},
		}),
		SweepResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_sweep_deposits_total",
				Help: "Deposits handled by the sweeper by result",
			},
			[]string{"result"},
		),

		GatewayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_gateway_requests_total",
				Help: "Payment gateway requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		GatewayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gowallet_gateway_request_duration_seconds",
				Help:    "Payment gateway request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_outbox_events_total",
				Help: "Outbox events handed to the publisher by result",
			},
			[]string{"result"},
		),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"route"},
		),
	}
}

var _ usecase.MetricsRecorder = (*Metrics)(nil)

// ObserveTransfer records one transfer attempt.
func (m *Metrics) ObserveTransfer(outcome string, amount decimal.Decimal, duration time.Duration) {
	m.Transfers.WithLabelValues(outcome).Inc()
	m.TransferDuration.Observe(duration.Seconds())

	if outcome == usecase.OutcomeSuccess {
		m.TransferAmount.Observe(amount.InexactFloat64())
	}
}

// ObserveDeposit records one deposit initiation.
func (m *Metrics) ObserveDeposit(outcome string) {
	m.Deposits.WithLabelValues(outcome).Inc()
}

// ObserveSettlement records one settlement attempt.
func (m *Metrics) ObserveSettlement(source usecase.SettleSource, outcome usecase.SettleOutcome) {
	m.Settlements.WithLabelValues(string(source), string(outcome)).Inc()
}

// ObserveWebhook records one webhook delivery.
func (m *Metrics) ObserveWebhook(outcome string) {
	m.Webhooks.WithLabelValues(outcome).Inc()
}

// ObserveSweep records a finished sweep.
func (m *Metrics) ObserveSweep(report *usecase.SweepReport, duration time.Duration) {
	m.SweepRuns.Inc()
	m.SweepDuration.Observe(duration.Seconds())

	if report == nil {
		return
	}

	m.SweepResults.WithLabelValues("expired").Add(float64(report.Expired))
	m.SweepResults.WithLabelValues("verified").Add(float64(report.Verified))
	m.SweepResults.WithLabelValues("settled").Add(float64(report.Settled))
	m.SweepResults.WithLabelValues("failed").Add(float64(report.Failed))
	m.SweepResults.WithLabelValues("still_pending").Add(float64(report.StillPending))
	m.SweepResults.WithLabelValues("error").Add(float64(report.Errors))
}

// ObserveGatewayRequest records one call to the payment gateway.
func (m *Metrics) ObserveGatewayRequest(operation, status string, duration time.Duration) {
	m.GatewayRequests.WithLabelValues(operation, status).Inc()
	m.GatewayDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveEventPublished records the result of publishing one outbox event.
func (m *Metrics) ObserveEventPublished(result string) {
	m.EventsPublished.WithLabelValues(result).Inc()
}

// ObserveRateLimitHit records a rejected request.
func (m *Metrics) ObserveRateLimitHit(route string) {
	m.RateLimitHits.WithLabelValues(route).Inc()
}
