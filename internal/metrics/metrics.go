package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Business Metrics
var (
	CasesOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCasesOpened,
			Help: HelpTextCasesOpened,
		},
		[]string{LabelCase, LabelRarity},
	)

	ListingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameListingsCreated,
			Help: HelpTextListingsCreated,
		},
	)

	ListingsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameListingsSold,
			Help: HelpTextListingsSold,
		},
	)

	ListingsWithdrawn = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameListingsWithdrawn,
			Help: HelpTextListingsWithdrawn,
		},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameMessagesSent,
			Help: HelpTextMessagesSent,
		},
	)

	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameUsersRegistered,
			Help: HelpTextUsersRegistered,
		},
	)

	CaseSpend = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameCaseSpend,
			Help: HelpTextCaseSpend,
		},
	)

	MarketVolume = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameMarketVolume,
			Help: HelpTextMarketVolume,
		},
	)
)
