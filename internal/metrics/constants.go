package metrics

// Metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"

	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"

	MetricNameCasesOpened       = "cases_opened_total"
	MetricNameListingsCreated   = "listings_created_total"
	MetricNameListingsSold      = "listings_sold_total"
	MetricNameListingsWithdrawn = "listings_withdrawn_total"
	MetricNameMessagesSent      = "chat_messages_sent_total"
	MetricNameUsersRegistered   = "users_registered_total"
	MetricNameCaseSpend         = "case_spend_total"
	MetricNameMarketVolume      = "market_volume_total"
)

// Help texts
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Number of HTTP requests currently being served"

	HelpTextEventsPublished    = "Total number of events published by type"
	HelpTextEventHandlerErrors = "Total number of event handler errors by type"

	HelpTextCasesOpened       = "Total number of cases opened by case and awarded rarity"
	HelpTextListingsCreated   = "Total number of marketplace listings created"
	HelpTextListingsSold      = "Total number of marketplace listings sold"
	HelpTextListingsWithdrawn = "Total number of marketplace listings withdrawn"
	HelpTextMessagesSent      = "Total number of chat messages sent"
	HelpTextUsersRegistered   = "Total number of registered users"
	HelpTextCaseSpend         = "Total currency spent on case openings"
	HelpTextMarketVolume      = "Total currency moved through marketplace sales"
)

// Label names
const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelType   = "type"
	LabelCase   = "case"
	LabelRarity = "rarity"
)

// Payload field names read by the event collector
const (
	PayloadFieldCaseID = "case_id"
	PayloadFieldRarity = "rarity"
	PayloadFieldPrice  = "price"
)

// HTTPLatencyBuckets are the histogram buckets for request latency.
var HTTPLatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Log messages
const (
	LogMsgEventPayloadNotMap = "Event payload is not a map, skipping metrics"
	LogMsgMetricsRecorded    = "Metrics recorded for event"
)
