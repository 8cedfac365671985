package metrics

import (
	"sync"
	"time"
)

// MetricsCollector provides a centralized way to collect and retrieve metrics
type MetricsCollector struct {
	mutex               sync.RWMutex
	counters            map[string]int64
	gauges              map[string]float64
	requestCounts       map[string]int64
	requestLatencies    map[string][]time.Duration
	messageBusCounts    map[string]int64
	messageBusLatencies map[string][]time.Duration
	errorCounts         map[string]int64
	startTime           time.Time
	maxLatencySamples   int
}

// Counter metrics
const (
	CounterHTTPRequests        = "http_requests_total"
	CounterHTTPRequestsSuccess = "http_requests_success_total"
	CounterHTTPRequestsError   = "http_requests_error_total"

	CounterTransactionsAppended = "ledger_transactions_appended_total"
	CounterCorrections          = "ledger_corrections_total"
	CounterVerifications        = "stock_verifications_total"
	CounterVariancesDetected    = "stock_variances_detected_total"
	CounterHoldsCreated         = "driver_holds_created_total"
	CounterHoldsResolved        = "driver_holds_resolved_total"
	CounterAssignmentsCreated   = "lorry_assignments_created_total"
	CounterAssignmentsClosed    = "lorry_assignments_closed_total"
	CounterAccessDenied         = "driver_access_denied_total"

	CounterMessagesSent   = "messages_sent_total"
	CounterMessagesError  = "messages_error_total"
	CounterErrorsTotal    = "errors_total"
	CounterDBQueriesError = "db_queries_error_total"
)

// Gauge metrics
const (
	GaugeOpenAssignments = "open_assignments"
	GaugeActiveHolds     = "active_holds"
)

// Message bus operations
const (
	MessageBusOperationSend = "send"
)

// Error types
const (
	ErrorTypeHTTP       = "http"
	ErrorTypeValidation = "validation"
	ErrorTypeDatabase   = "database"
	ErrorTypeMessageBus = "message_bus"
	ErrorTypeSearch     = "search"
	ErrorTypeInternal   = "internal"
)

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:            make(map[string]int64),
		gauges:              make(map[string]float64),
		requestCounts:       make(map[string]int64),
		requestLatencies:    make(map[string][]time.Duration),
		messageBusCounts:    make(map[string]int64),
		messageBusLatencies: make(map[string][]time.Duration),
		errorCounts:         make(map[string]int64),
		startTime:           time.Now(),
		maxLatencySamples:   1000,
	}
}

// IncrementCounter increments a counter by the given value
func (m *MetricsCollector) IncrementCounter(name string, value int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.counters[name] += value
}

// SetGauge sets a gauge to the given value
func (m *MetricsCollector) SetGauge(name string, value float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.gauges[name] = value
}

// RecordHTTPRequest records metrics for an HTTP request
func (m *MetricsCollector) RecordHTTPRequest(path string, statusCode int, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.counters[CounterHTTPRequests]++
	m.requestCounts[path]++

	latencies, ok := m.requestLatencies[path]
	if !ok {
		latencies = make([]time.Duration, 0, m.maxLatencySamples)
	}
	if len(latencies) >= m.maxLatencySamples {
		latencies = latencies[1:]
	}
	latencies = append(latencies, latency)
	m.requestLatencies[path] = latencies

	if statusCode >= 200 && statusCode < 400 {
		m.counters[CounterHTTPRequestsSuccess]++
	} else {
		m.counters[CounterHTTPRequestsError]++
		m.errorCounts[ErrorTypeHTTP]++
	}
}

// RecordMessageBusOperation records metrics for a message bus operation
func (m *MetricsCollector) RecordMessageBusOperation(operation string, success bool, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.messageBusCounts[operation]++
	if operation == MessageBusOperationSend {
		m.counters[CounterMessagesSent]++
	}
	if !success {
		m.counters[CounterMessagesError]++
		m.errorCounts[ErrorTypeMessageBus]++
	}

	latencies, ok := m.messageBusLatencies[operation]
	if !ok {
		latencies = make([]time.Duration, 0, m.maxLatencySamples)
	}
	if len(latencies) >= m.maxLatencySamples {
		latencies = latencies[1:]
	}
	latencies = append(latencies, latency)
	m.messageBusLatencies[operation] = latencies
}

// RecordError records an error of the given type
func (m *MetricsCollector) RecordError(errorType string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.errorCounts[errorType]++
	m.counters[CounterErrorsTotal]++
}

// GetMetrics returns all collected metrics in a structured format
func (m *MetricsCollector) GetMetrics() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	httpLatencies := make(map[string]float64)
	for path, latencies := range m.requestLatencies {
		if len(latencies) > 0 {
			var sum time.Duration
			for _, l := range latencies {
				sum += l
			}
			httpLatencies[path] = float64(sum.Milliseconds()) / float64(len(latencies))
		}
	}

	messageBusLatencies := make(map[string]float64)
	for opType, latencies := range m.messageBusLatencies {
		if len(latencies) > 0 {
			var sum time.Duration
			for _, l := range latencies {
				sum += l
			}
			messageBusLatencies[opType] = float64(sum.Milliseconds()) / float64(len(latencies))
		}
	}

	uptime := time.Since(m.startTime)

	return map[string]interface{}{
		"uptime_seconds":           uptime.Seconds(),
		"counters":                 m.counters,
		"gauges":                   m.gauges,
		"request_counts":           m.requestCounts,
		"request_latencies_ms":     httpLatencies,
		"message_bus_counts":       m.messageBusCounts,
		"message_bus_latencies_ms": messageBusLatencies,
		"error_counts":             m.errorCounts,
	}
}

// GetHealthStatus returns a simple health status based on metrics
func (m *MetricsCollector) GetHealthStatus() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	healthy := true

	errorRate := 0.0
	totalRequests := m.counters[CounterHTTPRequests]
	if totalRequests > 0 {
		errorRate = float64(m.counters[CounterHTTPRequestsError]) / float64(totalRequests)
	}

	// 5% error rate is considered unhealthy
	const errorRateThreshold = 0.05
	if errorRate > errorRateThreshold {
		healthy = false
	}

	uptime := time.Since(m.startTime)

	return map[string]interface{}{
		"status": map[string]interface{}{
			"healthy":        healthy,
			"uptime_seconds": uptime.Seconds(),
		},
		"metrics": map[string]interface{}{
			"total_requests":     totalRequests,
			"error_rate":         errorRate,
			"verifications":      m.counters[CounterVerifications],
			"variances_detected": m.counters[CounterVariancesDetected],
			"holds_created":      m.counters[CounterHoldsCreated],
			"messages_error":     m.counters[CounterMessagesError],
		},
	}
}

// Global metrics collector instance
var globalCollector *MetricsCollector
var once sync.Once

// GetMetricsCollector returns the global metrics collector instance
func GetMetricsCollector() *MetricsCollector {
	once.Do(func() {
		globalCollector = NewMetricsCollector()
	})
	return globalCollector
}
