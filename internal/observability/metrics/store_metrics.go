package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	PersistenceReasonDeadlineExceeded     = "deadline_exceeded"
	PersistenceReasonDBLockTimeout        = "db_lock_timeout"
	PersistenceReasonSerializationFailure = "serialization_failure"
	PersistenceReasonUniqueViolation      = "unique_violation"
	PersistenceReasonForeignKey           = "foreign_key_violation"
	PersistenceReasonUnknown              = "unknown"
)

// StoreMetrics captures persistence and upstream health for the storefront
// in the Prometheus registry served on /metrics.
type StoreMetrics struct {
	persistenceErrors *prometheus.CounterVec
	zohoUpstream      *prometheus.CounterVec
	cartStoreErrors   *prometheus.CounterVec
}

var (
	storeMetricsOnce sync.Once
	storeMetrics     *StoreMetrics
)

// Store returns the singleton store metrics registry using config labels.
func Store(cfg Config) *StoreMetrics {
	storeMetricsOnce.Do(func() {
		storeMetrics = newStoreMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return storeMetrics
}

func newStoreMetrics(registerer prometheus.Registerer, cfg Config) *StoreMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := constLabelsFor(cfg)

	m := &StoreMetrics{
		persistenceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "storefront_persistence_errors_total",
			Help:        "Failed storefront writes by operation and low-cardinality reason.",
			ConstLabels: constLabels,
		}, []string{"operation", "reason"}),
		zohoUpstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "storefront_zoho_upstream_responses_total",
			Help:        "Responses received from Zoho by endpoint and status class.",
			ConstLabels: constLabels,
		}, []string{"endpoint", "status_class"}),
		cartStoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "storefront_cart_store_errors_total",
			Help:        "Cart store failures by backend and operation.",
			ConstLabels: constLabels,
		}, []string{"backend", "operation"}),
	}
	registerer.MustRegister(m.persistenceErrors, m.zohoUpstream, m.cartStoreErrors)
	return m
}

func constLabelsFor(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "confeitaria"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}
}

// RecordPersistenceError counts a failed write.
func (m *StoreMetrics) RecordPersistenceError(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	m.persistenceErrors.WithLabelValues(strings.TrimSpace(operation), ClassifyPersistenceReason(err)).Inc()
}

// RecordZohoResponse counts an upstream Zoho response by status class (2xx, 4xx, 5xx).
func (m *StoreMetrics) RecordZohoResponse(endpoint string, status int) {
	if m == nil {
		return
	}
	m.zohoUpstream.WithLabelValues(strings.TrimSpace(endpoint), statusClass(status)).Inc()
}

func (m *StoreMetrics) RecordCartStoreError(backend, operation string) {
	if m == nil {
		return
	}
	m.cartStoreErrors.WithLabelValues(strings.TrimSpace(backend), strings.TrimSpace(operation)).Inc()
}

// ClassifyPersistenceReason maps database errors to low-cardinality reasons.
func ClassifyPersistenceReason(err error) string {
	if err == nil {
		return PersistenceReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return PersistenceReasonDeadlineExceeded
	}
	if hasPGCode(err, "55P03") {
		return PersistenceReasonDBLockTimeout
	}
	if hasPGCode(err, "40001") {
		return PersistenceReasonSerializationFailure
	}
	if IsUniqueViolation(err) {
		return PersistenceReasonUniqueViolation
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || hasPGCode(err, "23503") {
		return PersistenceReasonForeignKey
	}
	return PersistenceReasonUnknown
}

// IsUniqueViolation reports whether err is a duplicate-key failure.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return hasPGCode(err, "23505")
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "unknown"
	}
}
