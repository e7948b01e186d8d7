package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "reservo"

var (
	admissionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admission_decisions_total",
			Help:      "Booking admission outcomes",
		},
		[]string{"outcome"},
	)

	conflictsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicts_detected_total",
			Help:      "Conflicts reported by the detector, by type",
		},
		[]string{"type"},
	)

	preemptions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preemptions_total",
			Help:      "Bookings preempted by higher-priority requests",
		},
	)

	transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Applied booking lifecycle transitions",
		},
		[]string{"from", "to"},
	)

	custodyActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_custody_actions_total",
			Help:      "Key checkout, check-in and overdue actions",
		},
		[]string{"action"},
	)

	sweepRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_rows_total",
			Help:      "Rows visited by maintenance sweeps",
		},
		[]string{"sweep", "result"},
	)

	lockWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lock_wait_seconds",
			Help:      "Time spent acquiring resource and key locks",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"scope"},
	)

	httpRequests = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency by method and status class",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	httpPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_panics_total",
			Help:      "Handler panics recovered by the HTTP stack",
		},
	)

	kafkaMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_messages_total",
			Help:      "Kafka messages handled, by direction and result",
		},
		[]string{"direction", "result"},
	)

	kafkaDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_message_duration_seconds",
			Help:      "Kafka publish and consume latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"direction"},
	)
)

const (
	OutcomeAdmitted  = "admitted"
	OutcomePreempted = "admitted_with_preemption"
	OutcomeConflict  = "conflict"
	OutcomeRejected  = "invalid"

	SweepExpireComplete = "expire_complete"
	SweepOverdueKeys    = "overdue_keys"

	ResultApplied = "applied"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"

	DirectionPublish = "publish"
	DirectionConsume = "consume"
)

func RecordDecision(outcome string) {
	admissionDecisions.WithLabelValues(outcome).Inc()
}

func RecordConflict(conflictType string) {
	conflictsDetected.WithLabelValues(conflictType).Inc()
}

func RecordPreemptions(n int) {
	preemptions.Add(float64(n))
}

func RecordTransition(from, to string) {
	transitions.WithLabelValues(from, to).Inc()
}

func RecordCustody(action string) {
	custodyActions.WithLabelValues(action).Inc()
}

func RecordSweepRow(sweep, result string) {
	sweepRows.WithLabelValues(sweep, result).Inc()
}

func ObserveLockWait(scope string, d time.Duration) {
	lockWait.WithLabelValues(scope).Observe(d.Seconds())
}

// ObserveHTTPRequest buckets statuses by class ("2xx", "4xx") to keep label
// cardinality flat.
func ObserveHTTPRequest(method string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, strconv.Itoa(status/100)+"xx").Observe(d.Seconds())
}

func RecordPanic() {
	httpPanics.Inc()
}

func RecordKafka(direction string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	kafkaMessages.WithLabelValues(direction, result).Inc()
	kafkaDuration.WithLabelValues(direction).Observe(d.Seconds())
}
