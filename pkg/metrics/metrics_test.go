package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestCounters(t *testing.T) {
	decision := admissionDecisions.WithLabelValues(OutcomeConflict)
	before := counterValue(t, decision)
	RecordDecision(OutcomeConflict)
	assert.Equal(t, before+1, counterValue(t, decision))

	beforePreempt := counterValue(t, preemptions)
	RecordPreemptions(2)
	assert.Equal(t, beforePreempt+2, counterValue(t, preemptions))

	failed := kafkaMessages.WithLabelValues(DirectionPublish, "error")
	beforeErr := counterValue(t, failed)
	RecordKafka(DirectionPublish, time.Millisecond, errors.New("down"))
	assert.Equal(t, beforeErr+1, counterValue(t, failed))
}

func TestSweepAndCustody(t *testing.T) {
	row := sweepRows.WithLabelValues(SweepOverdueKeys, ResultApplied)
	before := counterValue(t, row)
	RecordSweepRow(SweepOverdueKeys, ResultApplied)
	assert.Equal(t, before+1, counterValue(t, row))

	assert.NotPanics(t, func() {
		RecordCustody("checkout")
		RecordTransition("pending", "approved")
		RecordConflict("booking")
		ObserveLockWait("resource", 5*time.Millisecond)
	})
}
